package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/internal/service"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// PaymentHandler обработчики HTTP для создания платежей и чтения статусов
type PaymentHandler struct {
	payments *service.PaymentService
	log      *logger.Logger
}

// NewPaymentHandler создает новый обработчик платежей
func NewPaymentHandler(payments *service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		log:      log,
	}
}

// CreatePayment создает платежную попытку и возвращает URL редиректа на шлюз
// POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req domain.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.payments.CreatePayment(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment request"})
		case errors.Is(err, domain.ErrDuplicateReference):
			// Референс занят: вызывающий повторяет запрос, референс
			// сгенерируется заново
			c.JSON(http.StatusConflict, gin.H{"error": "reference collision, retry the request"})
		default:
			h.log.Error("Failed to create payment: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetPayment возвращает статус платежа по референсу
// GET /api/v1/payments/:reference
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	reference := c.Param("reference")

	payment, err := h.payments.GetPayment(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		h.log.Error("Failed to get payment %s: %v", reference, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, payment)
}
