package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/internal/gateway/vnpay"
	"github.com/thuanng/bookingpay/internal/metrics"
	"github.com/thuanng/bookingpay/internal/service"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// Коды ответа шлюзу на серверное уведомление
const (
	ipnCodeSuccess          = "00"
	ipnCodeOrderNotFound    = "01"
	ipnCodeAlreadyConfirmed = "02"
	ipnCodeInvalidAmount    = "04"
	ipnCodeInvalidSignature = "97"
	ipnCodeUnknownError     = "99"
)

// ipnResponse формат подтверждения для шлюза
type ipnResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// CallbackHandler два тонких адаптера над единственным реконсилятором:
// браузерный возврат и серверное уведомление. Проверка подписи у каналов
// одна, различаются только ответы.
type CallbackHandler struct {
	verifier   *vnpay.CallbackVerifier
	reconciler *service.Reconciler
	metrics    metrics.PaymentMetrics
	log        *logger.Logger
}

// NewCallbackHandler создает новый обработчик коллбэков шлюза
func NewCallbackHandler(verifier *vnpay.CallbackVerifier, reconciler *service.Reconciler, m metrics.PaymentMetrics, log *logger.Logger) *CallbackHandler {
	return &CallbackHandler{
		verifier:   verifier,
		reconciler: reconciler,
		metrics:    m,
		log:        log,
	}
}

// HandleReturn обрабатывает браузерный возврат со шлюза.
// Канал ненадежен и не авторитетен; пользователю показывается только
// общий итог, без внутренней диагностики.
// GET /api/v1/payments/vnpay/return
func (h *CallbackHandler) HandleReturn(c *gin.Context) {
	payload, err := h.verifier.Verify(queryParams(c))
	if err != nil {
		h.metrics.IncSignatureRejected(string(service.ChannelReturn))
		h.log.Warn("Return callback rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "failure"})
		return
	}

	result := h.reconciler.Reconcile(c.Request.Context(), payload, service.ChannelReturn)

	switch result.Outcome {
	case service.OutcomePaid:
		c.JSON(http.StatusOK, gin.H{
			"status":    "success",
			"reference": payload.Reference,
			"confirmed": result.FirstDelivery,
		})
	case service.OutcomeDuplicate:
		// Уведомление успело раньше: показываем итог,
		// повторных подтверждений пользователю не шлем
		if result.Status == domain.PaymentStatusPaid {
			c.JSON(http.StatusOK, gin.H{
				"status":    "success",
				"reference": payload.Reference,
				"confirmed": false,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "failure", "reference": payload.Reference})
	case service.OutcomeFailed:
		c.JSON(http.StatusOK, gin.H{"status": "failure", "reference": payload.Reference})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "failure"})
	}
}

// HandleIPN обрабатывает серверное уведомление шлюза. Шлюз повторяет
// уведомление, пока не получит подтверждение, поэтому повтор для уже
// терминального платежа подтверждается тем же кодом успеха.
// GET /api/v1/payments/vnpay/ipn
func (h *CallbackHandler) HandleIPN(c *gin.Context) {
	payload, err := h.verifier.Verify(queryParams(c))
	if err != nil {
		h.metrics.IncSignatureRejected(string(service.ChannelIPN))
		h.log.Warn("IPN callback rejected: %v", err)
		if errors.Is(err, domain.ErrSignatureInvalid) {
			c.JSON(http.StatusOK, ipnResponse{RspCode: ipnCodeInvalidSignature, Message: "Invalid signature"})
			return
		}
		c.JSON(http.StatusOK, ipnResponse{RspCode: ipnCodeUnknownError, Message: "Invalid request"})
		return
	}

	result := h.reconciler.Reconcile(c.Request.Context(), payload, service.ChannelIPN)

	switch result.Outcome {
	case service.OutcomePaid, service.OutcomeFailed:
		c.JSON(http.StatusOK, ipnResponse{RspCode: ipnCodeSuccess, Message: "Confirm Success"})
	case service.OutcomeDuplicate:
		c.JSON(http.StatusOK, ipnResponse{RspCode: ipnCodeSuccess, Message: "Confirm Success"})
	default:
		c.JSON(http.StatusOK, ipnRejectionResponse(result.Reason))
	}
}

// ipnRejectionResponse переводит причину отказа в документированный
// код ответа шлюзу, чтобы его повторы и алерты работали корректно
func ipnRejectionResponse(reason error) ipnResponse {
	switch {
	case errors.Is(reason, domain.ErrUnknownTransaction):
		return ipnResponse{RspCode: ipnCodeOrderNotFound, Message: "Order not found"}
	case errors.Is(reason, domain.ErrAmountMismatch):
		return ipnResponse{RspCode: ipnCodeInvalidAmount, Message: "Invalid amount"}
	case errors.Is(reason, domain.ErrReconciliationConflict):
		return ipnResponse{RspCode: ipnCodeAlreadyConfirmed, Message: "Order already confirmed"}
	default:
		return ipnResponse{RspCode: ipnCodeUnknownError, Message: "Unknown error"}
	}
}

// queryParams собирает плоский набор параметров из строки запроса
func queryParams(c *gin.Context) vnpay.Params {
	params := make(vnpay.Params)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
