package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/thuanng/bookingpay/internal/config"
	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/internal/gateway/vnpay"
	"github.com/thuanng/bookingpay/internal/kafka/producer"
	"github.com/thuanng/bookingpay/internal/metrics"
	"github.com/thuanng/bookingpay/internal/repository"
	"github.com/thuanng/bookingpay/internal/service"
	"github.com/thuanng/bookingpay/pkg/logger"
)

func newPaymentHandlerEnv(t *testing.T) (*gin.Engine, *repository.InMemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewWithOutput(logger.ERROR, io.Discard)
	store := repository.NewInMemoryStore(log)

	cfg := config.VNPayConfig{
		TmnCode:    "TESTTMN1",
		HashSecret: "test-secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://booking.example.com/payment/return",
		Locale:     "vn",
		Currency:   "VND",
		OrderType:  "other",
	}
	signer := vnpay.NewSignatureEngine(cfg.HashSecret)
	builder := vnpay.NewRequestBuilder(cfg, signer, store, log)
	svc := service.NewPaymentService(builder, store, store, producer.NoOpProducer{}, metrics.NoOpMetrics{}, log)
	handler := NewPaymentHandler(svc, log)

	router := gin.New()
	router.POST("/payments", handler.CreatePayment)
	router.GET("/payments/:reference", handler.GetPayment)

	return router, store
}

func TestCreatePaymentEndpoint(t *testing.T) {
	t.Run("creates payment and returns redirect url", func(t *testing.T) {
		router, store := newPaymentHandlerEnv(t)
		if _, err := store.CreateBooking(context.Background(), domain.Booking{
			ID:     testBookingID,
			UserID: "user-1",
			Type:   domain.BookingTypeHotel,
			Status: domain.BookingStatusPending,
		}); err != nil {
			t.Fatalf("seed booking: %v", err)
		}

		body := `{"booking_id":"` + testBookingID + `","amount":500000}`
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}

		var resp domain.CreatePaymentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Reference == "" || !strings.Contains(resp.PaymentURL, "vnp_SecureHash=") {
			t.Fatalf("response = %+v", resp)
		}
	})

	t.Run("missing amount rejected", func(t *testing.T) {
		router, _ := newPaymentHandlerEnv(t)

		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"booking_id":"abc"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		router, _ := newPaymentHandlerEnv(t)

		body := `{"booking_id":"missing","amount":500000}`
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("booking not payable", func(t *testing.T) {
		router, store := newPaymentHandlerEnv(t)
		if _, err := store.CreateBooking(context.Background(), domain.Booking{
			ID:     testBookingID,
			Status: domain.BookingStatusPaid,
		}); err != nil {
			t.Fatalf("seed booking: %v", err)
		}

		body := `{"booking_id":"` + testBookingID + `","amount":500000}`
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetPaymentEndpoint(t *testing.T) {
	router, store := newPaymentHandlerEnv(t)

	if _, err := store.CreatePendingPayment(context.Background(), domain.Payment{
		Reference: testReference,
		BookingID: testBookingID,
		Amount:    50000000,
		Method:    "vnpay",
	}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/"+testReference, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var payment domain.Payment
		if err := json.Unmarshal(rec.Body.Bytes(), &payment); err != nil {
			t.Fatalf("decode payment: %v", err)
		}
		if payment.Reference != testReference || payment.Status != domain.PaymentStatusPending {
			t.Fatalf("payment = %+v", payment)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/missing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}
