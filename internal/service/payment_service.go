package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/internal/gateway/vnpay"
	"github.com/thuanng/bookingpay/internal/kafka/producer"
	"github.com/thuanng/bookingpay/internal/metrics"
	"github.com/thuanng/bookingpay/internal/repository"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// PaymentService обслуживает создание платежных попыток и чтение статусов.
// Терминальные переходы — зона ответственности Reconciler.
type PaymentService struct {
	builder  *vnpay.RequestBuilder
	store    repository.Store
	reader   repository.PaymentReader // путь отображения, может быть кэширован
	producer producer.PaymentProducer
	metrics  metrics.PaymentMetrics
	log      *logger.Logger
}

// NewPaymentService создает новый сервис платежей
func NewPaymentService(builder *vnpay.RequestBuilder, store repository.Store, reader repository.PaymentReader, prod producer.PaymentProducer, m metrics.PaymentMetrics, log *logger.Logger) *PaymentService {
	return &PaymentService{
		builder:  builder,
		store:    store,
		reader:   reader,
		producer: prod,
		metrics:  m,
		log:      log,
	}
}

// CreatePayment создает платежную попытку для бронирования и возвращает
// подписанный URL редиректа на шлюз.
//
// У бронирования не бывает двух живых платежей: прежняя Pending-попытка
// гасится до создания новой, чтобы две попытки не гнались к терминальному
// статусу друг против друга.
func (s *PaymentService) CreatePayment(ctx context.Context, req domain.CreatePaymentRequest, clientIP string) (*domain.CreatePaymentResponse, error) {
	booking, err := s.store.FindBookingByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidInput, booking.ID, booking.Status)
	}

	if prior, err := s.store.FindPendingPaymentByBooking(ctx, req.BookingID); err == nil {
		s.log.Info("Superseding prior pending payment %s for booking %s", prior.Reference, req.BookingID)
		if err := s.store.SupersedePayment(ctx, prior.Reference); err != nil && !errors.Is(err, domain.ErrPaymentFinalized) {
			return nil, err
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	resp, err := s.builder.Build(ctx, req.BookingID, req.Amount, clientIP, req.OrderInfo)
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentCreated()

	if payment, err := s.store.FindPaymentByReference(ctx, resp.Reference); err == nil {
		if err := s.producer.PublishPaymentCreated(ctx, payment); err != nil {
			s.log.Error("Failed to publish payment.created for %s: %v", resp.Reference, err)
		}
	}

	return resp, nil
}

// GetPayment возвращает платеж для отображения статуса
func (s *PaymentService) GetPayment(ctx context.Context, reference string) (domain.Payment, error) {
	return s.reader.FindPaymentByReference(ctx, reference)
}
