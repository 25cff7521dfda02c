package vnpay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/thuanng/bookingpay/internal/config"
	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/pkg/logger"
)

const (
	protocolVersion  = "2.1.0"
	commandPay       = "pay"
	createDateLayout = "20060102150405" // yyyyMMddHHmmss

	// Шлюз ведет суммы в сотых долях единицы валюты
	amountScale = 100

	// Длина префикса bookingID в референсе транзакции
	refPrefixLen = 8
)

// PaymentCreator резервирует референс, создавая Pending-платеж.
// Возвращает domain.ErrDuplicateReference при живой коллизии.
type PaymentCreator interface {
	CreatePendingPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)
}

// RequestBuilder собирает подписанный URL редиректа на платежную
// страницу шлюза. Конфигурация мерчанта передается при создании.
type RequestBuilder struct {
	cfg      config.VNPayConfig
	signer   *SignatureEngine
	payments PaymentCreator
	now      func() time.Time
	log      *logger.Logger
}

// NewRequestBuilder создает новый билдер платежных запросов
func NewRequestBuilder(cfg config.VNPayConfig, signer *SignatureEngine, payments PaymentCreator, log *logger.Logger) *RequestBuilder {
	return &RequestBuilder{
		cfg:      cfg,
		signer:   signer,
		payments: payments,
		now:      time.Now,
		log:      log,
	}
}

// Build собирает платежный запрос для бронирования: резервирует референс,
// создает Pending-платеж и возвращает подписанный URL редиректа.
// amount задается в VND до масштабирования шлюза и должен быть положительным.
//
// Платеж сохраняется до возврата URL: уведомление шлюза, пришедшее раньше
// редиректа браузера, уже найдет строку для сверки.
func (b *RequestBuilder) Build(ctx context.Context, bookingID string, amount int64, clientIP, orderInfo string) (*domain.CreatePaymentResponse, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("%w: booking id is empty", domain.ErrInvalidInput)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", domain.ErrInvalidInput, amount)
	}

	now := b.now()
	reference := buildReference(now, bookingID)
	scaled := amount * amountScale

	if orderInfo == "" {
		orderInfo = fmt.Sprintf("Thanh toan dat cho %s", bookingID)
	}

	payment := domain.Payment{
		Reference: reference,
		BookingID: bookingID,
		Amount:    scaled,
		Status:    domain.PaymentStatusPending,
		Method:    "vnpay",
	}

	if _, err := b.payments.CreatePendingPayment(ctx, payment); err != nil {
		return nil, err
	}

	params := Params{
		ParamVersion:    protocolVersion,
		ParamCommand:    commandPay,
		ParamTmnCode:    b.cfg.TmnCode,
		ParamLocale:     b.cfg.Locale,
		ParamCurrCode:   b.cfg.Currency,
		ParamTxnRef:     reference,
		ParamOrderInfo:  orderInfo,
		ParamOrderType:  b.cfg.OrderType,
		ParamAmount:     strconv.FormatInt(scaled, 10),
		ParamReturnURL:  b.cfg.ReturnURL,
		ParamIPAddr:     clientIP,
		ParamCreateDate: now.Format(createDateLayout),
	}

	signData, query := Render(params)
	hash := b.signer.Sign(signData)

	payURL := fmt.Sprintf("%s?%s&%s=%s", b.cfg.PayURL, query, ParamSecureHash, hash)

	b.log.Info("Built payment request: reference=%s booking=%s amount=%d", reference, bookingID, scaled)

	return &domain.CreatePaymentResponse{
		Reference:  reference,
		PaymentURL: payURL,
	}, nil
}

// buildReference формирует референс транзакции {unixSeconds}_{bookingID[:8]}.
// Коллизия в пределах секунды закрывается резервированием в CreatePendingPayment.
func buildReference(now time.Time, bookingID string) string {
	prefix := bookingID
	if len(prefix) > refPrefixLen {
		prefix = prefix[:refPrefixLen]
	}
	return fmt.Sprintf("%d_%s", now.Unix(), prefix)
}
