package domain

import (
	"time"
)

// PaymentStatus статус платежа
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsTerminal сообщает, является ли статус терминальным.
// Из терминального статуса переходов нет.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// Payment представляет собой запись о платежной попытке.
// Reference уникален глобально и неизменяем после создания.
// Записи никогда не удаляются: история платежей служит аудитом.
type Payment struct {
	Reference string            `json:"reference"`
	BookingID string            `json:"booking_id"`
	Amount    int64             `json:"amount"` // в минимальных единицах шлюза (VND x 100)
	Status    PaymentStatus     `json:"status"`
	Method    string            `json:"method,omitempty"`
	Details   map[string]string `json:"details,omitempty"` // параметры, эхом вернувшиеся от шлюза
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// CreatePaymentRequest представляет запрос на создание платежа
type CreatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required,gt=0"` // в VND, до масштабирования шлюза
	OrderInfo string `json:"order_info"`
}

// CreatePaymentResponse содержит подписанный URL редиректа на шлюз
type CreatePaymentResponse struct {
	Reference  string `json:"reference"`
	PaymentURL string `json:"payment_url"`
}
