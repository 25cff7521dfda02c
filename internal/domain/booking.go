package domain

import (
	"time"
)

// BookingStatus статус бронирования
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingType тип бронируемого продукта
type BookingType string

const (
	BookingTypeHotel  BookingType = "hotel"
	BookingTypeFlight BookingType = "flight"
	BookingTypeTour   BookingType = "tour"
)

// Booking представляет бронирование, владеющее платежами.
// Статус зеркалит статус платежа: Paid <= Payment.Paid,
// Cancelled <= Payment.Failed. Меняется только реконсилятором.
type Booking struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Type      BookingType   `json:"type"`
	ItemRef   string        `json:"item_ref"` // ссылка на отель/рейс/тур в каталоге
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BookingStatusFor возвращает статус бронирования, зеркальный
// терминальному статусу платежа.
func BookingStatusFor(ps PaymentStatus) BookingStatus {
	switch ps {
	case PaymentStatusPaid:
		return BookingStatusPaid
	case PaymentStatusFailed:
		return BookingStatusCancelled
	default:
		return BookingStatusPending
	}
}
