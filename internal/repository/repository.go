package repository

import (
	"context"

	"github.com/thuanng/bookingpay/internal/domain"
)

// PaymentReader читающая часть хранилища платежей.
// Путь отображения статуса: читатели никогда не мутируют.
type PaymentReader interface {
	FindPaymentByReference(ctx context.Context, reference string) (domain.Payment, error)
}

// PaymentStore хранилище платежей. Единственный писатель терминальных
// статусов — реконсилятор.
type PaymentStore interface {
	PaymentReader

	// CreatePendingPayment резервирует референс, создавая платеж в статусе
	// Pending. Занятый референс дает domain.ErrDuplicateReference.
	CreatePendingPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)

	// FindPendingPaymentByBooking возвращает незавершенный платеж бронирования,
	// domain.ErrNotFound если его нет. У бронирования не бывает двух
	// незавершенных платежей одновременно.
	FindPendingPaymentByBooking(ctx context.Context, bookingID string) (domain.Payment, error)

	// TransitionPayment атомарно переводит Pending-платеж в терминальный
	// статус и зеркалит статус бронирования. Обе записи меняются вместе
	// или не меняется ни одна. Конкурирующие вызовы для одного референса
	// сериализуются; проигравший получает domain.ErrPaymentFinalized.
	TransitionPayment(ctx context.Context, reference string, status domain.PaymentStatus, details map[string]string) (domain.Payment, error)

	// SupersedePayment гасит Pending-платеж (Pending -> Failed) при новой
	// платежной попытке для того же бронирования. Бронирование не трогается:
	// оплата продолжается по новому референсу.
	SupersedePayment(ctx context.Context, reference string) error
}

// BookingStore хранилище бронирований
type BookingStore interface {
	CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	FindBookingByID(ctx context.Context, id string) (domain.Booking, error)

	// TransitionBooking переводит бронирование в новый статус.
	// Зеркальный переход при сверке идет через TransitionPayment,
	// чтобы сохранить парность.
	TransitionBooking(ctx context.Context, id string, status domain.BookingStatus) error
}

// Store объединяет хранилища платежей и бронирований
type Store interface {
	PaymentStore
	BookingStore
}
