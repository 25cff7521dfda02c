package repository

import (
	"context"
	"sync"
	"time"

	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// InMemoryStore реализация хранилища в памяти для тестов и локальной
// разработки. Один мьютекс сериализует переходы: две почти одновременные
// доставки не увидят Pending обе.
type InMemoryStore struct {
	mu       sync.RWMutex
	payments map[string]domain.Payment
	bookings map[string]domain.Booking
	log      *logger.Logger
}

// NewInMemoryStore создает новое хранилище в памяти
func NewInMemoryStore(log *logger.Logger) *InMemoryStore {
	return &InMemoryStore{
		payments: make(map[string]domain.Payment),
		bookings: make(map[string]domain.Booking),
		log:      log,
	}
}

// FindPaymentByReference возвращает платеж по референсу
func (s *InMemoryStore) FindPaymentByReference(ctx context.Context, reference string) (domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, exists := s.payments[reference]
	if !exists {
		return domain.Payment{}, domain.ErrNotFound
	}

	return payment, nil
}

// CreatePendingPayment резервирует референс, создавая Pending-платеж
func (s *InMemoryStore) CreatePendingPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[payment.Reference]; exists {
		return domain.Payment{}, domain.ErrDuplicateReference
	}

	payment.Status = domain.PaymentStatusPending
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	s.payments[payment.Reference] = payment

	return payment, nil
}

// FindPendingPaymentByBooking возвращает незавершенный платеж бронирования
func (s *InMemoryStore) FindPendingPaymentByBooking(ctx context.Context, bookingID string) (domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, payment := range s.payments {
		if payment.BookingID == bookingID && payment.Status == domain.PaymentStatusPending {
			return payment, nil
		}
	}

	return domain.Payment{}, domain.ErrNotFound
}

// TransitionPayment переводит Pending-платеж в терминальный статус
// и зеркалит статус бронирования под одним замком
func (s *InMemoryStore) TransitionPayment(ctx context.Context, reference string, status domain.PaymentStatus, details map[string]string) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[reference]
	if !exists {
		return domain.Payment{}, domain.ErrNotFound
	}

	if payment.Status.IsTerminal() {
		return payment, domain.ErrPaymentFinalized
	}

	payment.Status = status
	payment.Details = details
	payment.UpdatedAt = time.Now()
	s.payments[reference] = payment

	if err := s.transitionBookingLocked(payment.BookingID, domain.BookingStatusFor(status)); err != nil {
		// Откат платежа: пара переходит вместе или никак
		payment.Status = domain.PaymentStatusPending
		payment.Details = nil
		s.payments[reference] = payment
		return domain.Payment{}, err
	}

	return payment, nil
}

// SupersedePayment гасит Pending-платеж при новой попытке оплаты.
// Бронирование не трогается.
func (s *InMemoryStore) SupersedePayment(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[reference]
	if !exists {
		return domain.ErrNotFound
	}
	if payment.Status.IsTerminal() {
		return domain.ErrPaymentFinalized
	}

	payment.Status = domain.PaymentStatusFailed
	payment.Details = map[string]string{"superseded": "true"}
	payment.UpdatedAt = time.Now()
	s.payments[reference] = payment

	return nil
}

// CreateBooking создает новое бронирование
func (s *InMemoryStore) CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[booking.ID]; exists {
		return domain.Booking{}, domain.ErrDuplicate
	}

	if booking.Status == "" {
		booking.Status = domain.BookingStatusPending
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	s.bookings[booking.ID] = booking

	return booking, nil
}

// FindBookingByID возвращает бронирование по ID
func (s *InMemoryStore) FindBookingByID(ctx context.Context, id string) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, exists := s.bookings[id]
	if !exists {
		return domain.Booking{}, domain.ErrNotFound
	}

	return booking, nil
}

// TransitionBooking переводит бронирование в новый статус
func (s *InMemoryStore) TransitionBooking(ctx context.Context, id string, status domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transitionBookingLocked(id, status)
}

func (s *InMemoryStore) transitionBookingLocked(id string, status domain.BookingStatus) error {
	booking, exists := s.bookings[id]
	if !exists {
		return domain.ErrNotFound
	}

	booking.Status = status
	booking.UpdatedAt = time.Now()
	s.bookings[id] = booking

	return nil
}
