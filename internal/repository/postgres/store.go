package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// uniqueViolation код ошибки PostgreSQL для нарушения уникальности
const uniqueViolation = "23505"

// Store реализация хранилища платежей и бронирований через PostgreSQL.
// Переход платежа и зеркальный переход бронирования выполняются в одной
// транзакции; строка платежа блокируется через SELECT ... FOR UPDATE,
// так что конкурирующие доставки для одного референса сериализуются
// на уровне строки.
type Store struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewStore создает новое PostgreSQL-хранилище
func NewStore(db *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log,
	}
}

// FindPaymentByReference возвращает платеж по референсу
func (s *Store) FindPaymentByReference(ctx context.Context, reference string) (domain.Payment, error) {
	query := `
		SELECT reference, booking_id, amount, status, method, details, created_at, updated_at
		FROM payments
		WHERE reference = $1
	`

	payment, err := scanPayment(s.db.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// CreatePendingPayment резервирует референс, создавая Pending-платеж
func (s *Store) CreatePendingPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	query := `
		INSERT INTO payments (reference, booking_id, amount, status, method, details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`

	detailsBytes, err := marshalDetails(payment.Details)
	if err != nil {
		return domain.Payment{}, err
	}

	payment.Status = domain.PaymentStatusPending

	err = s.db.QueryRow(
		ctx,
		query,
		payment.Reference,
		payment.BookingID,
		payment.Amount,
		payment.Status,
		payment.Method,
		detailsBytes,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Payment{}, domain.ErrDuplicateReference
		}
		return domain.Payment{}, fmt.Errorf("failed to create payment: %w", err)
	}

	return payment, nil
}

// FindPendingPaymentByBooking возвращает незавершенный платеж бронирования
func (s *Store) FindPendingPaymentByBooking(ctx context.Context, bookingID string) (domain.Payment, error) {
	query := `
		SELECT reference, booking_id, amount, status, method, details, created_at, updated_at
		FROM payments
		WHERE booking_id = $1 AND status = $2
	`

	payment, err := scanPayment(s.db.QueryRow(ctx, query, bookingID, domain.PaymentStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, fmt.Errorf("failed to get pending payment: %w", err)
	}

	return payment, nil
}

// TransitionPayment переводит Pending-платеж в терминальный статус
// и зеркалит статус бронирования в одной транзакции
func (s *Store) TransitionPayment(ctx context.Context, reference string, status domain.PaymentStatus, details map[string]string) (domain.Payment, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку платежа: ровно одна доставка выигрывает гонку
	lockQuery := `
		SELECT reference, booking_id, amount, status, method, details, created_at, updated_at
		FROM payments
		WHERE reference = $1
		FOR UPDATE
	`

	payment, err := scanPayment(tx.QueryRow(ctx, lockQuery, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, fmt.Errorf("failed to lock payment: %w", err)
	}

	if payment.Status.IsTerminal() {
		return payment, domain.ErrPaymentFinalized
	}

	detailsBytes, err := marshalDetails(details)
	if err != nil {
		return domain.Payment{}, err
	}

	updateQuery := `
		UPDATE payments
		SET status = $1, details = $2, updated_at = now()
		WHERE reference = $3
		RETURNING updated_at
	`

	if err := tx.QueryRow(ctx, updateQuery, status, detailsBytes, reference).Scan(&payment.UpdatedAt); err != nil {
		return domain.Payment{}, fmt.Errorf("failed to update payment: %w", err)
	}

	if err := transitionBookingTx(ctx, tx, payment.BookingID, domain.BookingStatusFor(status)); err != nil {
		return domain.Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Payment{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	payment.Status = status
	payment.Details = details

	return payment, nil
}

// SupersedePayment гасит Pending-платеж при новой попытке оплаты.
// Бронирование не трогается.
func (s *Store) SupersedePayment(ctx context.Context, reference string) error {
	query := `
		UPDATE payments
		SET status = $1, details = '{"superseded": "true"}', updated_at = now()
		WHERE reference = $2 AND status = $3
	`

	result, err := s.db.Exec(ctx, query, domain.PaymentStatusFailed, reference, domain.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to supersede payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Либо референса нет, либо платеж уже терминален
		payment, err := s.FindPaymentByReference(ctx, reference)
		if err != nil {
			return err
		}
		if payment.Status.IsTerminal() {
			return domain.ErrPaymentFinalized
		}
		return domain.ErrNotFound
	}

	return nil
}

// CreateBooking создает новое бронирование
func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	query := `
		INSERT INTO bookings (id, user_id, type, item_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`

	if booking.Status == "" {
		booking.Status = domain.BookingStatusPending
	}

	err := s.db.QueryRow(
		ctx,
		query,
		booking.ID,
		booking.UserID,
		booking.Type,
		booking.ItemRef,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Booking{}, domain.ErrDuplicate
		}
		return domain.Booking{}, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, nil
}

// FindBookingByID возвращает бронирование по ID
func (s *Store) FindBookingByID(ctx context.Context, id string) (domain.Booking, error) {
	query := `
		SELECT id, user_id, type, item_ref, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var booking domain.Booking
	err := s.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.Type,
		&booking.ItemRef,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

// TransitionBooking переводит бронирование в новый статус
func (s *Store) TransitionBooking(ctx context.Context, id string, status domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := s.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// transitionBookingTx зеркалит статус бронирования внутри транзакции перехода платежа
func transitionBookingTx(ctx context.Context, tx pgx.Tx, bookingID string, status domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, status, bookingID)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// rowScanner покрывает pgx.Row для общего сканирования платежа
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (domain.Payment, error) {
	var payment domain.Payment
	var detailsBytes []byte

	err := row.Scan(
		&payment.Reference,
		&payment.BookingID,
		&payment.Amount,
		&payment.Status,
		&payment.Method,
		&detailsBytes,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return domain.Payment{}, err
	}

	if len(detailsBytes) > 0 {
		if err := json.Unmarshal(detailsBytes, &payment.Details); err != nil {
			return domain.Payment{}, fmt.Errorf("failed to unmarshal payment details: %w", err)
		}
	}

	return payment, nil
}

func marshalDetails(details map[string]string) ([]byte, error) {
	if details == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment details: %w", err)
	}
	return b, nil
}
