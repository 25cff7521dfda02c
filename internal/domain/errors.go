package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate дубликат записи
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrSignatureMalformed коллбэк не содержит обязательных полей,
	// проверка подписи не имеет смысла
	ErrSignatureMalformed = errors.New("callback payload malformed")

	// ErrSignatureInvalid подпись коллбэка не совпала
	ErrSignatureInvalid = errors.New("callback signature invalid")

	// ErrDuplicateReference референс транзакции уже занят живым платежом
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrUnknownTransaction коллбэк ссылается на неизвестный платеж.
	// Платеж по коллбэку никогда не создается.
	ErrUnknownTransaction = errors.New("unknown transaction reference")

	// ErrAmountMismatch сумма в коллбэке не совпала с сохраненной
	ErrAmountMismatch = errors.New("callback amount mismatch")

	// ErrUnrecognizedResponseCode код ответа шлюза не входит в известную таблицу
	ErrUnrecognizedResponseCode = errors.New("unrecognized gateway response code")

	// ErrReconciliationConflict повторная доставка утверждает статус,
	// противоречащий сохраненному терминальному. Сохраненное состояние побеждает.
	ErrReconciliationConflict = errors.New("reconciliation conflict")

	// ErrPaymentFinalized платеж уже в терминальном статусе,
	// переход невозможен (проигрыш гонки двух доставок)
	ErrPaymentFinalized = errors.New("payment already finalized")
)

// ReconciliationError представляет ошибку сверки платежа с контекстом
type ReconciliationError struct {
	Reference string
	Channel   string
	Err       error
}

// Error реализует интерфейс error
func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed [%s, channel=%s]: %v", e.Reference, e.Channel, e.Err)
}

// Unwrap возвращает оригинальную ошибку
func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// NewReconciliationError создает новую ошибку сверки
func NewReconciliationError(reference, channel string, err error) *ReconciliationError {
	return &ReconciliationError{
		Reference: reference,
		Channel:   channel,
		Err:       err,
	}
}
