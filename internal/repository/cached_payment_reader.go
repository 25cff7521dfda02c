package repository

import (
	"context"
	"errors"

	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// CachedPaymentReader декоратор чтения платежей с Redis-кэшем.
// Обслуживает только путь отображения статуса: реконсилятор работает
// с первичным хранилищем напрямую, сохраненное состояние должно
// побеждать в гонках, а не кэш.
type CachedPaymentReader struct {
	base  PaymentReader
	cache *RedisCache
	log   *logger.Logger
}

// NewCachedPaymentReader создает читателя платежей с кэшированием
func NewCachedPaymentReader(base PaymentReader, cache *RedisCache, log *logger.Logger) *CachedPaymentReader {
	return &CachedPaymentReader{
		base:  base,
		cache: cache,
		log:   log,
	}
}

// FindPaymentByReference возвращает платеж, сперва пробуя кэш.
// Терминальные платежи кэшируются: они больше не меняются.
func (r *CachedPaymentReader) FindPaymentByReference(ctx context.Context, reference string) (domain.Payment, error) {
	payment, err := r.cache.GetPayment(ctx, reference)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		r.log.Warn("Payment cache read failed, falling back to store: %v", err)
	}

	payment, err = r.base.FindPaymentByReference(ctx, reference)
	if err != nil {
		return domain.Payment{}, err
	}

	if payment.Status.IsTerminal() {
		if cacheErr := r.cache.SetPayment(ctx, payment); cacheErr != nil {
			r.log.Warn("Failed to cache payment %s: %v", reference, cacheErr)
		}
	}

	return payment, nil
}
