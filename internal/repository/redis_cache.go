package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/pkg/logger"
)

const (
	paymentKeyPrefix = "payment:"

	// TTL для кэша статусов
	defaultCacheTTL = 5 * time.Minute
)

// RedisCache хранит статусы платежей в Redis для пути отображения.
// Сверка всегда ходит в первичное хранилище.
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCache создает новый Redis-кэш
func NewRedisCache(addr, password string, db int, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		log:    log,
	}, nil
}

// GetPayment возвращает закэшированный платеж, domain.ErrNotFound при промахе
func (c *RedisCache) GetPayment(ctx context.Context, reference string) (domain.Payment, error) {
	data, err := c.client.Get(ctx, paymentKeyPrefix+reference).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, fmt.Errorf("failed to get payment from cache: %w", err)
	}

	var payment domain.Payment
	if err := json.Unmarshal(data, &payment); err != nil {
		return domain.Payment{}, fmt.Errorf("failed to unmarshal cached payment: %w", err)
	}

	return payment, nil
}

// SetPayment кладет платеж в кэш
func (c *RedisCache) SetPayment(ctx context.Context, payment domain.Payment) error {
	data, err := json.Marshal(payment)
	if err != nil {
		return fmt.Errorf("failed to marshal payment for cache: %w", err)
	}

	return c.client.Set(ctx, paymentKeyPrefix+payment.Reference, data, defaultCacheTTL).Err()
}

// InvalidatePayment убирает платеж из кэша
func (c *RedisCache) InvalidatePayment(ctx context.Context, reference string) error {
	return c.client.Del(ctx, paymentKeyPrefix+reference).Err()
}

// Close закрывает подключение к Redis
func (c *RedisCache) Close() error {
	return c.client.Close()
}
