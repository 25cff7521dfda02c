package service

import (
	"context"
	"errors"

	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/internal/gateway/vnpay"
	"github.com/thuanng/bookingpay/internal/kafka/producer"
	"github.com/thuanng/bookingpay/internal/metrics"
	"github.com/thuanng/bookingpay/internal/repository"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// Channel канал доставки коллбэка
type Channel string

const (
	// ChannelReturn браузерный возврат: ненадежный, видимый пользователю
	ChannelReturn Channel = "return"
	// ChannelIPN серверное уведомление: шлюз повторяет его до подтверждения,
	// единственный авторитетный канал
	ChannelIPN Channel = "ipn"
)

// Outcome исход сверки
type Outcome string

const (
	OutcomePaid      Outcome = "paid"
	OutcomeFailed    Outcome = "failed"
	OutcomeDuplicate Outcome = "duplicate_acknowledged"
	OutcomeRejected  Outcome = "rejected"
)

// Result результат сверки. FirstDelivery истинно только если переход
// вызван именно этим вызовом: лишь тогда вызывающий вправе показать
// пользователю подтверждение. Повторные доставки подтверждаются шлюзу
// без пользовательских эффектов.
type Result struct {
	Outcome       Outcome
	Status        domain.PaymentStatus
	FirstDelivery bool
	Reason        error // заполнен для OutcomeRejected
}

// Reconciler владеет переходами пары платеж/бронирование.
// Оба канала уведомлений сходятся сюда: правило сверки определено один раз.
type Reconciler struct {
	store    repository.PaymentStore
	producer producer.PaymentProducer
	metrics  metrics.PaymentMetrics
	log      *logger.Logger
}

// NewReconciler создает новый реконсилятор
func NewReconciler(store repository.PaymentStore, prod producer.PaymentProducer, m metrics.PaymentMetrics, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		producer: prod,
		metrics:  m,
		log:      log,
	}
}

// Reconcile сверяет проверенный коллбэк с сохраненным платежом и,
// при первом валидном терминальном сигнале, атомарно переводит платеж
// и зеркалит бронирование.
//
// Машина состояний: Pending -> {Paid, Failed}, оба терминальны.
// Повторная доставка для терминального платежа подтверждается
// идемпотентно; противоречащая доставка отклоняется — сохраненное
// состояние всегда побеждает позднее сообщение.
func (r *Reconciler) Reconcile(ctx context.Context, payload *vnpay.VerifiedPayload, channel Channel) Result {
	payment, err := r.store.FindPaymentByReference(ctx, payload.Reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Коллбэк никогда не порождает платеж
			return r.reject(ctx, payload.Reference, channel, domain.ErrUnknownTransaction, "")
		}
		return r.reject(ctx, payload.Reference, channel, err, "")
	}

	asserted, codeErr := vnpay.StatusForResponseCode(payload.ResponseCode)

	if payment.Status.IsTerminal() {
		return r.resolveDuplicate(ctx, payment, asserted, codeErr, channel)
	}

	// Платеж еще Pending: сверяем сумму до любого перехода.
	// Расхождение — подозрительное событие для разбора, не повод для повтора.
	if payload.Amount != payment.Amount {
		r.log.Warn("Amount mismatch for %s: stored=%d callback=%d", payment.Reference, payment.Amount, payload.Amount)
		return r.reject(ctx, payment.Reference, channel, domain.ErrAmountMismatch, payment.Status)
	}

	if codeErr != nil {
		// Неизвестный код ответа: платеж остается Pending до ручного разбора
		r.log.Warn("Unrecognized response code %q for %s", payload.ResponseCode, payment.Reference)
		return r.reject(ctx, payment.Reference, channel, codeErr, payment.Status)
	}

	updated, err := r.store.TransitionPayment(ctx, payment.Reference, asserted, payload.Details())
	if err != nil {
		if errors.Is(err, domain.ErrPaymentFinalized) {
			// Проигрыш гонки: конкурирующая доставка перевела платеж первой
			return r.resolveDuplicate(ctx, updated, asserted, nil, channel)
		}
		r.log.Error("Failed to transition payment %s: %v", payment.Reference, err)
		return r.reject(ctx, payment.Reference, channel, err, payment.Status)
	}

	return r.applied(ctx, updated, channel)
}

// applied оформляет результат перехода, вызванного этим вызовом
func (r *Reconciler) applied(ctx context.Context, payment domain.Payment, channel Channel) Result {
	var outcome Outcome
	if payment.Status == domain.PaymentStatusPaid {
		outcome = OutcomePaid
		if err := r.producer.PublishPaymentPaid(ctx, payment, string(channel)); err != nil {
			// Переход уже зафиксирован; событие только для наблюдателей
			r.log.Error("Failed to publish payment.paid for %s: %v", payment.Reference, err)
		}
	} else {
		outcome = OutcomeFailed
		if err := r.producer.PublishPaymentFailed(ctx, payment, string(channel)); err != nil {
			r.log.Error("Failed to publish payment.failed for %s: %v", payment.Reference, err)
		}
	}

	r.metrics.IncReconciliation(string(channel), string(outcome))
	r.metrics.ObservePaymentAmount(float64(payment.Amount), string(payment.Status))

	r.log.Info("Payment %s reconciled to %s via %s", payment.Reference, payment.Status, channel)

	return Result{
		Outcome:       outcome,
		Status:        payment.Status,
		FirstDelivery: true,
	}
}

// resolveDuplicate обрабатывает доставку для уже терминального платежа.
// Согласованный повтор подтверждается без повторных эффектов;
// противоречие фиксируется как конфликт, состояние не трогается.
func (r *Reconciler) resolveDuplicate(ctx context.Context, payment domain.Payment, asserted domain.PaymentStatus, codeErr error, channel Channel) Result {
	if codeErr == nil && asserted == payment.Status {
		r.metrics.IncReconciliation(string(channel), string(OutcomeDuplicate))
		r.log.Debug("Duplicate delivery acknowledged for %s (status=%s)", payment.Reference, payment.Status)
		return Result{
			Outcome: OutcomeDuplicate,
			Status:  payment.Status,
		}
	}

	return r.reject(ctx, payment.Reference, channel, domain.ErrReconciliationConflict, payment.Status)
}

// reject оформляет отклоненную сверку и публикует конфликт для оператора
func (r *Reconciler) reject(ctx context.Context, reference string, channel Channel, reason error, status domain.PaymentStatus) Result {
	rerr := domain.NewReconciliationError(reference, string(channel), reason)
	r.log.Warn("Reconciliation rejected: %v", rerr)

	r.metrics.IncReconciliation(string(channel), string(OutcomeRejected))

	if err := r.producer.PublishReconciliationConflict(ctx, reference, string(channel), reason.Error()); err != nil {
		r.log.Error("Failed to publish payment.conflict for %s: %v", reference, err)
	}

	return Result{
		Outcome: OutcomeRejected,
		Status:  status,
		Reason:  rerr,
	}
}
