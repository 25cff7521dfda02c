package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/internal/gateway/vnpay"
	"github.com/thuanng/bookingpay/internal/kafka/producer"
	"github.com/thuanng/bookingpay/internal/metrics"
	"github.com/thuanng/bookingpay/internal/repository"
	"github.com/thuanng/bookingpay/pkg/logger"
)

const (
	testBookingID = "abc12345-6789-dead-beef-000000000000"
	testReference = "1700000000_abc12345"
	testAmount    = 500000
)

func newReconcilerEnv(t *testing.T) (*Reconciler, *repository.InMemoryStore) {
	t.Helper()

	log := logger.NewWithOutput(logger.ERROR, io.Discard)
	store := repository.NewInMemoryStore(log)

	if _, err := store.CreateBooking(context.Background(), domain.Booking{
		ID:      testBookingID,
		UserID:  "user-1",
		Type:    domain.BookingTypeHotel,
		ItemRef: "HN-101",
		Status:  domain.BookingStatusPending,
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	if _, err := store.CreatePendingPayment(context.Background(), domain.Payment{
		Reference: testReference,
		BookingID: testBookingID,
		Amount:    testAmount,
		Method:    "vnpay",
	}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	return NewReconciler(store, producer.NoOpProducer{}, metrics.NoOpMetrics{}, log), store
}

func successPayload() *vnpay.VerifiedPayload {
	return &vnpay.VerifiedPayload{
		Reference:     testReference,
		Amount:        testAmount,
		ResponseCode:  "00",
		BankCode:      "NCB",
		TransactionNo: "14226112",
		Params: vnpay.Params{
			"vnp_TxnRef":       testReference,
			"vnp_ResponseCode": "00",
			"vnp_BankCode":     "NCB",
		},
	}
}

func failurePayload(code string) *vnpay.VerifiedPayload {
	p := successPayload()
	p.ResponseCode = code
	p.Params["vnp_ResponseCode"] = code
	return p
}

func TestReconcileSuccess(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	result := reconciler.Reconcile(ctx, successPayload(), ChannelIPN)

	if result.Outcome != OutcomePaid {
		t.Fatalf("outcome = %q, want paid", result.Outcome)
	}
	if !result.FirstDelivery {
		t.Fatal("first valid delivery must set FirstDelivery")
	}

	payment, err := store.FindPaymentByReference(ctx, testReference)
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if payment.Status != domain.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid", payment.Status)
	}
	if payment.Details["vnp_BankCode"] != "NCB" {
		t.Fatalf("gateway params not stored in details: %v", payment.Details)
	}

	booking, err := store.FindBookingByID(ctx, testBookingID)
	if err != nil {
		t.Fatalf("find booking: %v", err)
	}
	if booking.Status != domain.BookingStatusPaid {
		t.Fatalf("booking status = %q, want paid", booking.Status)
	}
}

func TestReconcileFailureCode(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	result := reconciler.Reconcile(ctx, failurePayload("24"), ChannelIPN)

	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", result.Outcome)
	}
	if !result.FirstDelivery {
		t.Fatal("first valid delivery must set FirstDelivery")
	}

	payment, _ := store.FindPaymentByReference(ctx, testReference)
	if payment.Status != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %q, want failed", payment.Status)
	}

	booking, _ := store.FindBookingByID(ctx, testBookingID)
	if booking.Status != domain.BookingStatusCancelled {
		t.Fatalf("booking status = %q, want cancelled", booking.Status)
	}
}

func TestReconcileDuplicateDelivery(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	first := reconciler.Reconcile(ctx, successPayload(), ChannelIPN)
	if first.Outcome != OutcomePaid || !first.FirstDelivery {
		t.Fatalf("first delivery: %+v", first)
	}

	second := reconciler.Reconcile(ctx, successPayload(), ChannelIPN)
	if second.Outcome != OutcomeDuplicate {
		t.Fatalf("second delivery outcome = %q, want duplicate_acknowledged", second.Outcome)
	}
	if second.FirstDelivery {
		t.Fatal("replay must not claim FirstDelivery")
	}
	if second.Status != domain.PaymentStatusPaid {
		t.Fatalf("second delivery status = %q, want paid", second.Status)
	}

	booking, _ := store.FindBookingByID(ctx, testBookingID)
	if booking.Status != domain.BookingStatusPaid {
		t.Fatalf("booking status = %q after replay, want paid", booking.Status)
	}
}

func TestReconcileConflictingDelivery(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	if r := reconciler.Reconcile(ctx, successPayload(), ChannelIPN); r.Outcome != OutcomePaid {
		t.Fatalf("setup delivery: %+v", r)
	}

	result := reconciler.Reconcile(ctx, failurePayload("24"), ChannelIPN)

	if result.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %q, want rejected", result.Outcome)
	}
	if !errors.Is(result.Reason, domain.ErrReconciliationConflict) {
		t.Fatalf("reason = %v, want ErrReconciliationConflict", result.Reason)
	}

	// Сохраненное состояние побеждает позднее сообщение
	payment, _ := store.FindPaymentByReference(ctx, testReference)
	if payment.Status != domain.PaymentStatusPaid {
		t.Fatalf("stored status = %q, conflicting delivery must not change it", payment.Status)
	}
	booking, _ := store.FindBookingByID(ctx, testBookingID)
	if booking.Status != domain.BookingStatusPaid {
		t.Fatalf("booking status = %q, conflicting delivery must not change it", booking.Status)
	}
}

func TestReconcileAmountMismatch(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	for _, delta := range []int64{1, -1} {
		payload := successPayload()
		payload.Amount = testAmount + delta

		result := reconciler.Reconcile(ctx, payload, ChannelIPN)
		if result.Outcome != OutcomeRejected {
			t.Fatalf("delta %d: outcome = %q, want rejected", delta, result.Outcome)
		}
		if !errors.Is(result.Reason, domain.ErrAmountMismatch) {
			t.Fatalf("delta %d: reason = %v, want ErrAmountMismatch", delta, result.Reason)
		}
	}

	payment, _ := store.FindPaymentByReference(ctx, testReference)
	if payment.Status != domain.PaymentStatusPending {
		t.Fatalf("payment status = %q, want pending after rejected deliveries", payment.Status)
	}
}

func TestReconcileUnknownReference(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	payload := successPayload()
	payload.Reference = "zzz_999"

	result := reconciler.Reconcile(ctx, payload, ChannelIPN)

	if result.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %q, want rejected", result.Outcome)
	}
	if !errors.Is(result.Reason, domain.ErrUnknownTransaction) {
		t.Fatalf("reason = %v, want ErrUnknownTransaction", result.Reason)
	}

	// Коллбэк никогда не порождает платеж
	if _, err := store.FindPaymentByReference(ctx, "zzz_999"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown reference must not create a payment, got %v", err)
	}
}

func TestReconcileUnrecognizedCode(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	result := reconciler.Reconcile(ctx, failurePayload("42"), ChannelIPN)

	if result.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %q, want rejected", result.Outcome)
	}
	if !errors.Is(result.Reason, domain.ErrUnrecognizedResponseCode) {
		t.Fatalf("reason = %v, want ErrUnrecognizedResponseCode", result.Reason)
	}

	payment, _ := store.FindPaymentByReference(ctx, testReference)
	if payment.Status != domain.PaymentStatusPending {
		t.Fatalf("payment status = %q, want pending until manual review", payment.Status)
	}
}

func TestReconcileReturnAndIPNConverge(t *testing.T) {
	reconciler, _ := newReconcilerEnv(t)
	ctx := context.Background()

	ret := reconciler.Reconcile(ctx, successPayload(), ChannelReturn)
	if ret.Outcome != OutcomePaid || !ret.FirstDelivery {
		t.Fatalf("return delivery: %+v", ret)
	}

	ipn := reconciler.Reconcile(ctx, successPayload(), ChannelIPN)
	if ipn.Outcome != OutcomeDuplicate || ipn.FirstDelivery {
		t.Fatalf("ipn after return: %+v", ipn)
	}
}

func TestReconcileConcurrentDeliveries(t *testing.T) {
	reconciler, store := newReconcilerEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Result, 2)
	payloads := []*vnpay.VerifiedPayload{successPayload(), failurePayload("24")}

	for i := range payloads {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reconciler.Reconcile(ctx, payloads[i], ChannelIPN)
		}(i)
	}
	wg.Wait()

	firstDeliveries := 0
	for _, r := range results {
		if r.FirstDelivery {
			firstDeliveries++
		}
	}
	if firstDeliveries != 1 {
		t.Fatalf("FirstDelivery count = %d, exactly one delivery must win", firstDeliveries)
	}

	payment, _ := store.FindPaymentByReference(ctx, testReference)
	if !payment.Status.IsTerminal() {
		t.Fatalf("payment status = %q, want terminal", payment.Status)
	}

	booking, _ := store.FindBookingByID(ctx, testBookingID)
	if booking.Status != domain.BookingStatusFor(payment.Status) {
		t.Fatalf("booking %q does not mirror payment %q", booking.Status, payment.Status)
	}

	// Проигравшая доставка видит терминальный платеж: результат —
	// либо согласованный повтор, либо конфликт, но не второй переход
	for _, r := range results {
		if r.FirstDelivery {
			continue
		}
		switch r.Outcome {
		case OutcomeDuplicate:
		case OutcomeRejected:
			if !errors.Is(r.Reason, domain.ErrReconciliationConflict) {
				t.Fatalf("losing delivery reason = %v, want ErrReconciliationConflict", r.Reason)
			}
		default:
			t.Fatalf("losing delivery outcome = %q", r.Outcome)
		}
	}
}
