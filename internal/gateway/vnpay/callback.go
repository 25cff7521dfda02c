package vnpay

import (
	"fmt"
	"strconv"

	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// VerifiedPayload коллбэк, прошедший проверку подписи.
// Живет в пределах одного вызова сверки и не сохраняется.
type VerifiedPayload struct {
	Reference     string
	Amount        int64 // в минимальных единицах шлюза, как vnp_Amount
	ResponseCode  string
	BankCode      string
	TransactionNo string
	PayDate       string
	CardType      string
	Params        Params // все подписанные параметры, для блоба деталей
}

// Details возвращает параметры шлюза для сохранения в платеже
func (p *VerifiedPayload) Details() map[string]string {
	return map[string]string(p.Params)
}

// CallbackVerifier проверяет подпись входящих коллбэков обоих каналов:
// браузерного возврата и серверного уведомления. Процедура одна,
// различаются только последствия после проверки.
type CallbackVerifier struct {
	signer *SignatureEngine
	log    *logger.Logger
}

// NewCallbackVerifier создает новый верификатор коллбэков
func NewCallbackVerifier(signer *SignatureEngine, log *logger.Logger) *CallbackVerifier {
	return &CallbackVerifier{
		signer: signer,
		log:    log,
	}
}

// Verify извлекает подпись из набора параметров, заново канонизирует
// остаток и сверяет дайджесты. Сама подпись никогда не входит
// в подписываемую строку.
//
// Отсутствие обязательных полей (референс, сумма, код ответа) дает
// ErrSignatureMalformed до любой криптографии: канонизация неполного
// набора не имеет смысла. Несовпадение дайджеста дает ErrSignatureInvalid.
func (v *CallbackVerifier) Verify(raw Params) (*VerifiedPayload, error) {
	signed := raw.Clone()

	providedHash := signed[ParamSecureHash]
	delete(signed, ParamSecureHash)
	delete(signed, ParamSecureHashTyp)

	if providedHash == "" {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrSignatureMalformed, ParamSecureHash)
	}

	reference := signed[ParamTxnRef]
	rawAmount := signed[ParamAmount]
	responseCode := signed[ParamResponseCode]
	if reference == "" || rawAmount == "" || responseCode == "" {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrSignatureMalformed)
	}

	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable amount %q", domain.ErrSignatureMalformed, rawAmount)
	}

	if !v.signer.Verify(SignData(signed), providedHash) {
		v.log.Warn("Rejected callback with invalid signature: reference=%s", reference)
		return nil, domain.ErrSignatureInvalid
	}

	return &VerifiedPayload{
		Reference:     reference,
		Amount:        amount,
		ResponseCode:  responseCode,
		BankCode:      signed[ParamBankCode],
		TransactionNo: signed[ParamTransactionNo],
		PayDate:       signed[ParamPayDate],
		CardType:      signed[ParamCardType],
		Params:        signed,
	}, nil
}
