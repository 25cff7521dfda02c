package vnpay

import (
	"github.com/thuanng/bookingpay/internal/domain"
)

// Имена параметров протокола VNPay
const (
	ParamVersion       = "vnp_Version"
	ParamCommand       = "vnp_Command"
	ParamTmnCode       = "vnp_TmnCode"
	ParamLocale        = "vnp_Locale"
	ParamCurrCode      = "vnp_CurrCode"
	ParamTxnRef        = "vnp_TxnRef"
	ParamOrderInfo     = "vnp_OrderInfo"
	ParamOrderType     = "vnp_OrderType"
	ParamAmount        = "vnp_Amount"
	ParamReturnURL     = "vnp_ReturnUrl"
	ParamIPAddr        = "vnp_IpAddr"
	ParamCreateDate    = "vnp_CreateDate"
	ParamBankCode      = "vnp_BankCode"
	ParamCardType      = "vnp_CardType"
	ParamPayDate       = "vnp_PayDate"
	ParamTransactionNo = "vnp_TransactionNo"
	ParamResponseCode  = "vnp_ResponseCode"
	ParamSecureHash    = "vnp_SecureHash"
	ParamSecureHashTyp = "vnp_SecureHashType"
)

// ResponseCodeSuccess код успешной транзакции
const ResponseCodeSuccess = "00"

// failureCodes документированные коды отказа шлюза.
// Любой код вне таблицы — повод для ручного разбора, не для перехода.
var failureCodes = map[string]struct{}{
	"01": {}, // заказ не найден на стороне шлюза
	"02": {}, // заказ уже подтвержден
	"04": {}, // некорректная сумма
	"05": {},
	"06": {},
	"07": {}, // подозрение на мошенничество
	"09": {}, // карта не зарегистрирована в интернет-банкинге
	"10": {}, // неверная аутентификация карты
	"11": {}, // истек срок ожидания оплаты
	"12": {}, // карта заблокирована
	"13": {}, // неверный OTP
	"24": {}, // клиент отменил транзакцию
	"51": {}, // недостаточно средств
	"65": {}, // превышен дневной лимит
	"75": {}, // банк на обслуживании
	"79": {}, // превышено число попыток ввода пароля
}

// StatusForResponseCode отображает код ответа шлюза в терминальный
// статус платежа. Неизвестный код возвращает ErrUnrecognizedResponseCode.
func StatusForResponseCode(code string) (domain.PaymentStatus, error) {
	if code == ResponseCodeSuccess {
		return domain.PaymentStatusPaid, nil
	}
	if _, ok := failureCodes[code]; ok {
		return domain.PaymentStatusFailed, nil
	}
	return "", domain.ErrUnrecognizedResponseCode
}
