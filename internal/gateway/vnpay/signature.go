package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureEngine подписывает и проверяет канонические строки
// алгоритмом HMAC-SHA512 с общим секретом шлюза.
type SignatureEngine struct {
	secret []byte
}

// NewSignatureEngine создает новый движок подписи
func NewSignatureEngine(secret string) *SignatureEngine {
	return &SignatureEngine{secret: []byte(secret)}
}

// Sign возвращает hex-дайджест HMAC-SHA512 канонической строки
func (e *SignatureEngine) Sign(data string) string {
	mac := hmac.New(sha512.New, e.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify проверяет предоставленный hex-дайджест против канонической строки.
// Сравнение байтов дайджеста выполняется за константное время: эндпоинт
// коллбэков доступен из интернета, и подпись — единственная его защита.
// Некорректный hex трактуется как провал проверки, не как ошибка.
func (e *SignatureEngine) Verify(data, providedHex string) bool {
	provided, err := hex.DecodeString(providedHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, e.secret)
	mac.Write([]byte(data))
	expected := mac.Sum(nil)

	return hmac.Equal(expected, provided)
}
