package vnpay

import (
	"net/url"
	"sort"
	"strings"
)

// Params плоский набор строковых параметров запроса или коллбэка.
// Ключ с пустым значением участвует в подписи; отсутствующий ключ
// не сериализуется вовсе.
type Params map[string]string

// Clone возвращает копию набора параметров
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// sortedKeys возвращает ключи, отсортированные по байтам по возрастанию
func sortedKeys(p Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SignData возвращает каноническую строку для HMAC:
// пары key=value, отсортированные по ключу, соединенные через "&",
// значения без percent-кодирования. Конвенция шлюза: подписывается
// именно некодированная строка.
func SignData(p Params) string {
	var b strings.Builder
	for i, k := range sortedKeys(p) {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p[k])
	}
	return b.String()
}

// Render возвращает обе сериализации из одного отсортированного списка:
// каноническую строку для подписи и percent-кодированную строку запроса.
// Один проход исключает расхождение порядка между подписанной строкой
// и передаваемым URL.
func Render(p Params) (signData, query string) {
	var sd, q strings.Builder
	for i, k := range sortedKeys(p) {
		if i > 0 {
			sd.WriteByte('&')
			q.WriteByte('&')
		}
		sd.WriteString(k)
		sd.WriteByte('=')
		sd.WriteString(p[k])

		q.WriteString(url.QueryEscape(k))
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(p[k]))
	}
	return sd.String(), q.String()
}
