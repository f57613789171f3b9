package domain

import "time"

// IdempotencyStatus — состояние повторно используемого запроса оформления заказа.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing — заказ по ключу ещё оформляется.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone — заказ оформлен, ответ сохранён для повторов.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed — оформление отклонено, ответ с ошибкой тоже повторяется.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// IdempotencyRecord — сохранённый результат POST /orders для конкретного Idempotency-Key.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// Finished сообщает, что запрос завершён и его ответ можно отдать повторно.
func (s IdempotencyStatus) Finished() bool {
	return s == IdempotencyStatusDone || s == IdempotencyStatusFailed
}

// Replayable — запись завершена и содержит ответ.
func (r IdempotencyRecord) Replayable() bool {
	return r.Status.Finished() && r.HTTPStatus != 0 && len(r.ResponseBody) > 0
}

// Expired сообщает, что срок хранения ключа истёк к моменту now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.TTLAt.After(now)
}

// ScopedIdempotencyKey привязывает ключ клиента к владельцу, чтобы покупатели
// не получали ответы друг друга.
func ScopedIdempotencyKey(ownerID, key string) string {
	return ownerID + ":" + key
}
