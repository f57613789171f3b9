package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	idempotencyKeyHeader   = "Idempotency-Key"
	idempotentReplayHeader = "Idempotent-Replayed"
	defaultIdempotencyTTL  = 24 * time.Hour
)

// withIdempotency выполняет run не более одного раза на ключ. Повтор с тем же телом
// получает сохранённый ответ, с другим телом или во время обработки — 409.
func (h *Handler) withIdempotency(c *gin.Context, operation string, caller domain.Caller, req any, run func() (int, any)) {
	key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
	if key == "" || h.idempotency == nil {
		status, body := run()
		c.Data(status, "application/json; charset=utf-8", mustJSON(body))
		return
	}

	reqHash, err := requestHash(operation, caller, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	scopedKey := domain.ScopedIdempotencyKey(caller.ID, key)

	record, err := h.idempotency.CreateProcessing(scopedKey, reqHash, time.Now().UTC().Add(h.idemTTL))
	if err != nil {
		h.replay(c, err, record)
		return
	}

	status, body := run()
	data := mustJSON(body)

	if status < http.StatusBadRequest {
		err = h.idempotency.MarkDone(scopedKey, data, status)
	} else {
		err = h.idempotency.MarkFailed(scopedKey, data, status)
	}
	if err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func (h *Handler) replay(c *gin.Context, createErr error, record domain.IdempotencyRecord) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		writeCodedError(c, domain.CodeConflict, "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch {
		case record.Replayable():
			c.Header(idempotentReplayHeader, "true")
			c.Data(record.HTTPStatus, "application/json; charset=utf-8", record.ResponseBody)
		case record.Status.Finished():
			writeError(c, h.logger, errors.New("idempotency cache is empty"))
		case record.Status == domain.IdempotencyStatusProcessing:
			writeCodedError(c, domain.CodeConflict, "request with the same idempotency key is already processing")
		default:
			writeError(c, h.logger, errors.New("unknown idempotency record status"))
		}
	default:
		writeError(c, h.logger, createErr)
	}
}

func requestHash(operation string, caller domain.Caller, req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	payload := make([]byte, 0, len(operation)+len(caller.ID)+2+len(data))
	payload = append(payload, operation...)
	payload = append(payload, ':')
	payload = append(payload, caller.ID...)
	payload = append(payload, ':')
	payload = append(payload, data...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
