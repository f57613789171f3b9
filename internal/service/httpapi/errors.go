package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const codeUnauthenticated = "unauthenticated"

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ProductID string `json:"product_id,omitempty"`
	Available *int32 `json:"available,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// statusFor отображает категорию ошибки на HTTP-статус.
func statusFor(code string) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeForbidden:
		return http.StatusForbidden
	case codeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse строит статус и тело ответа для ошибки сервиса.
// Текст внутренних ошибок наружу не отдаётся.
func errorResponse(logger *log.Entry, err error) (int, errorEnvelope) {
	code := domain.ErrorCode(err)
	body := errorBody{Code: code, Message: err.Error()}

	if conflict, ok := domain.AsStockConflict(err); ok {
		available := conflict.Available
		body.ProductID = conflict.ProductID
		body.Available = &available
	}
	if code == domain.CodeInternal {
		logger.WithError(err).Error("request failed")
		body.Message = "internal error"
	}
	return statusFor(code), errorEnvelope{Error: body}
}

func writeError(c *gin.Context, logger *log.Entry, err error) {
	status, body := errorResponse(logger, err)
	c.AbortWithStatusJSON(status, body)
}

func writeCodedError(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(statusFor(code), errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}
