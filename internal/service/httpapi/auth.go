package httpapi

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const callerContextKey = "storefront.caller"

// DefaultAdminRole — значение claim role, дающее права администратора.
const DefaultAdminRole = "admin"

var errTokenMissing = errors.New("bearer token is required")

// Authenticator проверяет HS256 bearer-токены. Выпуск токенов — забота внешнего сервиса.
type Authenticator struct {
	secret    []byte
	adminRole string
}

// NewAuthenticator создаёт проверку токенов с общим секретом.
func NewAuthenticator(secret, adminRole string) *Authenticator {
	if adminRole == "" {
		adminRole = DefaultAdminRole
	}
	return &Authenticator{secret: []byte(secret), adminRole: adminRole}
}

// Caller разбирает токен: sub — владелец, role == adminRole — администратор.
func (a *Authenticator) Caller(header string) (domain.Caller, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return domain.Caller{}, errTokenMissing
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Caller{}, err
	}
	if !token.Valid {
		return domain.Caller{}, jwt.ErrTokenInvalidClaims
	}

	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return domain.Caller{}, jwt.ErrTokenRequiredClaimMissing
	}
	role, _ := claims["role"].(string)

	return domain.Caller{ID: subject, Admin: role == a.adminRole}, nil
}

// Middleware кладёт domain.Caller в контекст запроса или отвечает 401.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := a.Caller(c.GetHeader("Authorization"))
		if err != nil {
			writeCodedError(c, codeUnauthenticated, "invalid or missing bearer token")
			return
		}
		c.Set(callerContextKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) domain.Caller {
	if v, ok := c.Get(callerContextKey); ok {
		if caller, ok := v.(domain.Caller); ok {
			return caller
		}
	}
	return domain.Caller{}
}
