package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Ключи контекста gin
const (
	ContextOperatorKey = "operator"
	contextValidated   = "operator_validated"
)

// APIKeyConfig ключи операторов HTTP API.
// Это не API ключ аккаунта Links API (тот хранится в книге, Account Details!E1).
type APIKeyConfig struct {
	// ValidKeys ключ -> имя оператора
	ValidKeys map[string]string
	// HeaderName по умолчанию X-API-Key
	HeaderName string
}

// APIKey аутентификация операторов
type APIKey struct {
	config APIKeyConfig
}

func NewAPIKey(config APIKeyConfig) *APIKey {
	if config.HeaderName == "" {
		config.HeaderName = "X-API-Key"
	}
	return &APIKey{config: config}
}

// Enabled false, если ключи не настроены (API открыт)
func (ak *APIKey) Enabled() bool {
	return len(ak.config.ValidKeys) > 0
}

// Middleware ключ берётся из заголовка или Authorization: Bearer.
// Query параметр не поддерживается: путь с ключом попал бы в журнал запросов.
func (ak *APIKey) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ak.Enabled() {
			c.Next()
			return
		}

		key := c.GetHeader(ak.config.HeaderName)
		if key == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_api_key",
				"message": "Требуется ключ оператора в заголовке " + ak.config.HeaderName + " или Authorization: Bearer",
			})
			return
		}

		name, ok := ak.lookup(key)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_api_key",
				"message": "Невалидный ключ оператора",
			})
			return
		}

		c.Set(contextValidated, true)
		c.Set(ContextOperatorKey, name)
		c.Next()
	}
}

// lookup сравнение за постоянное время, перебираются все ключи
func (ak *APIKey) lookup(key string) (string, bool) {
	var (
		name  string
		found bool
	)
	for valid, n := range ak.config.ValidKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			name, found = n, true
		}
	}
	return name, found
}

// Operator имя оператора из контекста; пустая строка для открытого API
func Operator(c *gin.Context) string {
	if v, ok := c.Get(ContextOperatorKey); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// IsAuthenticated ключ оператора проверен
func IsAuthenticated(c *gin.Context) bool {
	v, ok := c.Get(contextValidated)
	if !ok {
		return false
	}
	validated, _ := v.(bool)
	return validated
}
