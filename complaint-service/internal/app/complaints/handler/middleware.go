package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"reviewguard/complaint-service/internal/app/complaints/service"
	"reviewguard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	headerStoreID      = "X-Store-ID"
	headerExtensionKey = "X-Extension-Key"
)

// JWTClaims - claims токена оператора
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет JWT токен оператора
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Формат "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set(logger.FieldUserID, claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role_name", claims.RoleName)

		c.Next()
	}
}

// ExtensionAuthMiddleware - браузерное расширение авторизуется ключом магазина
type ExtensionAuthMiddleware struct {
	extensionService ExtensionServiceInterface
}

func NewExtensionAuthMiddleware(extensionService ExtensionServiceInterface) *ExtensionAuthMiddleware {
	return &ExtensionAuthMiddleware{
		extensionService: extensionService,
	}
}

func (m *ExtensionAuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, err := uuid.Parse(c.GetHeader(headerStoreID))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Store-ID header required"})
			c.Abort()
			return
		}

		key := c.GetHeader(headerExtensionKey)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Extension-Key header required"})
			c.Abort()
			return
		}

		store, err := m.extensionService.Authenticate(c.Request.Context(), storeID, key)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidExtensionKey) {
				logger.Error().Err(err).Str("store_id", storeID.String()).Msg("Extension authentication failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
				c.Abort()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid extension key"})
			c.Abort()
			return
		}

		c.Set(logger.FieldStoreID, store.ID)
		c.Next()
	}
}
