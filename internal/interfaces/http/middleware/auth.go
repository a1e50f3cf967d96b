package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"project-scaffold-web/internal/metrics"
)

const ownerKey = "Owner"

// Claims JWT 声明，Subject 为项目所有者
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Auth 校验 Bearer JWT。secret 为空时不校验，所有请求视为匿名
type Auth struct {
	secret []byte
}

// NewAuth 创建鉴权中间件
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Enabled 是否开启鉴权
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0
}

// GenerateToken 签发 HS256 令牌
func (a *Auth) GenerateToken(subject, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) validateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// Middleware 校验令牌并把 Subject 写入上下文
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}
		tokenStr := extractToken(c)
		if tokenStr == "" {
			metrics.RecordAuthAttempt(false)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing authentication token"})
			return
		}
		claims, err := a.validateToken(tokenStr)
		if err != nil {
			metrics.RecordAuthAttempt(false)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token: " + err.Error()})
			return
		}
		metrics.RecordAuthAttempt(true)
		c.Set(ownerKey, claims.Subject)
		c.Next()
	}
}

// Owner 返回当前请求的所有者，未开启鉴权时为空
func Owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}
