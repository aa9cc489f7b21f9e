package apitest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// requestIDMiddleware echoes the caller's X-Request-ID, generating one when
// absent
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// faultMiddleware counts hits and applies injected failures and holds
func (b *Backend) faultMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + c.FullPath()

		b.mu.Lock()
		b.hits[route]++
		gate := b.gates[route]
		var status int
		if f, ok := b.failures[route]; ok && f.remaining > 0 {
			f.remaining--
			status = f.status
		}
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

// bearerAuthMiddleware validates the bearer token and injects the user id
func (b *Backend) bearerAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: no bearer token",
			})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return b.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.now))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: invalid token",
			})
			return
		}

		sub, _ := claims.GetSubject()
		b.mu.Lock()
		_, known := b.users[sub]
		b.mu.Unlock()
		if !known {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: unknown user",
			})
			return
		}

		c.Set("user_id", sub)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString("user_id")
}
