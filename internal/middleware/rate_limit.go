package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"assistance_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	ChatMaxRequests  = 30 // par minute et par IP
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute
)

// ChatRateLimit limite les messages de chat par IP (anti-abus du LLM).
func ChatRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		ip := c.ClientIP()
		key := "chat_requests:" + ip

		requests, _ := database.Redis.Get(ctx, key).Int()
		if requests >= ChatMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many messages. Please wait a minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		// Incrémenter le compteur
		pipe := database.Redis.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 1*time.Minute)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", ChatMaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", ChatMaxRequests-requests-1))

		c.Next()
	}
}

// LoginRateLimit limite les tentatives de connexion admin par IP.
func LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		ip := c.ClientIP()
		key := "admin_login_attempts:" + ip

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= LoginMaxAttempts {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Too many failed attempts. Retry in %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		// Échec de login : incrémenter ; succès : repartir de zéro
		if c.Writer.Status() == http.StatusUnauthorized {
			pipe := database.Redis.Pipeline()
			pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, LoginCooldown)
			pipe.Exec(ctx)
		} else if c.Writer.Status() == http.StatusOK {
			database.Redis.Del(ctx, key)
		}
	}
}
