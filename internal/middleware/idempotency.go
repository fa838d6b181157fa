package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyLockTTL = 30 * time.Second

// Idempotency replays the cached response for a repeated
// Idempotency-Key and rejects a key whose first request is still in
// flight. Handlers that opt in read the cache/lock keys from the gin
// context to store their response and release the lock.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		employeeID := c.GetString("employee_id")
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), employeeID, idempKey)
		lockKey := cacheKey + ":lock"

		if val, err := rdb.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var cached any
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				c.AbortWithStatusJSON(http.StatusOK, gin.H{"ok": true, "data": cached})
				return
			}
		}

		// Short-lived lock so a crashed worker cannot wedge the key.
		isNew, _ := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()
		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "PROCESSING",
				"message": "a request with this idempotency key is already in progress",
			})
			return
		}

		c.Set("idempotency_cache_key", cacheKey)
		c.Set("idempotency_lock_key", lockKey)

		c.Next()
	}
}
