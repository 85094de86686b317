// Package middleware provides request scoped HTTP middleware for the hymnbook API.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when Redis is unavailable.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// Limit is a fixed window quota on one named action.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	Policy FailPolicy
}

// Predefined quotas for the write endpoints.
var (
	RegisterLimit = Limit{Name: "register", Max: 3, Window: 10 * time.Minute}
	LoginLimit    = Limit{Name: "login", Max: 10, Window: 5 * time.Minute}
	SubmitLimit   = Limit{Name: "submit", Max: 10, Window: 10 * time.Minute}
)

// Quota is the outcome of one Consume call.
type Quota struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

var errNoStore = errors.New("rate limit store not configured")

func throttlingEnabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return false
	}
	return true
}

// Consume counts one request by caller against l. Outside of staging and
// production every request is allowed without touching Redis.
func Consume(ctx context.Context, rdb *redis.Client, l Limit, caller string) (Quota, error) {
	if !throttlingEnabled() {
		return Quota{Allowed: true, Remaining: l.Max}, nil
	}
	if rdb == nil {
		return Quota{}, errNoStore
	}

	key := fmt.Sprintf("rl:%s:%s", l.Name, caller)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	}); err != nil {
		return Quota{}, err
	}

	resetIn := ttl.Val()
	if incr.Val() == 1 || resetIn < 0 {
		if err := rdb.PExpire(ctx, key, l.Window).Err(); err != nil {
			return Quota{}, err
		}
		resetIn = l.Window
	}

	used := int(incr.Val())
	q := Quota{Allowed: used <= l.Max, Remaining: l.Max - used, ResetIn: resetIn}
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	return q, nil
}

// callerKey identifies the caller by user id when authenticated and by IP otherwise.
func callerKey(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "ip:" + c.IP()
}

// RateLimit enforces l per caller and reports the quota in X-RateLimit headers.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := Consume(c.UserContext(), rdb, l, callerKey(c))
		if err != nil {
			if l.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
					"limit", l.Name, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Rate limiting unavailable",
					"code":  "UNAVAILABLE",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
		if !q.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(q.ResetIn.Round(time.Second).Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, try again later",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
