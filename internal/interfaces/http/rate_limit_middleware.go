package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"golang.org/x/time/rate"
)

// StoreRateLimiter limita las peticiones por tienda para que una caja no sature a las demás.
type StoreRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	entryTTL time.Duration
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewStoreRateLimiter construye el limitador. rps <= 0 deshabilita el límite.
func NewStoreRateLimiter(rps float64, burst int) *StoreRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &StoreRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		entryTTL: 10 * time.Minute,
		now:      time.Now,
	}
}

func (rl *StoreRateLimiter) limiter(storeID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if e, ok := rl.limiters[storeID]; ok {
		e.lastSeen = now
		return e.limiter
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[storeID] = &limiterEntry{limiter: l, lastSeen: now}
	return l
}

// Cleanup elimina los limitadores sin uso reciente. Se invoca periódicamente desde Run.
func (rl *StoreRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.entryTTL)
	for id, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, id)
		}
	}
}

// Run limpia entradas cada interval hasta que se cierre stop.
func (rl *StoreRateLimiter) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-stop:
			return
		}
	}
}

// Middleware aplica el límite por tienda. Debe ir después de AuthMiddleware.
func (rl *StoreRateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID := GetStoreID(c)
		if rl.rate <= 0 || storeID == "" {
			return c.Next()
		}
		l := rl.limiter(storeID)
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		if !l.Allow() {
			c.Set("X-RateLimit-Remaining", "0")
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas peticiones, intente más tarde"})
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))
		return c.Next()
	}
}
