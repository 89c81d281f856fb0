package httpapi

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultRateLimitWindow      = 15 * time.Minute
	defaultRateLimitMaxRequests = 100

	errorMessageRateLimited = "Too many requests. Please try again later."
)

// RequestLogger logs one structured line per handled request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
		)
	}
}

// RateLimiter applies a fixed-window request budget per client IP ahead of
// all endpoints.
type RateLimiter struct {
	window                    time.Duration
	maxRequestsPerIPPerWindow int
	countersMutex             sync.Mutex
	countersByIP              map[string]int
	windowStart               time.Time
}

// NewRateLimiter creates a RateLimiter with the default window of one hundred
// requests per fifteen minutes.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		window:                    defaultRateLimitWindow,
		maxRequestsPerIPPerWindow: defaultRateLimitMaxRequests,
		countersByIP:              make(map[string]int),
		windowStart:               time.Now(),
	}
}

// WithLimits overrides the window and per-window budget.
func (limiter *RateLimiter) WithLimits(window time.Duration, maxRequestsPerIPPerWindow int) *RateLimiter {
	limiter.window = window
	limiter.maxRequestsPerIPPerWindow = maxRequestsPerIPPerWindow
	return limiter
}

// Middleware rejects requests over the per-client budget with status 429.
func (limiter *RateLimiter) Middleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		if limiter.isRateLimited(context.ClientIP()) {
			context.AbortWithStatusJSON(429, gin.H{"error": errorMessageRateLimited})
			return
		}
		context.Next()
	}
}

func (limiter *RateLimiter) isRateLimited(clientIP string) bool {
	limiter.countersMutex.Lock()
	defer limiter.countersMutex.Unlock()

	currentTime := time.Now()
	if currentTime.Sub(limiter.windowStart) >= limiter.window {
		limiter.countersByIP = make(map[string]int)
		limiter.windowStart = currentTime
	}

	limiter.countersByIP[clientIP]++
	return limiter.countersByIP[clientIP] > limiter.maxRequestsPerIPPerWindow
}
