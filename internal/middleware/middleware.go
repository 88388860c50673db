package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"quashMarket/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const RequestIdKey contextKey = "request_id"

const accessKey contextKey = "access"

// входящий X-Request-ID длиннее этого заменяется своим
const maxRequestIDLen = 64

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" || len(requestId) > maxRequestIDLen {
			requestId = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestId)

		ctx := context.WithValue(r.Context(), RequestIdKey, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// access собирает сведения о запросе от нижележащих middleware: Auth пишет
// вызывающего, RateLimit отмечает отказ. Logging выводит их одной записью.
type access struct {
	userID  uuid.UUID
	limited bool
}

func accessFrom(ctx context.Context) *access {
	a, _ := ctx.Value(accessKey).(*access)
	return a
}

func noteUser(ctx context.Context, userID uuid.UUID) {
	if a := accessFrom(ctx); a != nil {
		a.userID = userID
	}
}

func noteLimited(ctx context.Context) {
	if a := accessFrom(ctx); a != nil {
		a.limited = true
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
		sw.ResponseWriter.WriteHeader(code)
	}
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}

	n, err := sw.ResponseWriter.Write(b)
	sw.size += n
	return n, err
}

// Logging пишет одну запись на запрос: маршрут chi, статус, вызывающий и отказ по лимиту
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &access{}
		r = r.WithContext(context.WithValue(r.Context(), accessKey, info))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", routePattern(r)),
			zap.String("client_ip", getIp(r)),
			zap.Int("status", sw.status),
			zap.Int("bytes_written", sw.size),
			zap.Duration("duration", time.Since(start)),
		}
		if info.userID != uuid.Nil {
			fields = append(fields, zap.String("user_id", info.userID.String()))
		}
		if info.limited {
			fields = append(fields, zap.Bool("rate_limited", true))
		}

		logLevel := zap.InfoLevel
		if sw.status >= 400 && sw.status < 500 {
			logLevel = zap.WarnLevel
		} else if sw.status >= 500 {
			logLevel = zap.ErrorLevel
		}
		logger.Log(logLevel, "HTTP_OUT: Завершение запроса", fields...)
	})
}

// routePattern - шаблон маршрута chi (/tasks/{id}) вместо пути с идентификаторами
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

// Decision - результат проверки лимита для одного запроса
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Limit() int
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter - лимит запросов в пределах одного процесса
type MemoryLimiter struct {
	mtx     sync.Mutex
	clients map[string]*clientInfo
	limit   int
	window  time.Duration
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		clients: make(map[string]*clientInfo),
		limit:   limit,
		window:  window,
	}
}

func (l *MemoryLimiter) Limit() int {
	return l.limit
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := time.Now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	info, exists := l.clients[key]
	if !exists || now.After(info.resetAt) {
		info = &clientInfo{count: 0, resetAt: now.Add(l.window)}
		l.clients[key] = info
	}

	if info.count >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: info.resetAt}, nil
	}
	info.count++

	return Decision{Allowed: true, Remaining: l.limit - info.count, ResetAt: info.resetAt}, nil
}

// RateLimit ограничивает число запросов с одного IP. Ошибка хранилища лимитов
// не блокирует запрос.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			decision, err := limiter.Allow(r.Context(), getIp(r))
			if err != nil {
				logger.Warn("HTTP: Ошибка проверки лимита запросов",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				noteLimited(r.Context())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Слишком много запросов. Попробуйте позже.",
					"retry_after": int(decision.ResetAt.Sub(now).Seconds()),
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
