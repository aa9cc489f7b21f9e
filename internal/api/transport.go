package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// loggingTransport logs every outgoing request with its outcome
type loggingTransport struct {
	base http.RoundTripper
	log  *zap.Logger
}

// NewLoggingTransport wraps base so each round trip is logged
func NewLoggingTransport(base http.RoundTripper, log *zap.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base, log: log}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	latency := time.Since(start)

	fields := []zap.Field{
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Float64("latency_ms", float64(latency.Microseconds())/1000),
	}
	if req.URL.RawQuery != "" {
		fields = append(fields, zap.String("query", req.URL.RawQuery))
	}

	if err != nil {
		t.log.Warn("Request failed - network error", append(fields, zap.Error(err))...)
		return nil, err
	}

	fields = append(fields, zap.Int("status", resp.StatusCode))
	switch {
	case resp.StatusCode >= 500:
		t.log.Error("Request failed - server error", fields...)
	case resp.StatusCode >= 400:
		t.log.Warn("Request failed - client error", fields...)
	default:
		t.log.Debug("Request completed", fields...)
	}
	return resp, nil
}
