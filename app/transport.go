package app

import (
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewTransport(lc fx.Lifecycle, log *zap.Logger) http.RoundTripper {
	return &transport{base: http.DefaultTransport, log: log}
}

type transport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (tpt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := tpt.base.RoundTrip(req)

	fields := []any{
		"method", req.Method,
		"host", req.URL.Host,
		"elapsed_msecs", int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		fields = append(fields, "err", err)
	} else {
		fields = append(fields, "status", res.StatusCode)
	}
	tpt.log.Sugar().Debugw("outbound request", fields...)

	return res, err
}
