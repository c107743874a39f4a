package client

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/okian/creditscore/pkg/logger"
	"github.com/rs/xid"
)

// RequestIDHeader is set on every outgoing request.
const RequestIDHeader = "X-Request-ID"

// LoggingRoundTripper implements http.RoundTripper and logs each exchange
// under a fresh request id. Full dumps are logged at debug level.
type LoggingRoundTripper struct {
	next   http.RoundTripper
	logger logger.Logger
	dump   bool
}

// NewLoggingRoundTripper returns a new logging RoundTripper instance.
func NewLoggingRoundTripper(next http.RoundTripper, l logger.Logger, dump bool) LoggingRoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return LoggingRoundTripper{next: next, logger: l, dump: dump}
}

// RoundTrip implements http.RoundTripper.
func (rt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	requestID := xid.New().String()

	req = req.Clone(ctx)
	req.Header.Set(RequestIDHeader, requestID)

	if rt.dump {
		if b, err := httputil.DumpRequestOut(req, true); err == nil {
			rt.logger.Debug(ctx, "http request",
				logger.String("request_id", requestID),
				logger.String("dump", string(b)),
			)
		}
	}

	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		rt.logger.Debug(ctx, "http request failed",
			logger.String("request_id", requestID),
			logger.String("url", req.URL.String()),
			logger.Error(err),
		)
		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	rt.logger.Debug(ctx, "http response",
		logger.String("request_id", requestID),
		logger.String("method", req.Method),
		logger.String("url", req.URL.String()),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)),
	)
	if rt.dump {
		if b, err := httputil.DumpResponse(resp, true); err == nil {
			rt.logger.Debug(ctx, "http response body",
				logger.String("request_id", requestID),
				logger.String("dump", string(b)),
			)
		}
	}

	return resp, nil
}
