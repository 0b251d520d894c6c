package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/farewatch/config"
	"github.com/fiffu/farewatch/lib/models"
	"go.uber.org/zap"
)

// StatusError is a non-success response from the fare API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fare API returned status %d", e.Code)
}

// TransientError wraps a failure that exhausted the retry budget. The month it
// was raised for should be skipped; other months must still be attempted.
type TransientError struct {
	Err      error
	Attempts int
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("fare API unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

type Query struct {
	Origin      string
	Destination string
	Month       string // YYYY-MM
	Direct      bool
	Currency    string
}

type Client struct {
	log       *zap.Logger
	transport http.RoundTripper

	baseURL string
	token   string
	timeout time.Duration

	maxAttempts int
	retryDelay  time.Duration
	retryStatus map[int]bool
	sleep       func(time.Duration)
}

func NewClient(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Client {
	return &Client{
		log:       log,
		transport: transport,

		baseURL: cfg.Fares.BaseURL,
		token:   cfg.Fares.Token,
		timeout: time.Duration(cfg.Fares.TimeoutSecs) * time.Second,

		maxAttempts: 3,
		retryDelay:  2 * time.Second,
		retryStatus: map[int]bool{http.StatusBadGateway: true, http.StatusServiceUnavailable: true},
		sleep:       time.Sleep,
	}
}

type searchResponse struct {
	Success bool          `json:"success"`
	Data    models.Offers `json:"data"`
}

// Search fetches one page of one-way offers for a route and departure month.
// Transient statuses and transport failures are retried with a fixed delay;
// exhaustion yields a *TransientError. Any other non-200 status yields a
// *StatusError without retrying.
func (c *Client) Search(ctx context.Context, q Query) (models.Offers, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.sleep(c.retryDelay)
		}

		offers, err := c.searchOnce(ctx, q)
		if err == nil {
			return offers, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !c.retryStatus[statusErr.Code] {
			return nil, err
		}

		c.log.Sugar().Warnw("fare search attempt failed",
			"route", q.Origin+"-"+q.Destination, "month", q.Month, "attempt", attempt, "err", err)
	}

	return nil, &TransientError{Err: lastErr, Attempts: c.maxAttempts}
}

func (c *Client) searchOnce(ctx context.Context, q Query) (models.Offers, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp searchResponse
	err := requests.URL(c.baseURL).
		Param("origin", q.Origin).
		Param("destination", q.Destination).
		Param("departure_at", q.Month).
		Param("sorting", "price").
		Param("direct", strconv.FormatBool(q.Direct)).
		Param("one_way", "true").
		Param("limit", "100").
		Param("page", "1").
		Param("currency", q.Currency).
		Param("token", c.token).
		Transport(c.transport).
		AddValidator(func(res *http.Response) error {
			if res.StatusCode != http.StatusOK {
				return &StatusError{Code: res.StatusCode}
			}
			return nil
		}).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
