package ilp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/questline/ilp/auth"
	"github.com/questline/ilp/compress"
	"github.com/questline/ilp/errs"
)

// maxErrorBodyLen caps how much of an error response body is read for the
// error message.
const maxErrorBodyLen = 8 * 1024

// httpTransport delivers each flush as one POST to the server's write
// endpoint, retrying transient failures with exponential backoff until the
// retry budget is spent.
type httpTransport struct {
	url    string
	client *http.Client
	codec  compress.Codec

	authHeader string

	requestTimeout time.Duration
	minThroughput  int
	retryTimeout   time.Duration

	stats  *senderStats
	logger Logger
}

var _ transport = (*httpTransport)(nil)

func newHTTPTransport(cfg *senderConfig, stats *senderStats, logger Logger) (*httpTransport, error) {
	scheme := "http"
	httpClient := &http.Client{}
	if cfg.secure {
		scheme = "https"
		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}

	codec, err := compress.New(cfg.encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidConf, err)
	}

	var authHeader string
	switch {
	case cfg.username != "":
		authHeader = auth.BasicHeader(cfg.username, cfg.password)
	case cfg.token != "":
		authHeader = auth.BearerHeader(cfg.token)
	}

	return &httpTransport{
		url:            scheme + "://" + cfg.address + "/write",
		client:         httpClient,
		codec:          codec,
		authHeader:     authHeader,
		requestTimeout: cfg.requestTimeout,
		minThroughput:  cfg.minThroughput,
		retryTimeout:   cfg.retryTimeout,
		stats:          stats,
		logger:         logger,
	}, nil
}

func (t *httpTransport) connect(context.Context) error {
	return nil
}

func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()

	return nil
}

// send posts the payload, compressing it once up front so retries reuse the
// same body. The retry loop backs off 10ms, 20ms, ... capped at 1s, and
// stops once the elapsed time plus the next delay would exceed the retry
// budget.
func (t *httpTransport) send(ctx context.Context, payload []byte) error {
	body := payload
	if t.codec.Encoding() != "" {
		compressed, err := t.codec.Compress(payload)
		if err != nil {
			return fmt.Errorf("compressing payload: %w", err)
		}
		body = compressed
	}

	timeout := t.attemptTimeout(len(payload))

	retryable, err := t.sendOnce(ctx, body, timeout)
	if err == nil || !retryable || t.retryTimeout == 0 {
		return err
	}

	start := time.Now()
	delay := defaultInitialBackoff
	for {
		if time.Since(start)+delay > t.retryTimeout {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay < defaultMaxBackoff {
			delay *= 2
		}

		t.stats.retries.Add(1)
		t.logger.Logf("retrying flush after error: %v", err)

		retryable, err = t.sendOnce(ctx, body, timeout)
		if err == nil || !retryable {
			return err
		}
	}
}

// attemptTimeout extends the base request timeout by the time the payload
// needs at the assumed minimum throughput, so big batches are not killed by
// a timeout sized for small ones.
func (t *httpTransport) attemptTimeout(payloadLen int) time.Duration {
	timeout := t.requestTimeout
	if t.minThroughput > 0 {
		timeout += time.Duration(payloadLen) * time.Second / time.Duration(t.minThroughput)
	}

	return timeout
}

// sendOnce performs a single POST attempt. The boolean reports whether the
// failure is worth retrying: connection-level errors and retryable status
// codes are, everything else is final.
func (t *httpTransport) sendOnce(ctx context.Context, body []byte, timeout time.Duration) (bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if enc := t.codec.Encoding(); enc != "" {
		req.Header.Set("Content-Encoding", enc)
	}
	if t.authHeader != "" {
		req.Header.Set("Authorization", t.authHeader)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		// Dial failures, resets, timeouts. The request may still have been
		// applied server-side, hence at-least-once delivery.
		return true, fmt.Errorf("%w: %v", errs.ErrTransientTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	statusErr := fmt.Errorf("server responded %s: %s", resp.Status, bytes.TrimSpace(msg))
	if retryableStatus(resp.StatusCode) {
		return true, fmt.Errorf("%w: %v", errs.ErrTransientTransport, statusErr)
	}

	return false, statusErr
}

// retryableStatus reports whether a status code signals a transient server
// condition. 501 is the one 5xx that never becomes retryable.
func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500 && code != http.StatusNotImplemented:
		return true
	default:
		return false
	}
}
