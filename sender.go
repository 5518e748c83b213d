package ilp

import (
	"context"
	"fmt"
	"time"

	"github.com/questline/ilp/auth"
	"github.com/questline/ilp/buffer"
	"github.com/questline/ilp/compress"
	"github.com/questline/ilp/conf"
	"github.com/questline/ilp/errs"
	"github.com/questline/ilp/internal/pool"
)

// transport delivers one flushed payload of complete rows to the server.
type transport interface {
	// connect establishes the transport's connection, including TLS and
	// authentication handshakes where applicable.
	connect(ctx context.Context) error
	// send delivers payload. The payload is complete rows in wire format and
	// must not be retained after send returns.
	send(ctx context.Context, payload []byte) error
	// close releases the transport's resources.
	close() error
}

// Sender accumulates rows in a wire-format buffer and flushes them to the
// server over the configured transport.
//
// A Sender is single-owner; see the package documentation for the
// concurrency and delivery contracts.
type Sender struct {
	buf   *buffer.Buffer
	trans transport

	kind     TransportKind
	strategy FlushStrategy

	autoFlush         bool
	autoFlushRows     int
	autoFlushInterval time.Duration
	lastFlush         time.Time

	stats  senderStats
	logger Logger

	poolKey uint64

	connected bool
	closed    bool
}

// New builds a Sender from options. The zero-option Sender speaks plain HTTP
// but has no address; WithAddress is effectively required.
//
// Returns:
//   - *Sender: Ready-to-use sender. TCP senders additionally need Connect
//     before the first flush
//   - error: errs.ErrInvalidConf wrapper when the options are inconsistent
func New(opts ...Option) (*Sender, error) {
	cfg := defaultSenderConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return newSender(&cfg)
}

// NewFromConf builds a Sender from a configuration string such as
//
//	https::addr=localhost:9000;retry_timeout=5000;
//
// Extra options are applied after the string and override it.
func NewFromConf(config string, opts ...Option) (*Sender, error) {
	parsed, err := conf.Parse(config)
	if err != nil {
		return nil, err
	}
	confOpts, err := optionsFromConfig(parsed)
	if err != nil {
		return nil, err
	}

	return New(append(confOpts, opts...)...)
}

// NewFromEnv builds a Sender from the configuration string in the
// ILP_CLIENT_CONF environment variable.
func NewFromEnv(opts ...Option) (*Sender, error) {
	parsed, err := conf.FromEnv()
	if err != nil {
		return nil, err
	}
	confOpts, err := optionsFromConfig(parsed)
	if err != nil {
		return nil, err
	}

	return New(append(confOpts, opts...)...)
}

// NewFromYAMLFile builds a Sender from a YAML configuration file using the
// same parameter names as the configuration string.
func NewFromYAMLFile(path string, opts ...Option) (*Sender, error) {
	parsed, err := conf.FromYAMLFile(path)
	if err != nil {
		return nil, err
	}
	confOpts, err := optionsFromConfig(parsed)
	if err != nil {
		return nil, err
	}

	return New(append(confOpts, opts...)...)
}

func newSender(cfg *senderConfig) (*Sender, error) {
	if cfg.address == "" {
		return nil, fmt.Errorf("%w: address is required", errs.ErrInvalidConf)
	}
	if err := validateCredentials(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	s := &Sender{
		buf:               buffer.New(cfg.initBufSize, cfg.maxBufSize, cfg.maxNameLen),
		kind:              cfg.transport,
		strategy:          cfg.strategy,
		autoFlush:         cfg.autoFlush,
		autoFlushRows:     cfg.autoFlushRows,
		autoFlushInterval: cfg.autoFlushInterval,
		lastFlush:         time.Now(),
		logger:            cfg.logger,
	}

	var err error
	switch cfg.transport {
	case TransportHTTP:
		s.trans, err = newHTTPTransport(cfg, &s.stats, s.logger)
		// HTTP is connectionless; each flush is an independent request.
		s.connected = true
	case TransportTCP:
		s.trans, err = newTCPTransport(cfg, s.logger)
	default:
		err = fmt.Errorf("%w: unknown transport %d", errs.ErrInvalidConf, cfg.transport)
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func validateCredentials(cfg *senderConfig) error {
	isHTTP := cfg.transport == TransportHTTP

	if cfg.keyID != "" || cfg.keyD != "" {
		if isHTTP {
			return fmt.Errorf("%w: ECDSA key auth is only available over TCP", errs.ErrInvalidConf)
		}
		if _, err := auth.ParseKey(cfg.keyID, cfg.keyD, cfg.keyX, cfg.keyY); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrInvalidConf, err)
		}
	}
	if cfg.username != "" && !isHTTP {
		return fmt.Errorf("%w: basic auth is only available over HTTP", errs.ErrInvalidConf)
	}
	if cfg.token != "" && !isHTTP {
		return fmt.Errorf("%w: bearer token auth is only available over HTTP", errs.ErrInvalidConf)
	}
	if cfg.username != "" && cfg.token != "" {
		return fmt.Errorf("%w: basic auth and bearer token are mutually exclusive", errs.ErrInvalidConf)
	}
	if cfg.encoding != compress.TypeNone && !isHTTP {
		return fmt.Errorf("%w: content encoding is only available over HTTP", errs.ErrInvalidConf)
	}

	return nil
}

// applyDefaults resolves every -1 sentinel left by unset options. Row-count
// and strategy defaults depend on the transport.
func applyDefaults(cfg *senderConfig) {
	if cfg.autoFlushRows < 0 {
		if cfg.transport == TransportHTTP {
			cfg.autoFlushRows = DefaultAutoFlushRowsHTTP
		} else {
			cfg.autoFlushRows = DefaultAutoFlushRowsTCP
		}
	}
	if cfg.autoFlushInterval < 0 {
		cfg.autoFlushInterval = DefaultAutoFlushInterval
	}
	if cfg.initBufSize < 0 {
		cfg.initBufSize = buffer.DefaultInitSize
	}
	if cfg.maxBufSize < 0 {
		cfg.maxBufSize = buffer.DefaultMaxSize
	}
	if cfg.maxNameLen < 0 {
		cfg.maxNameLen = buffer.DefaultMaxNameLen
	}
	if cfg.requestTimeout < 0 {
		cfg.requestTimeout = DefaultRequestTimeout
	}
	if cfg.minThroughput < 0 {
		cfg.minThroughput = DefaultRequestMinThroughput
	}
	if cfg.retryTimeout < 0 {
		cfg.retryTimeout = DefaultRetryTimeout
	}
	if !cfg.strategySet {
		if cfg.transport == TransportHTTP {
			cfg.strategy = CopyOnFlush
		} else {
			cfg.strategy = ReuseInPlace
		}
	}
	if cfg.logger == nil {
		cfg.logger = newDefaultLogger()
	}
}

// Connect establishes the TCP connection and performs the TLS and
// authentication handshakes. It is a no-op over HTTP.
func (s *Sender) Connect(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("%w: sender is closed", errs.ErrInvalidConf)
	}
	if s.connected {
		return nil
	}
	if err := s.trans.connect(ctx); err != nil {
		return err
	}
	s.connected = true

	return nil
}

// Table begins a new row targeting the named table. It must be the first
// call of every row.
func (s *Sender) Table(name string) error {
	return s.buf.Table(name)
}

// Symbol appends an indexed string tag to the open row. Symbols must come
// before all other columns.
func (s *Sender) Symbol(name, value string) error {
	return s.buf.Symbol(name, value)
}

// StringColumn appends a string field to the open row.
func (s *Sender) StringColumn(name, value string) error {
	return s.buf.StringColumn(name, value)
}

// BoolColumn appends a boolean field to the open row.
func (s *Sender) BoolColumn(name string, value bool) error {
	return s.buf.BoolColumn(name, value)
}

// Float64Column appends a 64-bit float field to the open row.
func (s *Sender) Float64Column(name string, value float64) error {
	return s.buf.Float64Column(name, value)
}

// Int64Column appends a 64-bit integer field to the open row.
func (s *Sender) Int64Column(name string, value int64) error {
	return s.buf.Int64Column(name, value)
}

// TimestampColumn appends a microsecond-precision timestamp field to the
// open row. This is a regular field, not the row's designated timestamp.
func (s *Sender) TimestampColumn(name string, value time.Time) error {
	return s.buf.TimestampColumn(name, value.UnixMicro())
}

// At closes the open row with the given designated timestamp and then
// evaluates the auto-flush policy, which may trigger a network flush.
func (s *Sender) At(ctx context.Context, ts time.Time) error {
	return s.AtNanos(ctx, ts.UnixNano())
}

// AtNanos closes the open row with a designated timestamp in nanoseconds
// since the Unix epoch.
func (s *Sender) AtNanos(ctx context.Context, nanos int64) error {
	if err := s.buf.At(nanos); err != nil {
		return err
	}
	s.stats.rowsWritten.Add(1)

	return s.maybeAutoFlush(ctx)
}

// AtNow closes the open row without a designated timestamp; the server
// assigns its own receive time.
func (s *Sender) AtNow(ctx context.Context) error {
	if err := s.buf.AtNow(); err != nil {
		return err
	}
	s.stats.rowsWritten.Add(1)

	return s.maybeAutoFlush(ctx)
}

// maybeAutoFlush flushes when either trigger fires: buffered rows reached
// the row limit, or the interval since the last successful flush elapsed.
// Triggers are only evaluated here, at row close, so a row is never split.
func (s *Sender) maybeAutoFlush(ctx context.Context) error {
	if !s.autoFlush {
		return nil
	}

	byRows := s.autoFlushRows > 0 && s.buf.Rows() >= s.autoFlushRows
	byTime := s.autoFlushInterval > 0 && time.Since(s.lastFlush) >= s.autoFlushInterval
	if !byRows && !byTime {
		return nil
	}

	_, err := s.Flush(ctx)

	return err
}

// Flush delivers all complete buffered rows to the server. An open,
// unfinished row is retained in the buffer untouched.
//
// Returns:
//   - bool: true if a payload was sent, false if there was nothing to flush
//   - error: *FlushError when delivery failed and the payload was dropped
//     from the buffer; the error carries the undelivered bytes
func (s *Sender) Flush(ctx context.Context) (bool, error) {
	if s.closed {
		return false, fmt.Errorf("%w: sender is closed", errs.ErrInvalidConf)
	}
	if !s.connected {
		return false, fmt.Errorf("%w: sender is not connected, call Connect first", errs.ErrInvalidConf)
	}
	if !s.buf.HasSendable() {
		return false, nil
	}

	rows := s.buf.Rows()

	var payload []byte
	var snapshot *pool.ByteBuffer
	if s.strategy == CopyOnFlush {
		snapshot = pool.GetFlushBuffer()
		snapshot.B = s.buf.CopySendable(snapshot.B)
		s.buf.ClearSent()
		payload = snapshot.Bytes()
	} else {
		payload = s.buf.Sendable()
	}

	err := s.trans.send(ctx, payload)

	if err != nil {
		// The sender does not keep failed payloads; ownership moves to the
		// error so the caller decides whether to persist or re-send.
		unsent := make([]byte, len(payload))
		copy(unsent, payload)
		ferr := &FlushError{Unsent: unsent, Rows: rows, Err: err}
		if snapshot != nil {
			pool.PutFlushBuffer(snapshot)
		} else {
			s.buf.ClearSent()
		}
		if s.kind == TransportTCP {
			// A failed socket write leaves the stream position unknown.
			s.trans.close()
			s.connected = false
		}

		return false, ferr
	}

	if snapshot != nil {
		pool.PutFlushBuffer(snapshot)
	} else {
		s.buf.ClearSent()
	}

	s.lastFlush = time.Now()
	s.stats.flushes.Add(1)
	s.stats.bytesSent.Add(uint64(len(payload)))

	return true, nil
}

// Reset drops all buffered rows, including an open one, without sending.
func (s *Sender) Reset() {
	s.buf.Reset()
}

// Resize grows or shrinks the row buffer. Shrinking below the current
// content length is rejected.
func (s *Sender) Resize(newSize int) error {
	return s.buf.Resize(newSize)
}

// Rows returns the number of complete buffered rows.
func (s *Sender) Rows() int {
	return s.buf.Rows()
}

// BufferLen returns the buffered wire-format length in bytes, including any
// open row.
func (s *Sender) BufferLen() int {
	return s.buf.Len()
}

// Stats returns a snapshot of the sender's delivery counters. Safe to call
// from any goroutine.
func (s *Sender) Stats() Stats {
	return s.stats.snapshot()
}

// Close releases the transport and makes the sender unusable. Buffered but
// unflushed rows are abandoned, not sent; callers must Flush before Close to
// avoid losing them. Close is idempotent.
func (s *Sender) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.connected = false

	return s.trans.close()
}
