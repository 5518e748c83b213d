package ilp

import (
	"fmt"
	"time"

	"github.com/questline/ilp/compress"
	"github.com/questline/ilp/conf"
	"github.com/questline/ilp/errs"
)

// TransportKind selects how flushed bytes reach the server.
type TransportKind uint8

const (
	// TransportHTTP delivers each flush as one POST request.
	TransportHTTP TransportKind = iota
	// TransportTCP writes flushes directly to a persistent socket.
	TransportTCP
)

// FlushStrategy controls how the sendable byte range is handed to the
// transport.
type FlushStrategy uint8

const (
	// CopyOnFlush snapshots the sendable range into a pooled buffer before
	// sending, so the caller may keep writing rows while the send (and any
	// retries) are in flight. This is the HTTP default.
	CopyOnFlush FlushStrategy = iota
	// ReuseInPlace hands the transport a view over the live buffer, avoiding
	// the copy. The caller must not build rows until the send returns. This
	// is the TCP default.
	ReuseInPlace
)

// Defaults applied when an option or configuration parameter is not given.
const (
	DefaultAutoFlushRowsHTTP = 75000
	DefaultAutoFlushRowsTCP  = 600
	DefaultAutoFlushInterval = time.Second

	DefaultRequestTimeout       = 10 * time.Second
	DefaultRetryTimeout         = 10 * time.Second
	DefaultRequestMinThroughput = 100 * 1024 // bytes per second

	defaultInitialBackoff = 10 * time.Millisecond
	defaultMaxBackoff     = time.Second
)

// senderConfig collects everything New needs to assemble a Sender.
type senderConfig struct {
	transport TransportKind
	address   string
	secure    bool

	tlsInsecure bool
	tlsRoots    string

	username string
	password string
	token    string

	keyID, keyD, keyX, keyY string

	autoFlush         bool
	autoFlushRows     int
	autoFlushInterval time.Duration

	initBufSize int
	maxBufSize  int
	maxNameLen  int

	requestTimeout time.Duration
	minThroughput  int
	retryTimeout   time.Duration

	strategy    FlushStrategy
	strategySet bool

	encoding compress.Type

	logger Logger
}

// Option configures a Sender during construction.
type Option func(*senderConfig) error

func defaultSenderConfig() senderConfig {
	return senderConfig{
		transport:         TransportHTTP,
		autoFlush:         true,
		autoFlushRows:     -1,
		autoFlushInterval: -1,
		initBufSize:       -1,
		maxBufSize:        -1,
		maxNameLen:        -1,
		requestTimeout:    -1,
		minThroughput:     -1,
		retryTimeout:      -1,
	}
}

// WithHTTP selects the HTTP transport (the default).
func WithHTTP() Option {
	return func(c *senderConfig) error {
		c.transport = TransportHTTP
		return nil
	}
}

// WithTCP selects the raw TCP transport.
func WithTCP() Option {
	return func(c *senderConfig) error {
		c.transport = TransportTCP
		return nil
	}
}

// WithTLS wraps the selected transport in TLS.
func WithTLS() Option {
	return func(c *senderConfig) error {
		c.secure = true
		return nil
	}
}

// WithAddress sets the server address as "host:port".
func WithAddress(addr string) Option {
	return func(c *senderConfig) error {
		if addr == "" {
			return fmt.Errorf("%w: address cannot be empty", errs.ErrInvalidConf)
		}
		c.address = addr
		return nil
	}
}

// WithBasicAuth attaches HTTP Basic credentials to every request.
func WithBasicAuth(username, password string) Option {
	return func(c *senderConfig) error {
		c.username = username
		c.password = password
		return nil
	}
}

// WithBearerToken attaches an HTTP bearer token to every request.
func WithBearerToken(token string) Option {
	return func(c *senderConfig) error {
		c.token = token
		return nil
	}
}

// WithAuthKey configures the P-256 key used for the TCP challenge-response
// handshake. kid is the key id; d is the base64url private scalar; x and y
// are the optional base64url public point components (derived from d when
// empty).
func WithAuthKey(kid, d, x, y string) Option {
	return func(c *senderConfig) error {
		c.keyID = kid
		c.keyD = d
		c.keyX = x
		c.keyY = y
		return nil
	}
}

// WithAutoFlushDisabled turns off automatic flushing; the caller must call
// Flush explicitly.
func WithAutoFlushDisabled() Option {
	return func(c *senderConfig) error {
		c.autoFlush = false
		return nil
	}
}

// WithAutoFlushRows sets the buffered-row count that triggers an automatic
// flush at row close. Zero disables the row trigger.
func WithAutoFlushRows(rows int) Option {
	return func(c *senderConfig) error {
		if rows < 0 {
			return fmt.Errorf("%w: auto-flush rows cannot be negative", errs.ErrInvalidConf)
		}
		c.autoFlushRows = rows
		return nil
	}
}

// WithAutoFlushInterval sets the elapsed time since the last successful
// flush that triggers an automatic flush at row close. Zero disables the
// interval trigger.
func WithAutoFlushInterval(interval time.Duration) Option {
	return func(c *senderConfig) error {
		if interval < 0 {
			return fmt.Errorf("%w: auto-flush interval cannot be negative", errs.ErrInvalidConf)
		}
		c.autoFlushInterval = interval
		return nil
	}
}

// WithInitBufferSize sets the initial row buffer size in bytes.
func WithInitBufferSize(size int) Option {
	return func(c *senderConfig) error {
		if size <= 0 {
			return fmt.Errorf("%w: initial buffer size must be positive", errs.ErrInvalidConf)
		}
		c.initBufSize = size
		return nil
	}
}

// WithMaxBufferSize sets the size beyond which the row buffer refuses to
// grow. Exceeding it is a configuration error, not a silent truncation.
func WithMaxBufferSize(size int) Option {
	return func(c *senderConfig) error {
		if size <= 0 {
			return fmt.Errorf("%w: maximum buffer size must be positive", errs.ErrInvalidConf)
		}
		c.maxBufSize = size
		return nil
	}
}

// WithMaxNameLength sets the maximum table and column name length in bytes.
func WithMaxNameLength(length int) Option {
	return func(c *senderConfig) error {
		if length <= 0 {
			return fmt.Errorf("%w: maximum name length must be positive", errs.ErrInvalidConf)
		}
		c.maxNameLen = length
		return nil
	}
}

// WithRequestTimeout sets the base per-request timeout for HTTP sends.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *senderConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: request timeout must be positive", errs.ErrInvalidConf)
		}
		c.requestTimeout = timeout
		return nil
	}
}

// WithRequestMinThroughput sets the assumed minimum transfer rate in bytes
// per second. Each request's timeout is extended by payload/throughput so
// large payloads are not judged stuck prematurely. Zero disables the
// extension.
func WithRequestMinThroughput(bytesPerSecond int) Option {
	return func(c *senderConfig) error {
		if bytesPerSecond < 0 {
			return fmt.Errorf("%w: request min throughput cannot be negative", errs.ErrInvalidConf)
		}
		c.minThroughput = bytesPerSecond
		return nil
	}
}

// WithRetryTimeout sets the cumulative retry budget for one HTTP flush.
// Zero disables retries.
func WithRetryTimeout(timeout time.Duration) Option {
	return func(c *senderConfig) error {
		if timeout < 0 {
			return fmt.Errorf("%w: retry timeout cannot be negative", errs.ErrInvalidConf)
		}
		c.retryTimeout = timeout
		return nil
	}
}

// WithTLSInsecureSkipVerify disables peer certificate verification.
// Intended for development against self-signed servers only.
func WithTLSInsecureSkipVerify() Option {
	return func(c *senderConfig) error {
		c.tlsInsecure = true
		return nil
	}
}

// WithTLSRoots verifies the peer certificate against the PEM bundle at the
// given path instead of the system roots.
func WithTLSRoots(path string) Option {
	return func(c *senderConfig) error {
		c.tlsRoots = path
		return nil
	}
}

// WithFlushStrategy overrides the transport-dependent default flush
// strategy.
func WithFlushStrategy(strategy FlushStrategy) Option {
	return func(c *senderConfig) error {
		switch strategy {
		case CopyOnFlush, ReuseInPlace:
			c.strategy = strategy
			c.strategySet = true
			return nil
		default:
			return fmt.Errorf("%w: unknown flush strategy %d", errs.ErrInvalidConf, strategy)
		}
	}
}

// WithContentEncoding compresses HTTP request bodies with the given codec.
func WithContentEncoding(t compress.Type) Option {
	return func(c *senderConfig) error {
		c.encoding = t
		return nil
	}
}

// WithLogger installs a custom Logger implementation.
func WithLogger(logger Logger) Option {
	return func(c *senderConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", errs.ErrInvalidConf)
		}
		c.logger = logger
		return nil
	}
}

// optionsFromConfig translates a parsed configuration into the equivalent
// option list. Credential parameters are transport-sensitive: for HTTP,
// username/password select Basic auth and token a bearer token; for TCP,
// username is the key id and token the private key scalar.
func optionsFromConfig(cfg *conf.Config) ([]Option, error) {
	var opts []Option

	if cfg.Schema.IsHTTP() {
		opts = append(opts, WithHTTP())
	} else {
		opts = append(opts, WithTCP())
	}
	if cfg.Schema.IsSecure() {
		opts = append(opts, WithTLS())
	}
	opts = append(opts, WithAddress(cfg.Addr))

	if cfg.Schema.IsHTTP() {
		if cfg.Username != "" {
			opts = append(opts, WithBasicAuth(cfg.Username, cfg.Password))
		}
		if cfg.Token != "" {
			opts = append(opts, WithBearerToken(cfg.Token))
		}
	} else if cfg.Token != "" {
		opts = append(opts, WithAuthKey(cfg.Username, cfg.Token, cfg.TokenX, cfg.TokenY))
	}

	if cfg.AutoFlush != nil && !*cfg.AutoFlush {
		opts = append(opts, WithAutoFlushDisabled())
	}
	if cfg.AutoFlushRows >= 0 {
		opts = append(opts, WithAutoFlushRows(cfg.AutoFlushRows))
	}
	if cfg.AutoFlushInterval >= 0 {
		opts = append(opts, WithAutoFlushInterval(cfg.AutoFlushInterval))
	}
	if cfg.InitBufSize >= 0 {
		opts = append(opts, WithInitBufferSize(cfg.InitBufSize))
	}
	if cfg.MaxBufSize >= 0 {
		opts = append(opts, WithMaxBufferSize(cfg.MaxBufSize))
	}
	if cfg.MaxNameLen >= 0 {
		opts = append(opts, WithMaxNameLength(cfg.MaxNameLen))
	}
	if cfg.RequestTimeout >= 0 {
		opts = append(opts, WithRequestTimeout(cfg.RequestTimeout))
	}
	if cfg.RequestMinThroughput >= 0 {
		opts = append(opts, WithRequestMinThroughput(cfg.RequestMinThroughput))
	}
	if cfg.RetryTimeout >= 0 {
		opts = append(opts, WithRetryTimeout(cfg.RetryTimeout))
	}
	if cfg.TLSVerify == conf.TLSVerifyUnsafeOff {
		opts = append(opts, WithTLSInsecureSkipVerify())
	}
	if cfg.TLSRoots != "" {
		opts = append(opts, WithTLSRoots(cfg.TLSRoots))
	}
	if cfg.CopyBuffer != nil {
		if *cfg.CopyBuffer {
			opts = append(opts, WithFlushStrategy(CopyOnFlush))
		} else {
			opts = append(opts, WithFlushStrategy(ReuseInPlace))
		}
	}
	if cfg.ContentEncoding != "" {
		t, err := compress.ParseType(cfg.ContentEncoding)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrInvalidConf, err)
		}
		opts = append(opts, WithContentEncoding(t))
	}

	return opts, nil
}
