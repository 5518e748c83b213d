package conf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/questline/ilp/errs"
)

// Schema selects the transport and whether it is TLS-wrapped.
type Schema string

const (
	SchemaHTTP  Schema = "http"
	SchemaHTTPS Schema = "https"
	SchemaTCP   Schema = "tcp"
	SchemaTCPS  Schema = "tcps"
)

// IsHTTP reports whether the schema selects the HTTP transport.
func (s Schema) IsHTTP() bool {
	return s == SchemaHTTP || s == SchemaHTTPS
}

// IsSecure reports whether the schema selects a TLS-wrapped transport.
func (s Schema) IsSecure() bool {
	return s == SchemaHTTPS || s == SchemaTCPS
}

// TLS verification modes.
const (
	TLSVerifyOn        = "on"
	TLSVerifyUnsafeOff = "unsafe_off"
)

// Config is the parsed form of a configuration string.
//
// Optional numeric fields use -1 to mean "not set"; optional boolean fields
// use a nil pointer. Defaults are applied by the Sender, not here, because
// some defaults depend on the chosen transport.
type Config struct {
	Schema Schema
	Addr   string

	Username string
	Password string
	Token    string
	TokenX   string
	TokenY   string

	AutoFlush         *bool
	AutoFlushRows     int
	AutoFlushInterval time.Duration

	InitBufSize int
	MaxBufSize  int
	MaxNameLen  int

	RequestTimeout       time.Duration
	RequestMinThroughput int
	RetryTimeout         time.Duration

	TLSVerify string
	TLSRoots  string

	CopyBuffer      *bool
	ContentEncoding string
}

// newConfig returns a Config with every optional field unset.
func newConfig() *Config {
	return &Config{
		AutoFlushRows:        -1,
		AutoFlushInterval:    -1,
		InitBufSize:          -1,
		MaxBufSize:           -1,
		MaxNameLen:           -1,
		RequestTimeout:       -1,
		RequestMinThroughput: -1,
		RetryTimeout:         -1,
		TLSVerify:            TLSVerifyOn,
	}
}

// Parse parses a configuration string of the form
//
//	schema::key=value;key=value;
//
// where schema is one of http, https, tcp or tcps. A literal ';' inside a
// value is escaped by doubling (";;"). The trailing ';' is required, matching
// the grammar the server documents for client configuration strings.
//
// Returns:
//   - *Config: Parsed configuration with unset optionals left at their
//     sentinel values
//   - error: errs.ErrInvalidConf wrapper describing the first problem found
func Parse(s string) (*Config, error) {
	schema, rest, ok := strings.Cut(s, "::")
	if !ok {
		return nil, fmt.Errorf("%w: missing schema separator \"::\"", errs.ErrInvalidConf)
	}

	cfg := newConfig()
	switch Schema(schema) {
	case SchemaHTTP, SchemaHTTPS, SchemaTCP, SchemaTCPS:
		cfg.Schema = Schema(schema)
	default:
		return nil, fmt.Errorf("%w: unknown schema %q", errs.ErrInvalidConf, schema)
	}

	pairs, err := splitPairs(rest)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: malformed key-value pair %q", errs.ErrInvalidConf, p)
		}
		if err := cfg.set(key, value); err != nil {
			return nil, err
		}
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr is required", errs.ErrInvalidConf)
	}

	return cfg, nil
}

// splitPairs splits the key-value section on ';', honoring the ";;" escape
// inside values.
func splitPairs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasSuffix(s, ";") {
		return nil, fmt.Errorf("%w: configuration string must end with ';'", errs.ErrInvalidConf)
	}

	var pairs []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != ';' {
			cur.WriteByte(c)
			continue
		}
		if i+1 < len(s) && s[i+1] == ';' {
			cur.WriteByte(';')
			i++
			continue
		}
		if cur.Len() > 0 {
			pairs = append(pairs, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		// unreachable while the trailing ';' is enforced, kept as a guard
		pairs = append(pairs, cur.String())
	}

	return pairs, nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "addr":
		c.Addr = value
	case "username":
		c.Username = value
	case "password":
		c.Password = value
	case "token":
		c.Token = value
	case "token_x":
		c.TokenX = value
	case "token_y":
		c.TokenY = value
	case "auto_flush":
		b, err := parseOnOff(key, value)
		if err != nil {
			return err
		}
		c.AutoFlush = &b
	case "auto_flush_rows":
		return c.setInt(&c.AutoFlushRows, key, value)
	case "auto_flush_interval":
		return c.setMillis(&c.AutoFlushInterval, key, value)
	case "init_buf_size":
		return c.setInt(&c.InitBufSize, key, value)
	case "max_buf_size":
		return c.setInt(&c.MaxBufSize, key, value)
	case "max_name_len":
		return c.setInt(&c.MaxNameLen, key, value)
	case "request_timeout":
		return c.setMillis(&c.RequestTimeout, key, value)
	case "request_min_throughput":
		return c.setInt(&c.RequestMinThroughput, key, value)
	case "retry_timeout":
		return c.setMillis(&c.RetryTimeout, key, value)
	case "tls_verify":
		if value != TLSVerifyOn && value != TLSVerifyUnsafeOff {
			return fmt.Errorf("%w: tls_verify must be %q or %q, got %q",
				errs.ErrInvalidConf, TLSVerifyOn, TLSVerifyUnsafeOff, value)
		}
		c.TLSVerify = value
	case "tls_roots":
		c.TLSRoots = value
	case "copy_buffer":
		b, err := parseOnOff(key, value)
		if err != nil {
			return err
		}
		c.CopyBuffer = &b
	case "content_encoding":
		c.ContentEncoding = value
	default:
		return fmt.Errorf("%w: unknown configuration parameter %q", errs.ErrInvalidConf, key)
	}

	return nil
}

func (c *Config) setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %s must be a non-negative integer, got %q", errs.ErrInvalidConf, key, value)
	}
	*dst = n

	return nil
}

func (c *Config) setMillis(dst *time.Duration, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %s must be a non-negative integer of milliseconds, got %q", errs.ErrInvalidConf, key, value)
	}
	*dst = time.Duration(n) * time.Millisecond

	return nil
}

func parseOnOff(key, value string) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be \"on\" or \"off\", got %q", errs.ErrInvalidConf, key, value)
	}
}
