package conf

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/questline/ilp/errs"
)

// yamlConfig mirrors Config with the same parameter names the configuration
// string uses. Pointer fields distinguish "absent" from zero values.
type yamlConfig struct {
	Schema string `yaml:"schema"`
	Addr   string `yaml:"addr"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
	TokenX   string `yaml:"token_x"`
	TokenY   string `yaml:"token_y"`

	AutoFlush         *bool `yaml:"auto_flush"`
	AutoFlushRows     *int  `yaml:"auto_flush_rows"`
	AutoFlushInterval *int  `yaml:"auto_flush_interval"`

	InitBufSize *int `yaml:"init_buf_size"`
	MaxBufSize  *int `yaml:"max_buf_size"`
	MaxNameLen  *int `yaml:"max_name_len"`

	RequestTimeout       *int `yaml:"request_timeout"`
	RequestMinThroughput *int `yaml:"request_min_throughput"`
	RetryTimeout         *int `yaml:"retry_timeout"`

	TLSVerify string `yaml:"tls_verify"`
	TLSRoots  string `yaml:"tls_roots"`

	CopyBuffer      *bool  `yaml:"copy_buffer"`
	ContentEncoding string `yaml:"content_encoding"`
}

// FromYAMLFile loads a configuration from a YAML file using the same
// parameter names and semantics as the configuration string. Durations are
// integers of milliseconds.
func FromYAMLFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errs.ErrInvalidConf, path, err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", errs.ErrInvalidConf, path, err)
	}

	cfg := newConfig()
	switch Schema(yc.Schema) {
	case SchemaHTTP, SchemaHTTPS, SchemaTCP, SchemaTCPS:
		cfg.Schema = Schema(yc.Schema)
	default:
		return nil, fmt.Errorf("%w: unknown schema %q", errs.ErrInvalidConf, yc.Schema)
	}
	if yc.Addr == "" {
		return nil, fmt.Errorf("%w: addr is required", errs.ErrInvalidConf)
	}
	cfg.Addr = yc.Addr

	cfg.Username = yc.Username
	cfg.Password = yc.Password
	cfg.Token = yc.Token
	cfg.TokenX = yc.TokenX
	cfg.TokenY = yc.TokenY

	cfg.AutoFlush = yc.AutoFlush
	setIntOpt(&cfg.AutoFlushRows, yc.AutoFlushRows)
	setMillisOpt(&cfg.AutoFlushInterval, yc.AutoFlushInterval)
	setIntOpt(&cfg.InitBufSize, yc.InitBufSize)
	setIntOpt(&cfg.MaxBufSize, yc.MaxBufSize)
	setIntOpt(&cfg.MaxNameLen, yc.MaxNameLen)
	setMillisOpt(&cfg.RequestTimeout, yc.RequestTimeout)
	setIntOpt(&cfg.RequestMinThroughput, yc.RequestMinThroughput)
	setMillisOpt(&cfg.RetryTimeout, yc.RetryTimeout)

	if yc.TLSVerify != "" {
		if yc.TLSVerify != TLSVerifyOn && yc.TLSVerify != TLSVerifyUnsafeOff {
			return nil, fmt.Errorf("%w: tls_verify must be %q or %q, got %q",
				errs.ErrInvalidConf, TLSVerifyOn, TLSVerifyUnsafeOff, yc.TLSVerify)
		}
		cfg.TLSVerify = yc.TLSVerify
	}
	cfg.TLSRoots = yc.TLSRoots
	cfg.CopyBuffer = yc.CopyBuffer
	cfg.ContentEncoding = yc.ContentEncoding

	return cfg, nil
}

func setIntOpt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setMillisOpt(dst *time.Duration, src *int) {
	if src != nil {
		*dst = time.Duration(*src) * time.Millisecond
	}
}
