package ilp

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/questline/ilp/errs"
)

// newTLSConfig builds the shared TLS client configuration. With tlsRoots set
// the peer certificate is verified against that PEM bundle only; otherwise
// the system roots apply.
func newTLSConfig(cfg *senderConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.tlsInsecure,
	}

	if cfg.tlsRoots != "" {
		pem, err := os.ReadFile(cfg.tlsRoots)
		if err != nil {
			return nil, fmt.Errorf("%w: reading tls_roots: %v", errs.ErrInvalidConf, err)
		}
		roots := x509.NewCertPool()
		if !roots.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates found in %s", errs.ErrInvalidConf, cfg.tlsRoots)
		}
		tlsCfg.RootCAs = roots
	}

	return tlsCfg, nil
}
