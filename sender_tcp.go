package ilp

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/questline/ilp/auth"
	"github.com/questline/ilp/errs"
)

// handshakeTimeout bounds the auth challenge exchange when the caller's
// context carries no deadline.
const handshakeTimeout = 15 * time.Second

// tcpTransport writes flushes directly to a persistent socket, optionally
// TLS-wrapped and authenticated with a P-256 challenge-response handshake.
//
// TCP delivery has no retry: a failed write leaves the stream position
// unknown, so the connection is torn down and the payload surfaces in the
// flush error.
type tcpTransport struct {
	addr   string
	tlsCfg *tls.Config
	key    *auth.Key

	conn   net.Conn
	logger Logger
}

var _ transport = (*tcpTransport)(nil)

func newTCPTransport(cfg *senderConfig, logger Logger) (*tcpTransport, error) {
	t := &tcpTransport{
		addr:   cfg.address,
		logger: logger,
	}

	if cfg.secure {
		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		host, _, err := net.SplitHostPort(cfg.address)
		if err != nil {
			return nil, fmt.Errorf("%w: address must be host:port: %v", errs.ErrInvalidConf, err)
		}
		tlsCfg.ServerName = host
		t.tlsCfg = tlsCfg
	}

	if cfg.keyID != "" || cfg.keyD != "" {
		key, err := auth.ParseKey(cfg.keyID, cfg.keyD, cfg.keyX, cfg.keyY)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrInvalidConf, err)
		}
		t.key = key
	}

	return t, nil
}

func (t *tcpTransport) connect(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %v", errs.ErrTransientTransport, t.addr, err)
	}

	if t.tlsCfg != nil {
		tlsConn := tls.Client(conn, t.tlsCfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("%w: TLS handshake with %s: %v", errs.ErrTransientTransport, t.addr, err)
		}
		conn = tlsConn
	}

	if t.key != nil {
		if err := t.authenticate(ctx, conn); err != nil {
			conn.Close()
			return err
		}
		t.logger.Logf("authenticated to %s as key %q", t.addr, t.key.ID())
	}

	t.conn = conn

	return nil
}

// authenticate runs the challenge-response handshake: send the key id, read
// the server's challenge line, send back the base64 ASN.1 signature of its
// SHA-256 hash.
func (t *tcpTransport) authenticate(ctx context.Context, conn net.Conn) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrAuthFailure, err)
	}
	defer conn.SetDeadline(time.Time{})

	if _, err := conn.Write([]byte(t.key.ID() + "\n")); err != nil {
		return fmt.Errorf("%w: sending key id: %v", errs.ErrAuthFailure, err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("%w: reading challenge: %v", errs.ErrAuthFailure, err)
	}
	challenge := strings.TrimRight(line, "\r\n")

	signature, err := t.key.SignChallenge([]byte(challenge))
	if err != nil {
		return err
	}
	if _, err := conn.Write([]byte(signature + "\n")); err != nil {
		return fmt.Errorf("%w: sending signature: %v", errs.ErrAuthFailure, err)
	}

	return nil
}

func (t *tcpTransport) send(ctx context.Context, payload []byte) error {
	if t.conn == nil {
		return fmt.Errorf("%w: connection is not established", errs.ErrTransientTransport)
	}

	if d, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(d); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrTransientTransport, err)
		}
		defer t.conn.SetWriteDeadline(time.Time{})
	}

	if _, err := t.conn.Write(payload); err != nil {
		return fmt.Errorf("%w: writing to %s: %v", errs.ErrTransientTransport, t.addr, err)
	}

	return nil
}

func (t *tcpTransport) close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil

	return err
}
