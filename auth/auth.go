// Package auth holds the credential machinery for both transports: HTTP
// Basic/Bearer header construction and the elliptic-curve key used by the
// TCP challenge-response handshake.
package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/questline/ilp/errs"
)

// Key is a P-256 signing key in JWK form: the key id, the private scalar d,
// and optionally the public curve point (x, y). When the public point is not
// supplied it is derived from d.
type Key struct {
	id      string
	private *ecdsa.PrivateKey
}

// ParseKey builds a signing key from base64url-encoded (unpadded) JWK
// components.
//
// Parameters:
//   - kid: Key id sent to the server at the start of the handshake
//   - d: Private scalar, required
//   - x, y: Public curve point, optional; both must be given or both empty
//
// Returns:
//   - *Key: Parsed key ready for challenge signing
//   - error: errs.ErrAuthFailure wrapper if a component is missing, not
//     base64url, or the point is not on the P-256 curve
func ParseKey(kid, d, x, y string) (*Key, error) {
	if kid == "" {
		return nil, fmt.Errorf("%w: key id cannot be empty", errs.ErrAuthFailure)
	}
	if d == "" {
		return nil, fmt.Errorf("%w: private key component d cannot be empty", errs.ErrAuthFailure)
	}
	if (x == "") != (y == "") {
		return nil, fmt.Errorf("%w: public key components x and y must be supplied together", errs.ErrAuthFailure)
	}

	dBytes, err := base64.RawURLEncoding.DecodeString(d)
	if err != nil {
		return nil, fmt.Errorf("%w: private key component d is not base64url: %v", errs.ErrAuthFailure, err)
	}

	curve := elliptic.P256()
	private := &ecdsa.PrivateKey{
		D: new(big.Int).SetBytes(dBytes),
	}
	private.Curve = curve

	if x != "" {
		xBytes, err := base64.RawURLEncoding.DecodeString(x)
		if err != nil {
			return nil, fmt.Errorf("%w: public key component x is not base64url: %v", errs.ErrAuthFailure, err)
		}
		yBytes, err := base64.RawURLEncoding.DecodeString(y)
		if err != nil {
			return nil, fmt.Errorf("%w: public key component y is not base64url: %v", errs.ErrAuthFailure, err)
		}
		private.X = new(big.Int).SetBytes(xBytes)
		private.Y = new(big.Int).SetBytes(yBytes)
		if !curve.IsOnCurve(private.X, private.Y) {
			return nil, fmt.Errorf("%w: public key point is not on the P-256 curve", errs.ErrAuthFailure)
		}
	} else {
		private.X, private.Y = curve.ScalarBaseMult(dBytes)
	}

	return &Key{id: kid, private: private}, nil
}

// ID returns the key id sent to the server to select the verification key.
func (k *Key) ID() string {
	return k.id
}

// Public returns the public half of the key.
func (k *Key) Public() *ecdsa.PublicKey {
	return &k.private.PublicKey
}

// SignChallenge signs the raw challenge bytes issued by the server and
// returns the base64-encoded ASN.1 ECDSA signature, ready to be written back
// terminated by a newline.
//
// The signature is computed over the SHA-256 digest of the challenge.
func (k *Key) SignChallenge(challenge []byte) (string, error) {
	hash := sha256.Sum256(challenge)
	sig, err := ecdsa.SignASN1(rand.Reader, k.private, hash[:])
	if err != nil {
		return "", fmt.Errorf("%w: signing challenge: %v", errs.ErrAuthFailure, err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// BasicHeader returns the Authorization header value for HTTP Basic auth.
func BasicHeader(username, password string) string {
	cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + cred
}

// BearerHeader returns the Authorization header value for a bearer token.
func BearerHeader(token string) string {
	return "Bearer " + token
}
