// internal/form/csrf.go
//
// hostcat – stateless CSRF tokens for the login form.
//
// Context
//   Every page that renders the login form embeds a hidden `csrf_token`
//   input.  POST /login verifies it before looking at the password.  The
//   token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with the configured secret.
//
//   Verification checks the signature and ensures the timestamp is within
//   MaxAge.  Any instance sharing the secret can verify any other's tokens.
//
// Workflow
//   •  NewCSRF(secret, log) → *CSRF, random secret when empty.
//   •  Token()              → token string for the template.
//   •  Verify(tok)          → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"

	"go.uber.org/zap"
)

// FieldName is the hidden input carrying the token.
const FieldName = "csrf_token"

const (
	nonceBytes = 16
	tokenBytes = nonceBytes + 8 + sha256.Size // nonce + ts + sig

	// MaxAge is how long a rendered form stays submittable.
	MaxAge = 2 * time.Hour
)

// CSRF issues and verifies tokens.
type CSRF struct {
	secret []byte
	now    func() time.Time
}

// NewCSRF returns a CSRF keyed with secret.  An empty secret yields an
// ephemeral random key, so tokens do not survive a restart.
func NewCSRF(secret string, log *zap.Logger) *CSRF {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
		if log != nil {
			log.Warn("auth.csrf_key not set; using random key")
		}
	}
	return &CSRF{secret: key, now: time.Now}
}

// Token creates a new token.  Call once per form render.
func (c *CSRF) Token() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.mac(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok passes HMAC and age checks.
func (c *CSRF) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	ts := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(ts)))
	now := c.now()
	if now.Sub(issued) > MaxAge || issued.Sub(now) > time.Minute {
		return false // expired, or too far in the future
	}

	return hmac.Equal(sig, c.mac(nonce, ts))
}

func (c *CSRF) mac(nonce, ts []byte) []byte {
	m := hmac.New(sha256.New, c.secret)
	m.Write(nonce)
	m.Write(ts)
	return m.Sum(nil)
}
