package sharelink

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid share token")
	// ErrExpiredToken is returned for well-signed tokens past their expiry.
	ErrExpiredToken = errors.New("share token expired")
)

// Link is the decoded content of a share token.
type Link struct {
	SelectionID string
	Format      string
	ExpiresAt   time.Time
}

// Signer issues HMAC-signed tokens granting read access to one export of a
// selection without a bearer token, for calendar apps subscribing to a feed.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer. A non-positive ttl defaults to 180 days.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 180 * 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token of the form id.format.expiry.signature.
func (s *Signer) Sign(selectionID, format string) (string, time.Time, error) {
	if selectionID == "" || format == "" {
		return "", time.Time{}, fmt.Errorf("selection id and format required")
	}
	if strings.Contains(selectionID, ".") || strings.Contains(format, ".") {
		return "", time.Time{}, fmt.Errorf("selection id and format must not contain dots")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := s.signature(selectionID, format, ts)
	return strings.Join([]string{selectionID, format, ts, sig}, "."), expiresAt, nil
}

// Verify checks the signature and expiry of a token.
func (s *Signer) Verify(token string) (*Link, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}
	id, format, ts, sig := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.signature(id, format, ts)), []byte(sig)) {
		return nil, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	link := &Link{SelectionID: id, Format: format, ExpiresAt: time.Unix(unix, 0)}
	if s.now().After(link.ExpiresAt) {
		return nil, ErrExpiredToken
	}
	return link, nil
}

func (s *Signer) signature(id, format, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + format + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
