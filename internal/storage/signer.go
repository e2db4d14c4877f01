package storage

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localnerve/jam-build-admindb/internal/types"
)

// Provider turns a stored file reference into a URL a browser can fetch.
// Unknown references are reported with a types.NotFound error.
type Provider interface {
	URL(ctx context.Context, ref string) (string, error)
}

// Signer issues time-limited URLs under a base URL. The reference and expiry
// travel in an HS256 token on the "token" query parameter.
type Signer struct {
	base *url.URL
	key  []byte
	ttl  time.Duration
	now  func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
}

func NewSigner(baseURL, key string, ttl time.Duration) (*Signer, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, types.Validation("storage.config", "invalid storage base url %q", baseURL)
	}
	if key == "" {
		return nil, types.Validation("storage.config", "storage signing key is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{base: u, key: []byte(key), ttl: ttl, now: time.Now}, nil
}

// URL signs ref. References must be clean relative paths.
func (s *Signer) URL(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", types.Upstream("storage.canceled", err, "storage url for %q", ref)
	}
	clean, ok := cleanRef(ref)
	if !ok {
		return "", types.NotFound("storage.notFound", "no stored file %q", ref)
	}

	now := s.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clean,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}).SignedString(s.key)
	if err != nil {
		return "", types.Upstream("storage.sign", err, "sign %q", ref)
	}

	u := *s.base
	u.Path = path.Join(u.Path, clean)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Verify checks a token issued by URL and returns the reference it grants.
func (s *Signer) Verify(token string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", types.Forbidden("storage.token", "invalid storage token: %v", err)
	}
	return c.Subject, nil
}

func cleanRef(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "/") {
		return "", false
	}
	clean := path.Clean(ref)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}
