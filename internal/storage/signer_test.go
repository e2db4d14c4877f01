package storage

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/localnerve/jam-build-admindb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	s, err := NewSigner("https://files.example.com/blobs", "secret", time.Minute)
	require.NoError(t, err)

	raw, err := s.URL(context.Background(), "avatars/ada.png")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/blobs/avatars/ada.png", u.Path)

	ref, err := s.Verify(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "avatars/ada.png", ref)
}

func TestVerifyRejectsExpiredAndForeign(t *testing.T) {
	s, err := NewSigner("https://files.example.com", "secret", time.Minute)
	require.NoError(t, err)
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }
	raw, err := s.URL(context.Background(), "a.txt")
	require.NoError(t, err)
	u, _ := url.Parse(raw)

	s.now = time.Now
	_, err = s.Verify(u.Query().Get("token"))
	assert.True(t, errors.Is(err, types.ErrForbidden))

	other, err := NewSigner("https://files.example.com", "other", time.Minute)
	require.NoError(t, err)
	raw, err = other.URL(context.Background(), "a.txt")
	require.NoError(t, err)
	u, _ = url.Parse(raw)
	_, err = s.Verify(u.Query().Get("token"))
	assert.True(t, errors.Is(err, types.ErrForbidden))
}

func TestBadRefsAreNotFound(t *testing.T) {
	s, err := NewSigner("https://files.example.com", "secret", 0)
	require.NoError(t, err)
	for _, ref := range []string{"", "  ", "/etc/passwd", "../up", "."} {
		_, err := s.URL(context.Background(), ref)
		assert.True(t, errors.Is(err, types.ErrNotFound), ref)
	}
}

func TestNewSignerValidation(t *testing.T) {
	_, err := NewSigner("not a url", "k", 0)
	assert.Error(t, err)
	_, err = NewSigner("https://files.example.com", "", 0)
	assert.Error(t, err)
}
