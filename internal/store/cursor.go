package store

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/localnerve/jam-build-admindb/internal/types"
)

// A cursor is the base64url form of "<created unix ms>:<id>" of the last row
// on the previous page.
type cursor struct {
	createdAt time.Time
	id        string
}

func encodeCursor(d Document) string {
	raw := strconv.FormatInt(d.CreatedAt.UnixMilli(), 10) + ":" + d.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, types.Validation("store.cursor", "malformed cursor")
	}
	ms, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return nil, types.Validation("store.cursor", "malformed cursor")
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return nil, types.Validation("store.cursor", "malformed cursor: %v", err)
	}
	return &cursor{createdAt: time.UnixMilli(n).UTC(), id: id}, nil
}
