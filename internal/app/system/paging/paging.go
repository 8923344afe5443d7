// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// History pages (discipline records, merits, payments) are newest first.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// Directory search pages.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParseLimit reads the "limit" query parameter, falling back to def and
// clamping to max.
func ParseLimit(r *http.Request, def, max int) int {
	return clamp(atoi(query.Get(r, "limit"), def), 1, max)
}

// ParsePage reads "page" (1-based) and "page_size" for offset pagination.
func ParsePage(r *http.Request, defSize int) (page, size int) {
	page = atoi(query.Get(r, "page"), 1)
	if page < 1 {
		page = 1
	}
	size = clamp(atoi(query.Get(r, "page_size"), defSize), 1, MaxPageSize)
	return page, size
}

// ClampLimit normalises a history limit passed in from code.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return clamp(limit, 1, MaxHistoryLimit)
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Cursor marks the last row of a history page. The next page holds rows
// strictly older in (CreatedAt desc, ID desc) order.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Before reports whether a row sorts after the cursor in newest-first order.
func (c Cursor) Before(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}

// EncodeCursor returns the opaque cursor string for a row.
func EncodeCursor(createdAt time.Time, id string) string {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ""
	}
	return wafflemongo.EncodeCursor(createdAt.UTC().Format(time.RFC3339Nano), oid)
}

// DecodeCursor parses a cursor string. Blank or malformed cursors give ok=false.
func DecodeCursor(s string) (Cursor, bool) {
	if s == "" {
		return Cursor{}, false
	}
	c, ok := wafflemongo.DecodeCursor(s)
	if !ok {
		return Cursor{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, c.CI)
	if err != nil {
		return Cursor{}, false
	}
	return Cursor{CreatedAt: t, ID: c.ID.Hex()}, true
}

// MongoBefore returns the filter clause selecting rows older than c.
func MongoBefore(c Cursor) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"created_at": bson.M{"$lt": c.CreatedAt}},
		bson.M{"created_at": c.CreatedAt, "_id": bson.M{"$lt": c.ID}},
	}}
}

// TrimPage cuts rows fetched with limit+1 look-ahead back to limit and
// reports whether more rows exist.
func TrimPage[T any](rows *[]T, limit int) bool {
	if len(*rows) > limit {
		*rows = (*rows)[:limit]
		return true
	}
	return false
}
