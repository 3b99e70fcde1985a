// AngelaMos | 2026
// query.go

package core

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Psql builds PostgreSQL statements with $n placeholders.
var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02"
)

func IsUniqueViolation(err error) bool {
	return hasPgCode(err, pgUniqueViolation)
}

// IsInvalidTextRepresentation reports a value PostgreSQL could not parse
// into the column type, such as a malformed UUID.
func IsInvalidTextRepresentation(err error) bool {
	return hasPgCode(err, pgInvalidTextRepresentation)
}

// IsMissingRow reports a lookup that cannot match a row: no rows, or an id
// that is not even a valid key.
func IsMissingRow(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || IsInvalidTextRepresentation(err)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// URLParamID returns the named path parameter in canonical UUID form. A
// malformed value wraps ErrNotFound so it renders like an unknown id.
func URLParamID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", name, raw, ErrNotFound)
	}
	return id.String(), nil
}

func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage bounds deep paging so the offset stays well inside int range.
	MaxPage = 10000
)

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// PaginationFromRequest reads page and page_size query parameters and
// normalizes them.
func PaginationFromRequest(r *http.Request) Pagination {
	p := Pagination{
		Page:     QueryInt(r, "page", 1),
		PageSize: QueryInt(r, "page_size", DefaultPageSize),
	}
	p.Normalize()
	return p
}

func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// QueryBool returns nil when key is absent or unparsable.
func QueryBool(r *http.Request, key string) *bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}

	return &parsed
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit and OffsetU64 satisfy squirrel's unsigned Limit/Offset arguments.
func (p Pagination) Limit() uint64 {
	//nolint:gosec // G115: page size is normalized to 1..100
	return uint64(p.PageSize)
}

func (p Pagination) OffsetU64() uint64 {
	//nolint:gosec // G115: offset is never negative after Normalize
	return uint64(p.Offset())
}

// DecodePatch copies an already sanitized field map into a typed patch
// struct through its json tags, so values get real Go types before
// validation.
func DecodePatch(fields map[string]any, dst any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode patch: %v: %w", err, ErrInvalidInput)
	}

	return nil
}
