// Package dbtypes holds column types GORM cannot map on its own.
package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UUIDArray maps a Postgres uuid[] column. On SQLite the same array literal
// is stored as text.
type UUIDArray []uuid.UUID

func (a *UUIDArray) Scan(src any) error {
	var literal string
	switch v := src.(type) {
	case nil:
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return fmt.Errorf("uuid array: cannot scan %T", src)
	}

	inner := strings.TrimSpace(literal)
	inner = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(inner, "{"), "}"))
	if inner == "" {
		*a = UUIDArray{}
		return nil
	}

	var items pq.StringArray
	if err := items.Scan(literal); err != nil {
		return fmt.Errorf("uuid array: %w", err)
	}
	ids := make(UUIDArray, len(items))
	for i, item := range items {
		id, err := uuid.Parse(strings.TrimSpace(item))
		if err != nil {
			return fmt.Errorf("uuid array: element %d: %w", i, err)
		}
		ids[i] = id
	}
	*a = ids
	return nil
}

func (a UUIDArray) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String(), nil
}

func (a UUIDArray) Contains(id uuid.UUID) bool {
	return slices.Contains(a, id)
}

// Append returns a copy with id at the end; ids already present are not repeated.
func (a UUIDArray) Append(id uuid.UUID) UUIDArray {
	out := slices.Clone(a)
	if out == nil {
		out = UUIDArray{}
	}
	if a.Contains(id) {
		return out
	}
	return append(out, id)
}

// Without returns a copy minus every occurrence of id.
func (a UUIDArray) Without(id uuid.UUID) UUIDArray {
	return slices.DeleteFunc(slices.Clone(a), func(existing uuid.UUID) bool {
		return existing == id
	})
}
