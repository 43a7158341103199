package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a record id does not exist in its collection.
var ErrNotFound = errors.New("record not found")

// ErrImmutableField is returned when a patch touches id or created_date.
var ErrImmutableField = errors.New("field is immutable")

// ErrInvalidField is returned for sort or filter fields that are not plain
// identifiers.
var ErrInvalidField = errors.New("invalid field name")

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Patch is a shallow set of top-level field replacements, keyed by the
// record's JSON field names.
type Patch map[string]any

// Collection is a typed view over one collection of records.
type Collection[T any] struct {
	s    *Store
	name string
}

func newCollection[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{s: s, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// List returns records ordered by sort. sort is a top-level field name,
// prefixed with "-" for descending order; empty sort means insertion order.
// limit <= 0 returns every record.
func (c *Collection[T]) List(ctx context.Context, sort string, limit int) ([]T, error) {
	order := "seq ASC"
	if sort != "" {
		dir := "ASC"
		field := sort
		if strings.HasPrefix(sort, "-") {
			dir = "DESC"
			field = sort[1:]
		}
		path, err := jsonPath(field)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", c.name, err)
		}
		order = fmt.Sprintf("json_extract(body, '%s') %s, seq %s", path, dir, dir)
	}

	query := fmt.Sprintf(`SELECT body FROM records WHERE collection = ? ORDER BY %s`, order)
	args := []any{c.name}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	records, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return records, nil
}

// Where returns records whose top-level field equals value, in insertion
// order.
func (c *Collection[T]) Where(ctx context.Context, field string, value any) ([]T, error) {
	path, err := jsonPath(field)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", c.name, err)
	}

	records, err := c.query(ctx, `
		SELECT body FROM records
		WHERE collection = ? AND json_extract(body, ?) = ?
		ORDER BY seq ASC
	`, c.name, path, value)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", c.name, err)
	}
	return records, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var body string
	err := c.s.db.QueryRowContext(ctx,
		`SELECT body FROM records WHERE collection = ? AND id = ?`,
		c.name, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("get %s %q: %w", c.name, id, ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %q: %w", c.name, id, err)
	}

	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return zero, fmt.Errorf("decode %s %q: %w", c.name, id, err)
	}
	return v, nil
}

// Create stores v under a fresh id and returns the record as stored, with
// id and created_date filled in. Any id or created_date on v is ignored.
func (c *Collection[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	fields, err := toFields(v)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}

	id := c.s.ids.Generate()
	created := c.s.timestamp()
	fields["id"], _ = json.Marshal(id)
	fields["created_date"], _ = json.Marshal(created)

	body, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}

	_, err = c.s.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, created_date, body)
		VALUES (?, ?, ?, ?)
	`, c.name, id, created, string(body))
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}
	return out, nil
}

// Update applies patch to the record with the given id and returns the
// updated record. Fields absent from patch keep their values.
func (c *Collection[T]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	var zero T
	for k := range patch {
		if k == "id" || k == "created_date" {
			return zero, fmt.Errorf("update %s %q: %s: %w", c.name, id, k, ErrImmutableField)
		}
	}

	tx, err := c.s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM records WHERE collection = ? AND id = ?`,
		c.name, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("update %s %q: field %s: %w", c.name, id, k, err)
		}
		fields[k] = raw
	}

	updated, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}

	var out T
	if err := json.Unmarshal(updated, &out); err != nil {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET body = ? WHERE collection = ? AND id = ?`,
		string(updated), c.name, id,
	); err != nil {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}
	return out, nil
}

// Delete removes the record with the given id. Deleting a missing record
// is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`,
		c.name, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", c.name, id, err)
	}
	return nil
}

// Count returns the number of records in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := c.s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, c.name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *Collection[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := c.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonPath(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("%q: %w", field, ErrInvalidField)
	}
	return "$." + field, nil
}

func toFields(v any) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("record must encode as a JSON object: %w", err)
	}
	return fields, nil
}
