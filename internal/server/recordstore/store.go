// Package recordstore is the persistence layer of guardian: a small
// key/value-and-scan contract over named collections, with flat-file,
// DynamoDB, PostgreSQL and in-memory implementations.
//
// Domain code never talks to a backend directly; it goes through Store and
// the typed helpers in this package.
package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/guardian/internal/common"
)

// Collection names a group of records of one entity type and declares which
// attributes form the record key. SortKey is optional.
type Collection struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// Key addresses one record inside a collection.
type Key struct {
	Partition string
	Sort      string
}

func (k Key) String() string {
	if k.Sort == "" {
		return k.Partition
	}
	return k.Partition + "/" + k.Sort
}

// Decoder decodes the visited record into v. Decoding failures wrap
// common.ErrCorruptRecord.
type Decoder func(v any) error

// Store is implemented by every backend.
//
// Put upserts by key and never touches other keys. Insert only creates and
// returns common.ErrAlreadyExists when the key is taken. Get returns
// common.ErrorNotFound for a missing key. Scan visits every record matching
// the filter; records that fail to decode are logged and skipped. Update is
// atomic per key and returns common.ErrorNotFound or common.ErrConflict
// (a failed If precondition). Delete of a missing key is not an error.
//
// Any failure of the underlying medium wraps common.ErrStorageUnavailable.
type Store interface {
	Put(ctx context.Context, c Collection, v any) error
	Insert(ctx context.Context, c Collection, v any) error
	Get(ctx context.Context, c Collection, k Key, v any) error
	Scan(ctx context.Context, c Collection, f Filter, visit func(Decoder) error) error
	Update(ctx context.Context, c Collection, k Key, u *Update, v any) error
	Delete(ctx context.Context, c Collection, k Key) error
	Ping(ctx context.Context) error
	Close() error
}

// Condition is an equality test on a top-level attribute.
type Condition struct {
	Field string
	Value any
}

// Filter is a conjunction of equality conditions. The empty filter matches
// everything.
type Filter []Condition

// Where starts a filter.
func Where(field string, v any) Filter {
	return Filter{{Field: field, Value: v}}
}

func (f Filter) And(field string, v any) Filter {
	return append(f[:len(f):len(f)], Condition{Field: field, Value: v})
}

type assignment struct {
	field string
	value any
}

type increment struct {
	field string
	delta int64
}

// Update is a declarative mutation: attribute assignments, numeric
// increments and optional equality preconditions. Local backends apply it to
// the decoded record under the collection lock; DynamoDB turns it into one
// conditional UpdateItem expression.
type Update struct {
	sets  []assignment
	adds  []increment
	conds []Condition
}

// Set starts an update assigning v to field.
func Set(field string, v any) *Update {
	return (&Update{}).Set(field, v)
}

// Add starts an update incrementing the numeric field by delta. A missing
// field counts as zero.
func Add(field string, delta int64) *Update {
	return (&Update{}).Add(field, delta)
}

func (u *Update) Set(field string, v any) *Update {
	u.sets = append(u.sets, assignment{field: field, value: v})
	return u
}

func (u *Update) Add(field string, delta int64) *Update {
	u.adds = append(u.adds, increment{field: field, delta: delta})
	return u
}

// If makes the update conditional on field currently equal to v.
func (u *Update) If(field string, v any) *Update {
	u.conds = append(u.conds, Condition{Field: field, Value: v})
	return u
}

func (u *Update) empty() bool {
	return u == nil || (len(u.sets) == 0 && len(u.adds) == 0)
}

var errEmptyUpdate = fmt.Errorf("%w: empty update", common.ErrValidation)

// ScanAll collects every record of c matching f as T.
func ScanAll[T any](ctx context.Context, s Store, c Collection, f Filter) ([]T, error) {
	var out []T
	err := s.Scan(ctx, c, f, func(dec Decoder) error {
		var v T
		if err := dec(&v); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAs is Get returning a freshly allocated T.
func GetAs[T any](ctx context.Context, s Store, c Collection, k Key) (*T, error) {
	var v T
	if err := s.Get(ctx, c, k, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// IsNotFound is shorthand for errors.Is(err, common.ErrorNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}

func unavailable(op string, c Collection, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, c.Name, common.ErrStorageUnavailable, err)
}
