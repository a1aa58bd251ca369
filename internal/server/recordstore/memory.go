package recordstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
)

type memTable struct {
	mu    sync.Mutex
	order []Key
	rows  map[Key]item
}

// MemoryStore keeps records in process memory. Each collection has its own
// lock, held for the whole read-modify-write of an operation.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]*memTable
	logger logging.Logger
}

func NewMemoryStore(logger logging.Logger) *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memTable), logger: logger}
}

func (s *MemoryStore) table(c Collection) *memTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[c.Name]
	if !ok {
		t = &memTable{rows: make(map[Key]item)}
		s.tables[c.Name] = t
	}
	return t
}

func (s *MemoryStore) write(ctx context.Context, c Collection, v any, createOnly bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := toItem(v)
	if err != nil {
		return err
	}
	k, err := it.key(c)
	if err != nil {
		return err
	}

	t := s.table(c)
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[k]; ok {
		if createOnly {
			return fmt.Errorf("insert %s %s: %w", c.Name, k, common.ErrAlreadyExists)
		}
	} else {
		t.order = append(t.order, k)
	}
	t.rows[k] = it
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, c Collection, v any) error {
	return s.write(ctx, c, v, false)
}

func (s *MemoryStore) Insert(ctx context.Context, c Collection, v any) error {
	return s.write(ctx, c, v, true)
}

func (s *MemoryStore) Get(ctx context.Context, c Collection, k Key, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.table(c)
	t.mu.Lock()
	it, ok := t.rows[k]
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("get %s %s: %w", c.Name, k, common.ErrorNotFound)
	}
	return it.decode(v)
}

func (s *MemoryStore) Scan(ctx context.Context, c Collection, f Filter, visit func(Decoder) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.table(c)
	t.mu.Lock()
	var matched []item
	for _, k := range t.order {
		if it := t.rows[k]; it.matches(f) {
			matched = append(matched, it)
		}
	}
	t.mu.Unlock()

	for _, it := range matched {
		if err := visitRecord(ctx, s.logger, c, it.decoder(), visit); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c Collection, k Key, u *Update, v any) error {
	if u.empty() {
		return errEmptyUpdate
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := s.table(c)
	t.mu.Lock()
	cur, ok := t.rows[k]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("update %s %s: %w", c.Name, k, common.ErrorNotFound)
	}
	next, err := cur.apply(u)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("update %s %s: %w", c.Name, k, err)
	}
	t.rows[k] = next
	t.mu.Unlock()

	if v == nil {
		return nil
	}
	return next.decode(v)
}

func (s *MemoryStore) Delete(ctx context.Context, c Collection, k Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.table(c)
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[k]; !ok {
		return nil
	}
	delete(t.rows, k)
	for i, ok := range t.order {
		if ok == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }
