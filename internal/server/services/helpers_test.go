package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

var errBoom = errors.New("boom")

func newManager(t *testing.T) *repomanager.RecordRepositoryManager {
	t.Helper()
	return repomanager.NewRecordRepositoryManager(recordstore.NewMemoryStore(logging.Nop{}))
}

// brokenStore fails every Scan, Get and Update while still accepting writes.
type brokenStore struct {
	recordstore.Store
}

func (brokenStore) Scan(context.Context, recordstore.Collection, recordstore.Filter, func(recordstore.Decoder) error) error {
	return errBoom
}

func (brokenStore) Get(context.Context, recordstore.Collection, recordstore.Key, any) error {
	return errBoom
}

func (brokenStore) Update(context.Context, recordstore.Collection, recordstore.Key, *recordstore.Update, any) error {
	return errBoom
}

func newBrokenManager() *repomanager.RecordRepositoryManager {
	return repomanager.NewRecordRepositoryManager(brokenStore{Store: recordstore.NewMemoryStore(logging.Nop{})})
}

// usersDownStore rejects every insert into the users collection.
type usersDownStore struct {
	recordstore.Store
}

func (s usersDownStore) Insert(ctx context.Context, c recordstore.Collection, v any) error {
	if c.Name == "users" {
		return errBoom
	}
	return s.Store.Insert(ctx, c, v)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}
