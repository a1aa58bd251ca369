package recordstore

import (
	"context"
	"time"

	"github.com/dmitrijs2005/guardian/internal/metrics"
)

// InstrumentedStore records the outcome and latency of every operation of
// the wrapped store.
type InstrumentedStore struct {
	next    Store
	metrics *metrics.Metrics
}

func NewInstrumentedStore(s Store, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: s, metrics: m}
}

func (s *InstrumentedStore) observe(c Collection, op string, start time.Time, err error) error {
	s.metrics.ObserveStoreOp(c.Name, op, err, time.Since(start))
	return err
}

func (s *InstrumentedStore) Put(ctx context.Context, c Collection, v any) error {
	start := time.Now()
	return s.observe(c, "put", start, s.next.Put(ctx, c, v))
}

func (s *InstrumentedStore) Insert(ctx context.Context, c Collection, v any) error {
	start := time.Now()
	return s.observe(c, "insert", start, s.next.Insert(ctx, c, v))
}

func (s *InstrumentedStore) Get(ctx context.Context, c Collection, k Key, v any) error {
	start := time.Now()
	return s.observe(c, "get", start, s.next.Get(ctx, c, k, v))
}

func (s *InstrumentedStore) Scan(ctx context.Context, c Collection, f Filter, visit func(Decoder) error) error {
	start := time.Now()
	return s.observe(c, "scan", start, s.next.Scan(ctx, c, f, visit))
}

func (s *InstrumentedStore) Update(ctx context.Context, c Collection, k Key, u *Update, v any) error {
	start := time.Now()
	return s.observe(c, "update", start, s.next.Update(ctx, c, k, u, v))
}

func (s *InstrumentedStore) Delete(ctx context.Context, c Collection, k Key) error {
	start := time.Now()
	return s.observe(c, "delete", start, s.next.Delete(ctx, c, k))
}

func (s *InstrumentedStore) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

func (s *InstrumentedStore) Close() error { return s.next.Close() }
