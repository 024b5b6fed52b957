package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"mytravel_leads/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu     sync.Mutex
	items  map[int64]domain.Accommodation
	misses []miss
	lists  int
	failOn int64
}

type miss struct {
	id     int64
	status int
	reason string
}

func newFakeRepo(in ...domain.Accommodation) *fakeRepo {
	r := &fakeRepo{items: map[int64]domain.Accommodation{}}
	for _, a := range in {
		r.items[a.ID] = a
	}
	return r
}

func (f *fakeRepo) Upsert(ctx context.Context, a domain.Accommodation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != 0 && a.ID == f.failOn {
		return errStore
	}
	f.items[a.ID] = a
	return nil
}
func (f *fakeRepo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses = append(f.misses, miss{id, status, reason})
	return nil
}
func (f *fakeRepo) Get(ctx context.Context, id int64) (domain.Accommodation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return domain.Accommodation{}, domain.ErrNotFound
	}
	return a, nil
}
func (f *fakeRepo) List(ctx context.Context) ([]domain.Accommodation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]domain.Accommodation, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeCache keeps JSON bytes, like the Redis adapter.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

type fakeLeads struct {
	mu          sync.Mutex
	pages       map[int]domain.RemotePage // keyed by skip
	pageErr     error
	pageErrs    map[int]error // keyed by skip
	record      map[string]any
	recordErr   error
	outreach    string
	outreachErr error
	scanErr     error
	scanned     []string
	queries     []domain.RemoteQuery
}

func (f *fakeLeads) ListAccommodations(ctx context.Context, q domain.RemoteQuery) (domain.RemotePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.pageErr != nil {
		return domain.RemotePage{}, f.pageErr
	}
	if err := f.pageErrs[q.Skip]; err != nil {
		return domain.RemotePage{}, err
	}
	return f.pages[q.Skip], nil
}
func (f *fakeLeads) GetAccommodation(ctx context.Context, id int64) (map[string]any, error) {
	return f.record, f.recordErr
}
func (f *fakeLeads) StartScan(ctx context.Context, s domain.ScanSource, region string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	f.scanned = append(f.scanned, string(s)+"/"+region)
	return map[string]any{"status": "started"}, nil
}
func (f *fakeLeads) GenerateOutreach(ctx context.Context, id int64, ch domain.Channel) (string, error) {
	return f.outreach, f.outreachErr
}
func (f *fakeLeads) Dashboard(ctx context.Context) (domain.RemoteDashboard, error) {
	return domain.RemoteDashboard{}, nil
}
func (f *fakeLeads) ExportCSV(ctx context.Context) ([]byte, error) { return nil, nil }

var errStore = errors.New("store down")

func ptr[T any](v T) *T { return &v }
