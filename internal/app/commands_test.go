package app_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"mytravel_leads/internal/app"
	"mytravel_leads/internal/domain"
)

func TestIngestPayloads_SkipsInvalidAndInvalidates(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	svc := app.NewIngestionService(&fakeLeads{}, repo, cache)

	st, err := svc.IngestPayloads(context.Background(), []map[string]any{
		{"id": 1.0, "name": "Valid", "priority_score": 8.5},
		{"id": 2.0, "name": "  "},
		{"name": "no id"},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if st.Upserted != 1 || st.Skipped != 2 {
		t.Fatalf("stats: %+v", st)
	}
	a, ok := repo.items[1]
	if !ok || a.LeadStatus != domain.TierHot || a.UpdatedAt.IsZero() {
		t.Fatalf("stored: %+v", a)
	}
	if len(repo.misses) != 2 || repo.misses[0].status != http.StatusUnprocessableEntity {
		t.Fatalf("misses: %+v", repo.misses)
	}
	if len(cache.dels) != 1 || cache.dels[0] != "accommodation:1" {
		t.Fatalf("cache invalidation: %v", cache.dels)
	}
}

func TestIngestPayloads_StoreFailureStops(t *testing.T) {
	repo := newFakeRepo()
	repo.failOn = 2
	svc := app.NewIngestionService(&fakeLeads{}, repo, &fakeCache{})

	st, err := svc.IngestPayloads(context.Background(), []map[string]any{
		{"id": 1.0, "name": "a"}, {"id": 2.0, "name": "b"}, {"id": 3.0, "name": "c"},
	})
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if st.Upserted != 1 || len(repo.items) != 1 {
		t.Fatalf("partial stats: %+v", st)
	}
}

func TestIngestPage_MissesAreNotErrors(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrapped: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrForbidden), http.StatusForbidden},
	} {
		repo := newFakeRepo()
		svc := app.NewIngestionService(&fakeLeads{pageErr: tc.err}, repo, nil)

		page, st, err := svc.IngestPage(context.Background(), domain.RemoteQuery{Skip: 40, Limit: 20})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if len(page.Items) != 0 || st.Upserted != 0 {
			t.Fatalf("expected empty page: %+v %+v", page, st)
		}
		if len(repo.misses) != 1 || repo.misses[0].status != tc.status || repo.misses[0].reason != "page:skip=40" {
			t.Fatalf("misses: %+v", repo.misses)
		}
	}

	svc := app.NewIngestionService(&fakeLeads{pageErr: errors.New("timeout")}, newFakeRepo(), nil)
	if _, _, err := svc.IngestPage(context.Background(), domain.RemoteQuery{}); err == nil {
		t.Fatalf("transport errors must surface")
	}
}

func TestIngestPage_StoresItems(t *testing.T) {
	leads := &fakeLeads{pages: map[int]domain.RemotePage{
		0: {Total: 2, Limit: 2, Items: []map[string]any{
			{"id": 10.0, "name": "Ten", "accommodation_type": "mountain_house"},
			{"id": 11.0, "name": "Eleven"},
		}},
	}}
	repo := newFakeRepo()
	svc := app.NewIngestionService(leads, repo, &fakeCache{})

	page, st, err := svc.IngestPage(context.Background(), domain.RemoteQuery{Limit: 2})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if page.Total != 2 || st.Upserted != 2 || repo.items[10].Category != domain.CategoryMountainHouse {
		t.Fatalf("unexpected: %+v %+v", page, st)
	}

	var total app.IngestStats
	total.Add(st)
	total.Add(app.IngestStats{Skipped: 3})
	if total.Upserted != 2 || total.Skipped != 3 {
		t.Fatalf("Add: %+v", total)
	}
}

func TestRefreshOne(t *testing.T) {
	repo := newFakeRepo(domain.Accommodation{ID: 5, Name: "Old"})
	cache := &fakeCache{}
	leads := &fakeLeads{record: map[string]any{"name": "New", "updated_at": "2024-07-01T00:00:00Z"}}
	svc := app.NewIngestionService(leads, repo, cache)

	a, err := svc.RefreshOne(context.Background(), 5)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if a.ID != 5 || repo.items[5].Name != "New" || !a.UpdatedAt.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("refreshed: %+v", a)
	}
	if strings.Join(cache.dels, ",") != "accommodation:5,accommodations:snapshot" {
		t.Fatalf("invalidation: %v", cache.dels)
	}

	cache.dels = nil
	leads.record = map[string]any{"id": 8.0, "name": "Moved"}
	if a, err := svc.RefreshOne(context.Background(), 7); err != nil || a.ID != 8 {
		t.Fatalf("refresh with backend id: %+v %v", a, err)
	}
	if strings.Join(cache.dels, ",") != "accommodation:7,accommodation:8,accommodations:snapshot" {
		t.Fatalf("both record keys must be dropped: %v", cache.dels)
	}

	leads.record, leads.recordErr = nil, fmt.Errorf("leadsapi: %w", domain.ErrNotFound)
	if _, err := svc.RefreshOne(context.Background(), 6); !errors.Is(err, domain.ErrNotFound) || errors.Is(err, app.ErrUpstream) {
		t.Fatalf("expected not found, got %v", err)
	}
	leads.recordErr = errors.New("502")
	if _, err := svc.RefreshOne(context.Background(), 6); !errors.Is(err, app.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestStartScan(t *testing.T) {
	leads := &fakeLeads{}
	svc := app.NewIngestionService(leads, newFakeRepo(), nil)

	if _, err := svc.StartScan(context.Background(), domain.ScanOSM, " "); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, err := svc.StartScan(context.Background(), domain.ScanGooglePlaces, "Mangystau"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if strings.Join(leads.scanned, ",") != "osm/Almaty,google-places/Mangystau" {
		t.Fatalf("scans: %v", leads.scanned)
	}
	if _, err := svc.StartScan(context.Background(), "bing", ""); !errors.Is(err, app.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	leads.scanErr = errors.New("down")
	if _, err := svc.StartScan(context.Background(), domain.ScanOSM, ""); !errors.Is(err, app.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestOutreach_Request(t *testing.T) {
	repo := newFakeRepo(domain.Accommodation{ID: 3, Name: "Lodge"})
	q := app.NewQueryService(repo, &fakeCache{}, time.Minute)
	leads := &fakeLeads{outreach: "Добрый день!"}
	svc := app.NewOutreachService(q, leads)

	msg, err := svc.Request(context.Background(), 3, domain.ChannelTelegram)
	if err != nil || msg != "Добрый день!" {
		t.Fatalf("request: %q %v", msg, err)
	}
	if _, err := svc.Request(context.Background(), 99, domain.ChannelEmail); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	leads.outreachErr = errors.New("boom")
	if _, err := svc.Request(context.Background(), 3, domain.ChannelEmail); !errors.Is(err, app.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	if _, err := app.ParseChannel("sms"); !errors.Is(err, app.ErrInvalidArgument) {
		t.Fatalf("expected invalid channel")
	}
	if ch, err := app.ParseChannel("whatsapp"); err != nil || ch != domain.ChannelWhatsApp {
		t.Fatalf("parse: %v %v", ch, err)
	}
}

func remoteItems(ids ...int) []map[string]any {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": float64(id), "name": fmt.Sprintf("obj-%d", id)})
	}
	return out
}

func TestIngestAll_FollowsServedPageSize(t *testing.T) {
	// backend caps limit at 2 even though 4 were asked for
	leads := &fakeLeads{pages: map[int]domain.RemotePage{
		0: {Total: 5, Limit: 2, Items: remoteItems(1, 2)},
		2: {Total: 5, Limit: 2, Items: remoteItems(3, 4)},
		4: {Total: 5, Limit: 2, Items: remoteItems(5)},
	}}
	repo := newFakeRepo()
	svc := app.NewIngestionService(leads, repo, &fakeCache{})

	st, total, err := svc.IngestAll(context.Background(), 4, 3)
	if err != nil {
		t.Fatalf("ingest all: %v", err)
	}
	if total != 5 || st.Upserted != 5 || len(repo.items) != 5 {
		t.Fatalf("expected every record, got total=%d stats=%+v stored=%d", total, st, len(repo.items))
	}
	for _, q := range leads.queries[1:] {
		if q.Limit != 2 {
			t.Fatalf("follow-up pages must use the served size: %+v", q)
		}
	}
}

func TestIngestAll_PageFailures(t *testing.T) {
	leads := &fakeLeads{
		pages: map[int]domain.RemotePage{
			0: {Total: 6, Limit: 2, Items: remoteItems(1, 2)},
			4: {Total: 6, Limit: 2, Items: remoteItems(5, 6)},
		},
		pageErrs: map[int]error{2: errors.New("timeout")},
	}
	repo := newFakeRepo()
	st, _, err := app.NewIngestionService(leads, repo, nil).IngestAll(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("later page failures must not fail the run: %v", err)
	}
	if st.Upserted != 4 {
		t.Fatalf("stats: %+v", st)
	}

	down := &fakeLeads{pageErr: errors.New("dial tcp: connection refused")}
	if _, _, err := app.NewIngestionService(down, newFakeRepo(), nil).IngestAll(context.Background(), 2, 2); err == nil {
		t.Fatalf("a failing first page must be reported")
	}
}
