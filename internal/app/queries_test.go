package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mytravel_leads/internal/app"
	"mytravel_leads/internal/domain"
)

func TestGet_CacheMissThenHit(t *testing.T) {
	repo := newFakeRepo(domain.Accommodation{ID: 42, Name: "Кольсай Глэмпинг", LeadStatus: domain.TierHot})
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	a, err := q.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if a.ID != 42 || a.Name != "Кольсай Глэмпинг" {
		t.Fatalf("unexpected record: %+v", a)
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.items[42] = domain.Accommodation{ID: 42, Name: "SHOULD NOT SEE THIS"}

	a2, err := q.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if a2.Name != "Кольсай Глэмпинг" {
		t.Fatalf("expected cached name, got %s", a2.Name)
	}

	if _, err := q.Get(context.Background(), 7); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshot_CachedAcrossQueries(t *testing.T) {
	repo := newFakeRepo(
		domain.Accommodation{ID: 1, Name: "A", Category: domain.CategoryEcoTourism, LeadStatus: domain.TierHot, Scores: domain.Scores{Priority: 9}},
		domain.Accommodation{ID: 2, Name: "B", Category: domain.CategoryMountainHouse, LeadStatus: domain.TierCold, Scores: domain.Scores{Priority: 2}},
	)
	q := app.NewQueryService(repo, &fakeCache{}, time.Minute)
	ctx := context.Background()

	page, err := q.List(ctx, domain.Filter{Category: domain.CategoryEcoTourism}, domain.PageQuery{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if _, err := q.Dashboard(ctx); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	hot, err := q.HotLeads(ctx, 5)
	if err != nil {
		t.Fatalf("HotLeads: %v", err)
	}
	if len(hot) != 1 || hot[0].ID != 1 {
		t.Fatalf("unexpected hot leads: %+v", hot)
	}
	all, _ := q.Filtered(ctx, domain.Filter{})
	if len(all) != 2 {
		t.Fatalf("Filtered: %d", len(all))
	}
	if repo.lists != 1 {
		t.Fatalf("expected one store scan, got %d", repo.lists)
	}
}

func TestList_PagingDoesNotAlias(t *testing.T) {
	repo := newFakeRepo(
		domain.Accommodation{ID: 1, Name: "A"},
		domain.Accommodation{ID: 2, Name: "B"},
		domain.Accommodation{ID: 3, Name: "C"},
	)
	q := app.NewQueryService(repo, &fakeCache{}, time.Minute)

	page, _ := q.List(context.Background(), domain.Filter{}, domain.PageQuery{Skip: 1, Limit: 1})
	if page.Total != 3 || len(page.Items) != 1 || page.Items[0].ID != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	page.Items[0].Name = "mutated"
	again, _ := q.List(context.Background(), domain.Filter{}, domain.PageQuery{Skip: 1, Limit: 1})
	if again.Items[0].Name != "B" {
		t.Fatalf("page items alias the snapshot")
	}
}
