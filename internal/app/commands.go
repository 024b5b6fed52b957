package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"mytravel_leads/internal/domain"
)

type IngestStats struct {
	Upserted int
	Skipped  int
}

func (s *IngestStats) Add(o IngestStats) {
	s.Upserted += o.Upserted
	s.Skipped += o.Skipped
}

type IngestionService struct {
	leads domain.LeadsClient
	repo  domain.AccommodationRepository
	cache domain.Cache
	now   func() time.Time
}

func NewIngestionService(c domain.LeadsClient, r domain.AccommodationRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{leads: c, repo: r, cache: cache, now: time.Now}
}

// IngestPayloads normalizes raw records (either payload shape), upserts the
// valid ones and logs the rest as misses. Only store failures are returned.
func (s *IngestionService) IngestPayloads(ctx context.Context, payloads []map[string]any) (IngestStats, error) {
	var st IngestStats
	for _, p := range payloads {
		a := mapAccommodation(p)
		if err := a.Validate(); err != nil {
			st.Skipped++
			_ = s.repo.LogMiss(ctx, a.ID, http.StatusUnprocessableEntity, err.Error())
			log.Warn().Int64("id", a.ID).Err(err).Msg("record skipped")
			continue
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = s.now().UTC()
		}
		if err := s.repo.Upsert(ctx, a); err != nil {
			return st, fmt.Errorf("upsert %d: %w", a.ID, err)
		}
		if s.cache != nil {
			_ = s.cache.Del(ctx, recordKey(a.ID))
		}
		st.Upserted++
	}
	return st, nil
}

// IngestPage pulls one remote page and stores it. 404/401/403 on the page are
// recorded as misses and reported as an empty page rather than an error.
func (s *IngestionService) IngestPage(ctx context.Context, q domain.RemoteQuery) (domain.RemotePage, IngestStats, error) {
	page, err := s.leads.ListAccommodations(ctx, q)
	if err != nil {
		reason := fmt.Sprintf("page:skip=%d", q.Skip)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, 0, http.StatusNotFound, reason)
			return domain.RemotePage{}, IngestStats{}, nil
		case errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, 0, http.StatusForbidden, reason)
			return domain.RemotePage{}, IngestStats{}, nil
		}
		return domain.RemotePage{}, IngestStats{}, err
	}
	st, err := s.IngestPayloads(ctx, page.Items)
	return page, st, err
}

// IngestAll walks every remote page. Page 0 gives the total; the rest are
// fetched by at most workers goroutines. The stride follows the page size
// the backend actually served, so a server-side limit cap leaves no gaps.
// Only a failing first page is returned; later page failures are logged.
func (s *IngestionService) IngestAll(ctx context.Context, pageSize, workers int) (IngestStats, int, error) {
	first, total, err := s.IngestPage(ctx, domain.RemoteQuery{Limit: pageSize})
	if err != nil {
		return total, 0, fmt.Errorf("first page: %w", err)
	}
	stride := pageStride(first, pageSize)
	if workers < 1 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(workers))
	)
	for skip := stride; skip < first.Total; skip += stride {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(skip int) {
			defer wg.Done()
			defer sem.Release(1)

			_, pst, err := s.IngestPage(ctx, domain.RemoteQuery{Skip: skip, Limit: stride})
			mu.Lock()
			total.Add(pst)
			mu.Unlock()
			if err != nil {
				log.Warn().Int("skip", skip).Err(err).Msg("page ingest failed")
				return
			}
			log.Debug().Int("skip", skip).Int("upserted", pst.Upserted).Msg("page ok")
		}(skip)
	}
	wg.Wait()
	return total, first.Total, ctx.Err()
}

func pageStride(first domain.RemotePage, requested int) int {
	stride := requested
	if first.Limit > 0 && first.Limit < stride {
		stride = first.Limit
	}
	if n := len(first.Items); n > 0 && n < stride && n < first.Total {
		stride = n
	}
	if stride < 1 {
		stride = 1
	}
	return stride
}

// RefreshOne re-fetches a single record from the leads backend.
func (s *IngestionService) RefreshOne(ctx context.Context, id int64) (domain.Accommodation, error) {
	p, err := s.leads.GetAccommodation(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.repo.LogMiss(ctx, id, http.StatusNotFound, "refresh")
			return domain.Accommodation{}, err
		}
		return domain.Accommodation{}, fmt.Errorf("refresh %d: %w: %w", id, ErrUpstream, err)
	}
	a := mapAccommodation(p)
	if a.ID == 0 {
		a.ID = id
	}
	if err := a.Validate(); err != nil {
		return domain.Accommodation{}, err
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = s.now().UTC()
	}
	if err := s.repo.Upsert(ctx, a); err != nil {
		return domain.Accommodation{}, err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, recordKey(id))
		if a.ID != id {
			// the backend answered with another id; that key is stale too
			_ = s.cache.Del(ctx, recordKey(a.ID))
		}
		s.InvalidateSnapshot(ctx)
	}
	return a, nil
}

// StartScan asks the leads backend to collect a region from the given source.
func (s *IngestionService) StartScan(ctx context.Context, source domain.ScanSource, region string) (map[string]any, error) {
	switch source {
	case domain.ScanOSM, domain.ScanGooglePlaces:
	default:
		return nil, fmt.Errorf("%w: unknown scan source %q", ErrInvalidArgument, source)
	}
	region = strings.TrimSpace(region)
	if region == "" {
		region = DefaultRegion
	}
	out, err := s.leads.StartScan(ctx, source, region)
	if err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w: %w", source, region, ErrUpstream, err)
	}
	return out, nil
}

func (s *IngestionService) InvalidateSnapshot(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, snapshotKey)
	}
}

const DefaultRegion = "Almaty"
