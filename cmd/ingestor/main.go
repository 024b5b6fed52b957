package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"mytravel_leads/internal/adapters/leadsapi"
	"mytravel_leads/internal/adapters/observability"
	redisad "mytravel_leads/internal/adapters/redis"
	"mytravel_leads/internal/app"
	"mytravel_leads/internal/domain"
	"mytravel_leads/internal/shared"
	mysqlrepo "mytravel_leads/internal/storage/mysql"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred closes still happen.
func run() int {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise), tagged per run
	runID := uuid.NewString()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("run_id", runID).Logger()
	observability.InitRegistry()

	log.Info().
		Str("base", cfg.LeadsBase).
		Bool("remote", cfg.Remote).
		Int("workers", cfg.Workers).
		Int("page_size", cfg.PageSize).
		Str("seed", cfg.SeedFile).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error().Err(err).Msg("sql.Open failed")
		return 1
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("db.Ping failed")
		return 1
	}
	log.Info().Msg("db ping ok")
	if cfg.AutoMigrate {
		if err := mysqlrepo.Migrate(ctx, db); err != nil {
			log.Error().Err(err).Msg("migrations failed")
			return 1
		}
	}

	repo := mysqlrepo.New(db)
	client, err := leadsapi.New(cfg.LeadsBase, cfg.LeadsKey, cfg.LeadsRPS)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize leads client")
		return 1
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	ing := app.NewIngestionService(client, repo, cache)

	// 2) optional local seed (mock data set or a saved list page)
	if cfg.SeedFile != "" {
		err := ingestSeed(ctx, ing, cfg.SeedFile)
		// part of the seed may already be stored
		ing.InvalidateSnapshot(ctx)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.SeedFile).Msg("seed ingest failed")
			return 1
		}
	}
	if !cfg.Remote {
		log.Info().Msg("remote ingestion disabled")
		return 0
	}

	// 3) optionally ask the backend to collect a region first
	if cfg.ScanSource != "" {
		res, err := ing.StartScan(ctx, domain.ScanSource(cfg.ScanSource), cfg.ScanRegion)
		if err != nil {
			log.Warn().Err(err).Str("source", cfg.ScanSource).Msg("scan request failed")
		} else {
			log.Info().Str("source", cfg.ScanSource).Str("region", cfg.ScanRegion).Interface("response", res).Msg("scan started")
		}
	}

	// 4) page 0 tells us the total; remaining pages fan out
	total, remoteTotal, err := ing.IngestAll(ctx, cfg.PageSize, cfg.Workers)
	observability.ObserveIngest("leadsapi", total.Upserted, total.Skipped)
	ing.InvalidateSnapshot(ctx)
	if err != nil {
		log.Error().Err(err).Int("upserted", total.Upserted).Msg("remote ingestion failed")
		return 1
	}

	log.Info().
		Int("remote_total", remoteTotal).
		Int("upserted", total.Upserted).
		Int("skipped", total.Skipped).
		Msg("ingestion completed")

	compareDashboards(ctx, client, app.NewQueryService(repo, cache, cfg.CacheTTL))
	return 0
}

func ingestSeed(ctx context.Context, ing *app.IngestionService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	payloads, err := app.ReadSeed(f)
	if err != nil {
		return err
	}
	st, err := ing.IngestPayloads(ctx, payloads)
	observability.ObserveIngest("seed", st.Upserted, st.Skipped)
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Int("upserted", st.Upserted).Int("skipped", st.Skipped).Msg("seed loaded")
	return nil
}

// compareDashboards logs the backend's own figures next to ours so drift
// between the two stores shows up in the run log.
func compareDashboards(ctx context.Context, c domain.LeadsClient, q *app.QueryService) {
	local, err := q.Dashboard(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("local dashboard failed")
		return
	}
	remote, err := c.Dashboard(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("remote dashboard failed")
		return
	}
	ev := log.Info()
	if remote.TotalAccommodations != local.Total || remote.HotLeads != local.HotLeads {
		ev = log.Warn()
	}
	ev.
		Int("local_total", local.Total).
		Int("remote_total", remote.TotalAccommodations).
		Int("local_hot", local.HotLeads).
		Int("remote_hot", remote.HotLeads).
		Float64("local_avg_priority", local.Means.Priority).
		Float64("remote_avg_priority", remote.AveragePriorityScore).
		Msg("dashboard comparison")
}
