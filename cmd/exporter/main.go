package main

import (
	"bytes"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"mytravel_leads/internal/adapters/leadsapi"
	"mytravel_leads/internal/adapters/observability"
	redisad "mytravel_leads/internal/adapters/redis"
	"mytravel_leads/internal/app"
	"mytravel_leads/internal/domain"
	"mytravel_leads/internal/export"
	"mytravel_leads/internal/shared"
	mysqlrepo "mytravel_leads/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	observability.InitRegistry()

	var (
		formats   = flag.String("formats", "json,csv", "comma separated export formats")
		dir       = flag.String("dir", cfg.ExportDir, "output directory")
		region    = flag.String("region", "", "only records from this region")
		category  = flag.String("category", "", "only records of this category")
		tier      = flag.String("lead-status", "", "only records of this lead tier (hot|warm|cold)")
		analytics = flag.Bool("analytics", true, "include scores and lead tier in JSON")
		contacts  = flag.Bool("contacts", true, "include contacts in JSON")
		descs     = flag.Bool("descriptions", true, "include descriptions in JSON")
		remote    = flag.Bool("remote-csv", false, "also save the backend's own CSV export")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	q := app.NewQueryService(mysqlrepo.New(db), cache, cfg.CacheTTL)

	f := domain.Filter{
		Region:     *region,
		Category:   domain.ParseCategory(*category),
		LeadStatus: domain.ParseTier(*tier),
	}
	if *category != "" && f.Category == "" {
		log.Fatal().Str("category", *category).Msg("unknown category")
	}
	items, err := q.Filtered(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Msg("load records failed")
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("create export dir failed")
	}
	opts := export.Options{IncludeAnalytics: *analytics, IncludeContacts: *contacts, IncludeDescriptions: *descs}
	now := time.Now()

	for _, name := range splitList(*formats) {
		fm, err := export.ParseFormat(name)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -formats")
		}
		path := filepath.Join(*dir, export.FileName(fm, now))
		if err := writeFile(path, fm, items, opts); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("export failed")
		}
		observability.ObserveExport(string(fm), "file")
		log.Info().Str("path", path).Int("records", len(items)).Msg("export written")
	}

	if *remote {
		if err := saveRemoteCSV(ctx, cfg, *dir, now); err != nil {
			log.Warn().Err(err).Msg("remote CSV export failed")
		}
	}
}

// writeFile renders into memory first so a failed export never leaves a
// truncated file behind.
func writeFile(path string, fm export.Format, items []domain.Accommodation, opts export.Options) error {
	var buf bytes.Buffer
	if err := export.Write(&buf, fm, items, opts); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func saveRemoteCSV(ctx context.Context, cfg shared.Config, dir string, now time.Time) error {
	client, err := leadsapi.New(cfg.LeadsBase, cfg.LeadsKey, cfg.LeadsRPS)
	if err != nil {
		return err
	}
	b, err := client.ExportCSV(ctx)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("remote-%s", export.FileName(export.FormatCSV, now)))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	observability.ObserveExport(string(export.FormatCSV), "remote")
	log.Info().Str("path", path).Int("bytes", len(b)).Msg("remote export saved")
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
