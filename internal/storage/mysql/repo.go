package mysql

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"mytravel_leads/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(v []string) any {
	if v == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate applies the embedded schema files in name order. Statements are
// idempotent; the DSN needs multiStatements=true.
func Migrate(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := migrationsFS.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("migrate %s: %w", f, err)
		}
	}
	return nil
}

func (r *Repo) Upsert(ctx context.Context, a domain.Accommodation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	var lat, lon any
	if a.Coords != nil {
		lat, lon = a.Coords.Lat, a.Coords.Lon
	}
	status := a.Status
	if status == "" {
		status = domain.StatusNew
	}
	_, err := r.db.ExecContext(ctx, upsertAccommodationSQL,
		a.ID,
		a.Name,
		string(a.Category),
		a.Region,
		a.Address,
		lat, lon,
		string(status),
		string(a.LeadStatus),
		valStr(a.Contacts.Phone),
		valStr(a.Contacts.Email),
		valStr(a.Contacts.WhatsApp),
		valStr(a.Contacts.Instagram),
		valStr(a.Contacts.Telegram),
		valStr(a.Contacts.Website),
		valF64(a.PriceMin),
		valF64(a.PriceMax),
		valInt(a.Capacity),
		valF64(a.Rating),
		valInt(a.ReviewCount),
		valStr(a.Description),
		valStr(a.AIDescription),
		valJSON(a.Photos),
		valJSON(a.Amenities),
		valJSON(a.DataSources),
		a.Scores.OnlineActivity,
		a.Scores.Popularity,
		a.Scores.DataCompleteness,
		a.Scores.CommercialPotential,
		a.Scores.Priority,
		a.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func (r *Repo) Get(ctx context.Context, id int64) (domain.Accommodation, error) {
	a, err := scanAccommodation(r.db.QueryRowContext(ctx, getAccommodationSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Accommodation{}, domain.ErrNotFound
	}
	return a, err
}

func (r *Repo) List(ctx context.Context) ([]domain.Accommodation, error) {
	rows, err := r.db.QueryContext(ctx, listAccommodationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Accommodation{}
	for rows.Next() {
		a, err := scanAccommodation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanAccommodation(s scanner) (domain.Accommodation, error) {
	var a domain.Accommodation
	var (
		category, status, lead                         string
		lat, lon                                       sql.NullFloat64
		phone, email, whatsapp, instagram, tg, website sql.NullString
		priceMin, priceMax, rating                     sql.NullFloat64
		capacity, reviews                              sql.NullInt64
		desc, aiDesc                                   sql.NullString
		photos, amenities, sources                     []byte
	)
	if err := s.Scan(
		&a.ID, &a.Name, &category, &a.Region, &a.Address, &lat, &lon, &status, &lead,
		&phone, &email, &whatsapp, &instagram, &tg, &website,
		&priceMin, &priceMax, &capacity, &rating, &reviews,
		&desc, &aiDesc, &photos, &amenities, &sources,
		&a.Scores.OnlineActivity, &a.Scores.Popularity, &a.Scores.DataCompleteness,
		&a.Scores.CommercialPotential, &a.Scores.Priority,
		&a.UpdatedAt,
	); err != nil {
		return domain.Accommodation{}, err
	}

	a.Category = domain.Category(category)
	a.Status = domain.Status(status)
	a.LeadStatus = domain.LeadTier(lead)
	if lat.Valid && lon.Valid {
		a.Coords = &domain.Coords{Lat: lat.Float64, Lon: lon.Float64}
	}
	a.Contacts = domain.Contacts{
		Phone:     nullStr(phone),
		Email:     nullStr(email),
		WhatsApp:  nullStr(whatsapp),
		Instagram: nullStr(instagram),
		Telegram:  nullStr(tg),
		Website:   nullStr(website),
	}
	a.PriceMin = nullF64(priceMin)
	a.PriceMax = nullF64(priceMax)
	a.Rating = nullF64(rating)
	a.Capacity = nullInt(capacity)
	a.ReviewCount = nullInt(reviews)
	a.Description = nullStr(desc)
	a.AIDescription = nullStr(aiDesc)

	_ = json.Unmarshal(photos, &a.Photos)
	_ = json.Unmarshal(amenities, &a.Amenities)
	_ = json.Unmarshal(sources, &a.DataSources)
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
