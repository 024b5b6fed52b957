// Package export serializes accommodation records to downloadable JSON and
// CSV snapshots.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"mytravel_leads/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// Options select which field groups a JSON export carries.
type Options struct {
	IncludeAnalytics    bool // scores and lead status
	IncludeContacts     bool
	IncludeDescriptions bool
}

func DefaultOptions() Options {
	return Options{IncludeAnalytics: true, IncludeContacts: true, IncludeDescriptions: true}
}

const filePrefix = "mytravel-objects"

// FileName is the dated download name, e.g. mytravel-objects-2025-10-17.csv.
func FileName(f Format, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", filePrefix, at.UTC().Format("2006-01-02"), f)
}

// Write dispatches on format. Options only affect JSON; the CSV column set is fixed.
func Write(w io.Writer, f Format, in []domain.Accommodation, opts Options) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, in)
	case FormatJSON:
		return WriteJSON(w, in, opts)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// record mirrors domain.Accommodation's JSON names so an export decodes back
// into the domain type; excluded groups are simply absent.
type record struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Category      domain.Category  `json:"category"`
	Region        string           `json:"region,omitempty"`
	Address       string           `json:"address,omitempty"`
	Coords        *domain.Coords   `json:"coords,omitempty"`
	Status        domain.Status    `json:"status,omitempty"`
	LeadStatus    domain.LeadTier  `json:"lead_status,omitempty"`
	Contacts      *domain.Contacts `json:"contacts,omitempty"`
	PriceMin      *float64         `json:"price_min,omitempty"`
	PriceMax      *float64         `json:"price_max,omitempty"`
	Capacity      *int             `json:"capacity,omitempty"`
	Rating        *float64         `json:"rating,omitempty"`
	ReviewCount   *int             `json:"review_count,omitempty"`
	Description   *string          `json:"description,omitempty"`
	AIDescription *string          `json:"ai_description,omitempty"`
	Photos        []string         `json:"photos,omitempty"`
	Amenities     []string         `json:"amenities,omitempty"`
	DataSources   []string         `json:"data_sources,omitempty"`
	Scores        *domain.Scores   `json:"scores,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func project(a domain.Accommodation, opts Options) record {
	r := record{
		ID:          a.ID,
		Name:        a.Name,
		Category:    a.Category,
		Region:      a.Region,
		Address:     a.Address,
		Coords:      a.Coords,
		Status:      a.Status,
		PriceMin:    a.PriceMin,
		PriceMax:    a.PriceMax,
		Capacity:    a.Capacity,
		Rating:      a.Rating,
		ReviewCount: a.ReviewCount,
		Photos:      a.Photos,
		Amenities:   a.Amenities,
		DataSources: a.DataSources,
		UpdatedAt:   a.UpdatedAt,
	}
	if opts.IncludeAnalytics {
		sc := a.Scores
		r.Scores = &sc
		r.LeadStatus = a.LeadStatus
	}
	if opts.IncludeContacts {
		c := a.Contacts
		r.Contacts = &c
	}
	if opts.IncludeDescriptions {
		r.Description = a.Description
		r.AIDescription = a.AIDescription
	}
	return r
}

// WriteJSON emits a pretty-printed (2-space) UTF-8 array.
func WriteJSON(w io.Writer, in []domain.Accommodation, opts Options) error {
	out := make([]record, 0, len(in))
	for _, a := range in {
		out = append(out, project(a, opts))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
