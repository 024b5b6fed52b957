package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"mytravel_leads/internal/domain"
	"mytravel_leads/internal/export"
)

func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func sample() []domain.Accommodation {
	at := time.Date(2024, 9, 14, 6, 0, 0, 0, time.UTC)
	return []domain.Accommodation{
		{
			ID: 1, Name: `Юрта "Алтын"`, Category: domain.CategoryEthnoTourism, Region: "Almaty",
			Address: "Saty, 1", Coords: &domain.Coords{Lat: 43.05, Lon: 78.4},
			Status: domain.StatusVerified, LeadStatus: domain.TierHot,
			Contacts:    domain.Contacts{Phone: pstr("+7 701 555 0101"), Email: pstr("altyn@mail.kz")},
			PriceMin:    pfloat(12000), Capacity: pint(8), Rating: pfloat(4.7), ReviewCount: pint(19),
			Description: pstr("Yurt camp <near> the lake"), Photos: []string{"https://img/a.jpg"},
			Scores:      domain.Scores{OnlineActivity: 70, Popularity: 65, DataCompleteness: 90, CommercialPotential: 80, Priority: 8.7},
			UpdatedAt:   at,
		},
		{ID: 2, Name: "Plain", LeadStatus: domain.TierCold, Status: domain.StatusNew, UpdatedAt: at},
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	in := sample()
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, in, export.DefaultOptions()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Fatalf("expected 2-space indentation: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "<near>") {
		t.Fatalf("HTML must not be escaped")
	}
	var out []domain.Accommodation
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestWriteJSON_ExcludedGroups(t *testing.T) {
	var buf bytes.Buffer
	opts := export.Options{}
	if err := export.WriteJSON(&buf, sample(), opts); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"scores", "lead_status", "contacts", "description"} {
		if _, ok := raw[0][k]; ok {
			t.Fatalf("%s should be excluded", k)
		}
	}

	// everything else still round-trips
	var out []domain.Accommodation
	_ = json.Unmarshal(buf.Bytes(), &out)
	if out[0].Name != `Юрта "Алтын"` || out[0].Coords == nil || *out[0].Capacity != 8 {
		t.Fatalf("kept fields: %+v", out[0])
	}
}

func TestWriteCSV_Shape(t *testing.T) {
	in := sample()
	var buf bytes.Buffer
	if err := export.Write(&buf, export.FormatCSV, in, export.DefaultOptions()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 1+len(in) {
		t.Fatalf("expected %d lines, got %d", 1+len(in), len(lines))
	}
	if !strings.HasPrefix(lines[0], `"ID","Name","Category"`) {
		t.Fatalf("header not quoted: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"Юрта ""Алтын"""`) {
		t.Fatalf("embedded quotes not doubled: %s", lines[1])
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i, r := range rows {
		if len(r) != len(export.Header) {
			t.Fatalf("row %d: %d columns", i, len(r))
		}
	}
	if rows[1][1] != `Юрта "Алтын"` || rows[1][4] != "43.05" || rows[1][16] != "8.7" || rows[1][18] != "2024-09-14T06:00:00Z" {
		t.Fatalf("row values: %v", rows[1])
	}
	if rows[2][6] != "" || rows[2][10] != "" {
		t.Fatalf("absent values should be empty cells: %v", rows[2])
	}
}

func TestWriteCSV_EmptySet(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected header only: %q", buf.String())
	}
}

func TestFileNameAndFormat(t *testing.T) {
	at := time.Date(2025, 10, 17, 23, 30, 0, 0, time.FixedZone("ALMT", 5*3600))
	if got := export.FileName(export.FormatCSV, at); got != "mytravel-objects-2025-10-17.csv" {
		t.Fatalf("file name: %s", got)
	}
	if got := export.FileName(export.FormatJSON, at); got != "mytravel-objects-2025-10-17.json" {
		t.Fatalf("file name: %s", got)
	}
	if f, err := export.ParseFormat("CSV"); err != nil || f != export.FormatCSV {
		t.Fatalf("parse: %v %v", f, err)
	}
	if _, err := export.ParseFormat("xlsx"); err == nil {
		t.Fatalf("expected unsupported format")
	}
	if ct := export.FormatCSV.ContentType(); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type: %s", ct)
	}
}
