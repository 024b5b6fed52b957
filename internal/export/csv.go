package export

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"mytravel_leads/internal/domain"
)

// Header is the fixed CSV column list.
var Header = []string{
	"ID", "Name", "Category", "Address", "Latitude", "Longitude",
	"Phone", "Email", "WhatsApp", "Website", "Capacity", "Price Min", "Price Max",
	"Rating", "Reviews", "Status", "Priority Score", "Lead Priority", "Last Updated",
}

// WriteCSV writes one header row and one row per record. Every cell is
// double-quoted and embedded quotes are doubled (RFC 4180).
func WriteCSV(w io.Writer, in []domain.Accommodation) error {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, Header); err != nil {
		return err
	}
	for _, a := range in {
		if err := writeRow(bw, row(a)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func row(a domain.Accommodation) []string {
	var lat, lon string
	if a.Coords != nil {
		lat, lon = fmtFloat(&a.Coords.Lat), fmtFloat(&a.Coords.Lon)
	}
	updated := ""
	if !a.UpdatedAt.IsZero() {
		updated = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Name,
		string(a.Category),
		a.Address,
		lat,
		lon,
		str(a.Contacts.Phone),
		str(a.Contacts.Email),
		str(a.Contacts.WhatsApp),
		str(a.Contacts.Website),
		fmtInt(a.Capacity),
		fmtFloat(a.PriceMin),
		fmtFloat(a.PriceMax),
		fmtFloat(a.Rating),
		fmtInt(a.ReviewCount),
		string(a.Status),
		strconv.FormatFloat(a.Scores.Priority, 'f', -1, 64),
		string(a.LeadStatus),
		updated,
	}
}

func writeRow(w *bufio.Writer, cells []string) error {
	for i, c := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(c, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func fmtFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func fmtInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
