package app

import (
	"crypto/sha1"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	"mytravel_leads/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The first alias in each list is the API (snake_case) spelling, the rest
// cover the legacy dashboard shape.
var accommodationAliases = map[string][]string{
	"id":          {"id", "object_id", "objectId"},
	"name":        {"name", "title"},
	"category":    {"accommodation_type", "category", "type"},
	"region":      {"region", "oblast", "area"},
	"address":     {"address", "full_address", "location.address"},
	"status":      {"status", "verification_status"},
	"lead_status": {"lead_status", "leadPriority", "lead_priority"},
	"phone":       {"phone", "contacts.phone"},
	"email":       {"email", "contacts.email"},
	"whatsapp":    {"whatsapp", "contacts.whatsapp"},
	"instagram":   {"instagram", "contacts.instagram"},
	"telegram":    {"telegram", "contacts.telegram"},
	"website":     {"website", "contacts.website", "url"},
	"description": {"description", "seo_description"},
	"ai":          {"ai_generated_description", "aiDescription", "ai_description"},
	"updated_at":  {"updated_at", "lastUpdated", "last_updated", "created_at"},
}

var numericAliases = map[string][]string{
	"lat":          {"latitude", "lat", "coordinates.lat", "coords.lat", "location.lat"},
	"lon":          {"longitude", "lon", "lng", "coordinates.lng", "coordinates.lon", "coords.lon", "location.lng"},
	"price_min":    {"price_min", "priceRange.min", "price_range.min"},
	"price_max":    {"price_max", "priceRange.max", "price_range.max"},
	"capacity":     {"capacity", "beds", "places"},
	"rating":       {"rating", "rating.value"},
	"review_count": {"review_count", "reviewsCount", "reviews_count"},
	"priority":     {"priority_score", "priorityScore", "scores.priority_score"},
}

// sub-score keys: legacy values are 0-100, API values are 0-10.
var subScoreAliases = map[string]struct{ legacy, api []string }{
	"activity":   {legacy: []string{"activityScore", "scores.online_activity"}, api: []string{"online_activity_score"}},
	"popularity": {legacy: []string{"popularity", "scores.popularity"}, api: []string{"popularity_score"}},
	"complete":   {legacy: []string{"dataCompleteness", "scores.data_completeness"}, api: []string{"data_completeness_score"}},
	"commercial": {legacy: []string{"commercialPotential", "scores.commercial_potential"}, api: []string{"commercial_potential_score"}},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstNonEmpty(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) *string {
	if s := firstNonEmpty(m, accommodationAliases[key]...); s != "" {
		return &s
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			if finite(v) {
				f := v
				return &f
			}
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			// ParseFloat accepts "NaN" and "Inf"; those count as absent
			if f, err := strconv.ParseFloat(s, 64); err == nil && finite(f) {
				return &f
			}
		}
	}
	return nil
}

func getIntFlexible(m map[string]any, paths ...string) *int {
	if f := getFloatFlexible(m, paths...); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
						continue
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func clamp(f, lo, hi float64) float64 {
	if math.IsNaN(f) || f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

/********** id / time **********/

// mapID accepts numeric ids and numeric strings. Other strings get a stable
// positive id from their SHA-1, kept within the JSON-safe integer range.
func mapID(p map[string]any) int64 {
	for _, k := range accommodationAliases["id"] {
		switch v := lookupAny(p, k).(type) {
		case float64:
			return int64(v)
		case int:
			return int64(v)
		case int64:
			return v
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
			sum := sha1.Sum([]byte(s))
			return int64(binary.BigEndian.Uint64(sum[:8])&(1<<53-1)) | 1
		}
	}
	return 0
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) time.Time {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

/********** scores **********/

func subScore(p map[string]any, key string) float64 {
	a := subScoreAliases[key]
	if f := getFloatFlexible(p, a.legacy...); f != nil {
		return clamp(*f, 0, 100)
	}
	if f := getFloatFlexible(p, a.api...); f != nil {
		return clamp(*f*10, 0, 100)
	}
	return 0
}

// priority is 0-10; anything above 10 is read as a 0-100 scale.
func priority(p map[string]any) float64 {
	f := getFloatFlexible(p, numericAliases["priority"]...)
	if f == nil {
		return 0
	}
	v := *f
	if v > 10 {
		v /= 10
	}
	return clamp(v, 0, 10)
}

/********** accommodation mapper **********/

// mapAccommodation normalizes either payload shape into the canonical record.
func mapAccommodation(p map[string]any) domain.Accommodation {
	a := domain.Accommodation{
		ID:       mapID(p),
		Name:     deref(firstNonEmptyAlias(p, "name")),
		Category: domain.ParseCategory(deref(firstNonEmptyAlias(p, "category"))),
		Region:   deref(firstNonEmptyAlias(p, "region")),
		Address:  deref(firstNonEmptyAlias(p, "address")),
		Status:   domain.ParseStatus(deref(firstNonEmptyAlias(p, "status"))),
		Contacts: domain.Contacts{
			Phone:     firstNonEmptyAlias(p, "phone"),
			Email:     firstNonEmptyAlias(p, "email"),
			WhatsApp:  firstNonEmptyAlias(p, "whatsapp"),
			Instagram: firstNonEmptyAlias(p, "instagram"),
			Telegram:  firstNonEmptyAlias(p, "telegram"),
			Website:   firstNonEmptyAlias(p, "website"),
		},
		PriceMin:      getFloatFlexible(p, numericAliases["price_min"]...),
		PriceMax:      getFloatFlexible(p, numericAliases["price_max"]...),
		Capacity:      getIntFlexible(p, numericAliases["capacity"]...),
		Rating:        getFloatFlexible(p, numericAliases["rating"]...),
		ReviewCount:   getIntFlexible(p, numericAliases["review_count"]...),
		Description:   firstNonEmptyAlias(p, "description"),
		AIDescription: firstNonEmptyAlias(p, "ai"),
		Photos:        firstSliceStrings(p, "photos", "images"),
		Amenities:     firstSliceStrings(p, "amenities", "infrastructure", "facilities"),
		DataSources:   firstSliceStrings(p, "data_sources", "dataSources", "sources"),
		Scores: domain.Scores{
			OnlineActivity:      subScore(p, "activity"),
			Popularity:          subScore(p, "popularity"),
			DataCompleteness:    subScore(p, "complete"),
			CommercialPotential: subScore(p, "commercial"),
			Priority:            priority(p),
		},
		UpdatedAt: parseTime(deref(firstNonEmptyAlias(p, "updated_at"))),
	}

	lat := getFloatFlexible(p, numericAliases["lat"]...)
	lon := getFloatFlexible(p, numericAliases["lon"]...)
	if lat != nil && lon != nil {
		a.Coords = &domain.Coords{Lat: *lat, Lon: *lon}
	}

	a.LeadStatus = domain.ParseTier(deref(firstNonEmptyAlias(p, "lead_status")))
	if a.LeadStatus == "" {
		a.LeadStatus = domain.TierFor(a.Scores.Priority)
	}
	if a.Status == "" {
		a.Status = domain.StatusNew
	}
	return a
}
