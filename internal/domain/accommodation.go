package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryLuxuryGlamping   Category = "luxury_glamping"
	CategoryFamilyGuestHouse Category = "family_guest_house"
	CategoryEcoTourism       Category = "eco_tourism"
	CategoryEthnoTourism     Category = "ethno_tourism"
	CategoryMountainHouse    Category = "mountain_house"
)

// Categories lists the closed category enumeration in display order.
var Categories = []Category{
	CategoryLuxuryGlamping,
	CategoryFamilyGuestHouse,
	CategoryEcoTourism,
	CategoryEthnoTourism,
	CategoryMountainHouse,
}

// legacy dashboard spellings
var categoryAliases = map[string]Category{
	"family_guesthouse": CategoryFamilyGuestHouse,
	"ecotourism":        CategoryEcoTourism,
	"ethno_yurt":        CategoryEthnoTourism,
}

// ParseCategory accepts canonical and legacy spellings. Unknown values yield "".
func ParseCategory(s string) Category {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, " ", "_")
	v = strings.ReplaceAll(v, "-", "_")
	for _, c := range Categories {
		if string(c) == v {
			return c
		}
	}
	return categoryAliases[v]
}

type Status string

const (
	StatusNew        Status = "new"
	StatusVerified   Status = "verified"
	StatusInProgress Status = "in_progress"
)

func ParseStatus(s string) Status {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusNew, StatusVerified, StatusInProgress:
		return v
	}
	return ""
}

type LeadTier string

const (
	TierHot  LeadTier = "hot"
	TierWarm LeadTier = "warm"
	TierCold LeadTier = "cold"
)

func ParseTier(s string) LeadTier {
	switch v := LeadTier(strings.ToLower(strings.TrimSpace(s))); v {
	case TierHot, TierWarm, TierCold:
		return v
	}
	return ""
}

// TierFor classifies a 0-10 priority score when no tier was supplied.
func TierFor(priority float64) LeadTier {
	switch {
	case priority >= 8:
		return TierHot
	case priority >= 5:
		return TierWarm
	default:
		return TierCold
	}
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Contacts struct {
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	WhatsApp  *string `json:"whatsapp,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Telegram  *string `json:"telegram,omitempty"`
	Website   *string `json:"website,omitempty"`
}

// Scores are opaque inputs. Sub-scores are 0-100, Priority is 0-10.
type Scores struct {
	OnlineActivity      float64 `json:"online_activity"`
	Popularity          float64 `json:"popularity"`
	DataCompleteness    float64 `json:"data_completeness"`
	CommercialPotential float64 `json:"commercial_potential"`
	Priority            float64 `json:"priority_score"`
}

type Accommodation struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      Category  `json:"category"`
	Region        string    `json:"region,omitempty"`
	Address       string    `json:"address,omitempty"`
	Coords        *Coords   `json:"coords,omitempty"`
	Status        Status    `json:"status,omitempty"`
	LeadStatus    LeadTier  `json:"lead_status"`
	Contacts      Contacts  `json:"contacts"`
	PriceMin      *float64  `json:"price_min,omitempty"`
	PriceMax      *float64  `json:"price_max,omitempty"`
	Capacity      *int      `json:"capacity,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	ReviewCount   *int      `json:"review_count,omitempty"`
	Description   *string   `json:"description,omitempty"`
	AIDescription *string   `json:"ai_description,omitempty"`
	Photos        []string  `json:"photos,omitempty"`
	Amenities     []string  `json:"amenities,omitempty"`
	DataSources   []string  `json:"data_sources,omitempty"`
	Scores        Scores    `json:"scores"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks the invariants enforced at the store boundary.
func (a Accommodation) Validate() error {
	if a.ID <= 0 {
		return invalid("id must be positive")
	}
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name is required")
	}
	return nil
}

// HasContact reports whether a phone or email is known.
func (a Accommodation) HasContact() bool {
	return nonEmpty(a.Contacts.Phone) || nonEmpty(a.Contacts.Email)
}

func nonEmpty(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }
