package app

import (
	"sort"

	"mytravel_leads/internal/domain"
)

// ReadyForImportThreshold is the data completeness at which a record is
// considered complete enough to publish.
const ReadyForImportThreshold = 80

type ScoreMeans struct {
	OnlineActivity      float64 `json:"online_activity"`
	Popularity          float64 `json:"popularity"`
	DataCompleteness    float64 `json:"data_completeness"`
	CommercialPotential float64 `json:"commercial_potential"`
	Priority            float64 `json:"priority_score"`
}

type Summary struct {
	Total           int                     `json:"total"`
	HotLeads        int                     `json:"hot_leads"`
	Verified        int                     `json:"verified"`
	WithPhotos      int                     `json:"with_photos"`
	WithContacts    int                     `json:"with_contacts"`
	ReadyForImport  int                     `json:"ready_for_import"`
	TotalCapacity   int                     `json:"total_capacity"`
	AvgPriceMin     float64                 `json:"avg_price_min"`
	Means           ScoreMeans              `json:"means"`
	ByCategory      map[domain.Category]int `json:"by_category"`
	ByRegion        map[string]int          `json:"by_region"`
	ByStatus        map[domain.Status]int   `json:"by_status"`
	ByLeadStatus    map[domain.LeadTier]int `json:"by_lead_status"`
	RecentlyUpdated []domain.Accommodation  `json:"recently_updated"`
}

// Summarize computes the dashboard figures. An empty set yields zero means.
func Summarize(in []domain.Accommodation) Summary {
	s := Summary{
		ByCategory:      map[domain.Category]int{},
		ByRegion:        map[string]int{},
		ByStatus:        map[domain.Status]int{},
		ByLeadStatus:    map[domain.LeadTier]int{},
		RecentlyUpdated: RecentlyUpdated(in, 5),
	}
	s.Total = len(in)
	if s.Total == 0 {
		return s
	}

	var sum ScoreMeans
	var priceSum float64
	var priced int
	for _, a := range in {
		sum.OnlineActivity += a.Scores.OnlineActivity
		sum.Popularity += a.Scores.Popularity
		sum.DataCompleteness += a.Scores.DataCompleteness
		sum.CommercialPotential += a.Scores.CommercialPotential
		sum.Priority += a.Scores.Priority

		if a.LeadStatus == domain.TierHot {
			s.HotLeads++
		}
		if a.Status == domain.StatusVerified {
			s.Verified++
		}
		if len(a.Photos) > 0 {
			s.WithPhotos++
		}
		if a.HasContact() {
			s.WithContacts++
		}
		if a.Scores.DataCompleteness >= ReadyForImportThreshold {
			s.ReadyForImport++
		}
		if a.Capacity != nil {
			s.TotalCapacity += *a.Capacity
		}
		if a.PriceMin != nil {
			priceSum += *a.PriceMin
			priced++
		}
		if a.Category != "" {
			s.ByCategory[a.Category]++
		}
		if a.Region != "" {
			s.ByRegion[a.Region]++
		}
		s.ByStatus[a.Status]++
		s.ByLeadStatus[a.LeadStatus]++
	}

	n := float64(s.Total)
	s.Means = ScoreMeans{
		OnlineActivity:      sum.OnlineActivity / n,
		Popularity:          sum.Popularity / n,
		DataCompleteness:    sum.DataCompleteness / n,
		CommercialPotential: sum.CommercialPotential / n,
		Priority:            sum.Priority / n,
	}
	if priced > 0 {
		s.AvgPriceMin = priceSum / float64(priced)
	}
	return s
}

// TopHotLeads returns at most n hot-tier records by descending priority.
// Ties keep their source order.
func TopHotLeads(in []domain.Accommodation, n int) []domain.Accommodation {
	hot := make([]domain.Accommodation, 0, len(in))
	for _, a := range in {
		if a.LeadStatus == domain.TierHot {
			hot = append(hot, a)
		}
	}
	return topByPriority(hot, n)
}

func topByPriority(in []domain.Accommodation, n int) []domain.Accommodation {
	if n <= 0 {
		return []domain.Accommodation{}
	}
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].Scores.Priority > in[j].Scores.Priority
	})
	if len(in) > n {
		in = in[:n]
	}
	return in
}

// RecentlyUpdated returns the n most recently updated records.
func RecentlyUpdated(in []domain.Accommodation, n int) []domain.Accommodation {
	cp := make([]domain.Accommodation, len(in))
	copy(cp, in)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].UpdatedAt.After(cp[j].UpdatedAt)
	})
	if len(cp) > n {
		cp = cp[:n]
	}
	return cp
}
