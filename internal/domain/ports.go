package domain

import "context"

type AccommodationRepository interface {
	// Write paths
	Upsert(ctx context.Context, a Accommodation) error
	LogMiss(ctx context.Context, id int64, status int, reason string) error

	// Read paths
	Get(ctx context.Context, id int64) (Accommodation, error)
	List(ctx context.Context) ([]Accommodation, error) // full snapshot ordered by id
}

// LeadsClient talks to the external leads backend. Payloads stay loose
// (map[string]any) and are normalized by the app layer.
type LeadsClient interface {
	ListAccommodations(ctx context.Context, q RemoteQuery) (RemotePage, error)
	GetAccommodation(ctx context.Context, id int64) (map[string]any, error)
	StartScan(ctx context.Context, source ScanSource, region string) (map[string]any, error)
	GenerateOutreach(ctx context.Context, id int64, channel Channel) (string, error)
	Dashboard(ctx context.Context) (RemoteDashboard, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

type Filter struct {
	Query       string
	Category    Category
	Status      Status
	LeadStatus  LeadTier
	Region      string
	MinPriority *float64
}

type PageQuery struct {
	Skip  int
	Limit int
}

type AccommodationsPage struct {
	Total int             `json:"total"`
	Skip  int             `json:"skip"`
	Limit int             `json:"limit"`
	Items []Accommodation `json:"items"`
}

type RemoteQuery struct {
	Skip        int
	Limit       int
	Region      string
	Type        string
	LeadStatus  string
	MinPriority *float64
}

type RemotePage struct {
	Total int              `json:"total"`
	Skip  int              `json:"skip"`
	Limit int              `json:"limit"`
	Items []map[string]any `json:"items"`
}

type RemoteDashboard struct {
	TotalAccommodations  int            `json:"total_accommodations"`
	HotLeads             int            `json:"hot_leads"`
	AveragePriorityScore float64        `json:"average_priority_score"`
	ByRegion             map[string]int `json:"by_region"`
	ByType               map[string]int `json:"by_type"`
}

type ScanSource string

const (
	ScanOSM          ScanSource = "osm"
	ScanGooglePlaces ScanSource = "google-places"
)

type Channel string

const (
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelEmail     Channel = "email"
	ChannelTelegram  Channel = "telegram"
	ChannelInstagram Channel = "instagram"
)
