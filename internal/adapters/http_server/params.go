package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"mytravel_leads/internal/app"
	"mytravel_leads/internal/domain"
	"mytravel_leads/internal/export"
)

const (
	defaultHotLeads   = 10
	defaultScanSource = string(domain.ScanOSM)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report query parameter names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("query") })
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.ParseCategory(fl.Field().String()) != ""
	})
	return v
}

type filterParams struct {
	Q           string   `query:"q" validate:"max=200"`
	Category    string   `query:"category" validate:"omitempty,category"`
	Status      string   `query:"status" validate:"omitempty,oneof=new verified in_progress"`
	LeadStatus  string   `query:"lead_status" validate:"omitempty,oneof=hot warm cold"`
	Region      string   `query:"region" validate:"max=128"`
	MinPriority *float64 `query:"min_priority" validate:"omitempty,gte=0,lte=10"`
}

func (p filterParams) filter() domain.Filter {
	return domain.Filter{
		Query:       p.Q,
		Category:    domain.ParseCategory(p.Category),
		Status:      domain.ParseStatus(p.Status),
		LeadStatus:  domain.ParseTier(p.LeadStatus),
		Region:      p.Region,
		MinPriority: p.MinPriority,
	}
}

type listParams struct {
	filterParams
	Skip  int `query:"skip" validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=1,lte=200"`
}

type exportParams struct {
	filterParams
	IncludeAnalytics    bool `query:"include_analytics"`
	IncludeContacts     bool `query:"include_contacts"`
	IncludeDescriptions bool `query:"include_descriptions"`
}

func (p exportParams) options() export.Options {
	return export.Options{
		IncludeAnalytics:    p.IncludeAnalytics,
		IncludeContacts:     p.IncludeContacts,
		IncludeDescriptions: p.IncludeDescriptions,
	}
}

type hotLeadParams struct {
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

type scanParams struct {
	Source string `query:"source" validate:"required,oneof=osm google-places"`
	Region string `query:"region" validate:"max=128"`
}

func parseFilterParams(q url.Values) (filterParams, error) {
	p := filterParams{
		Q:          strings.TrimSpace(q.Get("q")),
		Category:   q.Get("category"),
		Status:     strings.ToLower(q.Get("status")),
		LeadStatus: strings.ToLower(q.Get("lead_status")),
		Region:     strings.TrimSpace(q.Get("region")),
	}
	if s := q.Get("min_priority"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return p, errors.New("min_priority must be a number")
		}
		p.MinPriority = &f
	}
	return p, nil
}

func parseListParams(r *http.Request) (listParams, error) {
	q := r.URL.Query()
	fp, err := parseFilterParams(q)
	if err != nil {
		return listParams{}, err
	}
	p := listParams{filterParams: fp, Limit: app.DefaultPageSize}
	if p.Skip, err = intParam(q, "skip", 0); err != nil {
		return p, err
	}
	if p.Limit, err = intParam(q, "limit", app.DefaultPageSize); err != nil {
		return p, err
	}
	return p, check(p)
}

func parseExportParams(r *http.Request) (exportParams, error) {
	q := r.URL.Query()
	fp, err := parseFilterParams(q)
	if err != nil {
		return exportParams{}, err
	}
	def := export.DefaultOptions()
	p := exportParams{filterParams: fp}
	if p.IncludeAnalytics, err = boolParam(q, "include_analytics", def.IncludeAnalytics); err != nil {
		return p, err
	}
	if p.IncludeContacts, err = boolParam(q, "include_contacts", def.IncludeContacts); err != nil {
		return p, err
	}
	if p.IncludeDescriptions, err = boolParam(q, "include_descriptions", def.IncludeDescriptions); err != nil {
		return p, err
	}
	return p, check(p)
}

func parseHotLeadParams(r *http.Request) (hotLeadParams, error) {
	n, err := intParam(r.URL.Query(), "limit", defaultHotLeads)
	if err != nil {
		return hotLeadParams{}, err
	}
	p := hotLeadParams{Limit: n}
	return p, check(p)
}

func parseScanParams(r *http.Request) (scanParams, error) {
	q := r.URL.Query()
	p := scanParams{Source: q.Get("source"), Region: strings.TrimSpace(q.Get("region"))}
	if p.Source == "" {
		p.Source = defaultScanSource
	}
	return p, check(p)
}

func intParam(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func boolParam(q url.Values, key string, def bool) (bool, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

// check runs struct validation and flattens failures into one message.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: invalid %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
