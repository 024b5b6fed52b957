// Package contact builds the outbound URIs a record's contacts open.
package contact

import (
	"net/url"
	"strings"

	"mytravel_leads/internal/domain"
)

type Kind string

const (
	KindPhone     Kind = "phone"
	KindEmail     Kind = "email"
	KindWhatsApp  Kind = "whatsapp"
	KindInstagram Kind = "instagram"
	KindTelegram  Kind = "telegram"
	KindWebsite   Kind = "website"
)

type Link struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

func Phone(s string) string { return "tel:" + strings.ReplaceAll(strings.TrimSpace(s), " ", "") }

func Email(s string) string { return "mailto:" + strings.TrimSpace(s) }

// WhatsApp keeps only the digits of the number.
func WhatsApp(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return "https://wa.me/" + b.String()
}

func Instagram(s string) string { return "https://instagram.com/" + handle(s) }

func Telegram(s string) string { return "https://t.me/" + handle(s) }

// Website prepends https:// unless the value is already an http(s) URL.
// "host:port" parses with the host as scheme, so the scheme is checked by name.
func Website(s string) string {
	s = strings.TrimSpace(s)
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return s
	}
	return "https://" + strings.TrimPrefix(s, "//")
}

func handle(s string) string {
	s = strings.TrimSpace(s)
	// accept pasted profile URLs too
	if i := strings.LastIndex(strings.TrimRight(s, "/"), "/"); i >= 0 {
		s = strings.TrimRight(s, "/")[i+1:]
	}
	return strings.TrimPrefix(s, "@")
}

// Links lists every contact affordance the record supports, in display order.
func Links(a domain.Accommodation) []Link {
	c := a.Contacts
	out := make([]Link, 0, 6)
	add := func(k Kind, p *string, build func(string) string) {
		if p == nil || strings.TrimSpace(*p) == "" {
			return
		}
		out = append(out, Link{Kind: k, Label: strings.TrimSpace(*p), URI: build(*p)})
	}
	add(KindPhone, c.Phone, Phone)
	add(KindWhatsApp, c.WhatsApp, WhatsApp)
	add(KindEmail, c.Email, Email)
	add(KindWebsite, c.Website, Website)
	add(KindInstagram, c.Instagram, Instagram)
	add(KindTelegram, c.Telegram, Telegram)
	return out
}
