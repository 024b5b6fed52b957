package app

import (
	"context"
	"fmt"

	"mytravel_leads/internal/domain"
)

type OutreachService struct {
	q     *QueryService
	leads domain.LeadsClient
}

func NewOutreachService(q *QueryService, c domain.LeadsClient) *OutreachService {
	return &OutreachService{q: q, leads: c}
}

// ParseChannel validates an outreach channel name.
func ParseChannel(s string) (domain.Channel, error) {
	switch c := domain.Channel(s); c {
	case domain.ChannelWhatsApp, domain.ChannelEmail, domain.ChannelTelegram, domain.ChannelInstagram:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown channel %q", ErrInvalidArgument, s)
}

// Request asks the leads backend for a generated outreach message. The record
// must exist locally; the upstream text is returned as-is.
func (s *OutreachService) Request(ctx context.Context, id int64, ch domain.Channel) (string, error) {
	if _, err := s.q.Get(ctx, id); err != nil {
		return "", err
	}
	msg, err := s.leads.GenerateOutreach(ctx, id, ch)
	if err != nil {
		return "", fmt.Errorf("outreach %d via %s: %w: %w", id, ch, ErrUpstream, err)
	}
	return msg, nil
}
