package contact

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/go-folio/internal/config"
)

// Relay validates submissions and forwards them to the site owner.
type Relay struct {
	mailer  Mailer
	from    string
	to      []string
	maxSkew time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewRelay creates a relay from the contact configuration.
func NewRelay(mailer Mailer, cfg config.ContactConfig, logger *slog.Logger) (*Relay, error) {
	if cfg.To == "" {
		return nil, ErrNoRecipient
	}
	if logger == nil {
		logger = slog.Default()
	}
	from := cfg.From
	if from == "" {
		from = config.DefaultContactFrom
	}
	return &Relay{
		mailer:  mailer,
		from:    from,
		to:      []string{cfg.To},
		maxSkew: cfg.MaxSkew,
		now:     time.Now,
		logger:  logger.With("component", "contact"),
	}, nil
}

// Send checks s and emails it. It returns the provider message ID.
func (r *Relay) Send(ctx context.Context, s Submission) (string, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)

	if err := s.Validate(); err != nil {
		return "", err
	}
	if err := s.Screen(r.now(), r.maxSkew); err != nil {
		r.logger.Info("contact submission rejected", "reason", err)
		return "", err
	}

	id, err := r.mailer.Send(ctx, Email{
		From:    r.from,
		To:      r.to,
		ReplyTo: s.Email,
		Subject: Subject(s),
		HTML:    RenderHTML(s),
	})
	if err != nil {
		r.logger.Error("failed to send contact email", "error", err)
		return "", err
	}

	r.logger.Info("contact email sent", "id", id, "chars", len(s.Message))
	return id, nil
}
