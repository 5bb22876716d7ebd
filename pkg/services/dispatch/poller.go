package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const DefaultPollInterval = 2 * time.Minute

// Poller runs Service.RunDue on a fixed interval. A run still in progress skips the next tick.
type Poller struct {
	cron    *cron.Cron
	service *Service
	logger  zerolog.Logger
	spec    string
}

func NewPoller(service *Service, interval time.Duration, logger zerolog.Logger) (*Poller, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{
		service: service,
		logger:  logger,
		spec:    fmt.Sprintf("@every %s", interval),
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := p.cron.AddFunc(p.spec, p.Poll); err != nil {
		return nil, fmt.Errorf("schedule report poll %q: %w", p.spec, err)
	}
	return p, nil
}

// Poll runs one pass over the overdue schedules.
func (p *Poller) Poll() {
	ctx := p.logger.WithContext(context.Background())
	sent, err := p.service.RunDue(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("report poll failed")
		return
	}
	if sent > 0 {
		p.logger.Info().Int("sent", sent).Msg("reports dispatched")
	}
}

func (p *Poller) Start() {
	p.logger.Info().Str("spec", p.spec).Msg("starting report poller")
	p.cron.Start()
}

// Stop stops the poller and waits for a running poll to finish.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
}
