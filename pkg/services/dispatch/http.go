package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/store/client"
	"github.com/rs/zerolog"
)

// HTTPDispatcher posts jobs as JSON to the report renderer.
type HTTPDispatcher struct {
	req *client.Requester
}

func NewHTTPDispatcher(url string, httpClient *http.Client) (*HTTPDispatcher, error) {
	if url == "" {
		return nil, fmt.Errorf("dispatcher url is empty")
	}
	req, err := client.NewRequester(url, domain.ConfigProfile{}, httpClient)
	if err != nil {
		return nil, err
	}
	return &HTTPDispatcher{req: req}, nil
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, job Job) error {
	if _, err := d.req.Do(ctx, http.MethodPost, "", job); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("schedule", job.ScheduleID).
		Int("recipients", len(job.Recipients)).
		Int("panels", len(job.Panels)).
		Bool("test", job.Test).
		Msg("report dispatched")
	return nil
}

// LogDispatcher only logs jobs. It is used when no renderer is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, job Job) error {
	zerolog.Ctx(ctx).Warn().
		Str("schedule", job.ScheduleID).
		Int("recipients", len(job.Recipients)).
		Int("panels", len(job.Panels)).
		Msg("no report dispatcher configured, report not sent")
	return nil
}
