package rates

import (
	"context"

	"github.com/rs/zerolog"
)

// RefreshJob fetches current rates for all approved pairs on a schedule,
// keeping the persistent cache warm and the daily history growing. When an
// annotate hook is set, the exposure book is re-annotated with the fresh
// rates afterwards.
type RefreshJob struct {
	service  *Service
	annotate func(context.Context) error
	log      zerolog.Logger
}

// NewRefreshJob creates a new rate refresh job. annotate may be nil.
func NewRefreshJob(service *Service, annotate func(context.Context) error, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service:  service,
		annotate: annotate,
		log:      log.With().Str("job", "rate_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "rate_refresh"
}

// Run refreshes all approved pairs, then re-annotates the exposure book.
func (j *RefreshJob) Run() error {
	if err := j.service.RefreshAll(); err != nil {
		return err
	}

	if j.annotate != nil {
		if err := j.annotate(context.Background()); err != nil {
			return err
		}
	}

	return nil
}
