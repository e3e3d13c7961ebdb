package job

import (
	"context"
	"log"
	"log/slog"

	"github.com/postflowhq/publisher/internal/service"
)

// PublishScheduledJob is the in-process trigger for the batch pipeline,
// firing on the same cadence as the selector's lookback window.
type PublishScheduledJob struct {
	ps service.PublishService
}

func NewPublishScheduledJob(ps service.PublishService) *PublishScheduledJob {
	return &PublishScheduledJob{ps: ps}
}

func (j *PublishScheduledJob) Run() {
	ctx := context.Background()

	report, err := j.ps.PublishDueScheduled(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	log.Printf("Publish run %s: %d due, %d published, %d failed, %d skipped",
		report.RunID, report.TotalDue, report.Published, report.Failed, report.Skipped)
}
