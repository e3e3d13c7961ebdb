package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	report, err := q.ps.PublishPost(ctx, payload.PostID)
	if err != nil {
		log.Printf("Error publishing PostID %d: %v", payload.PostID, err)
		return err
	}

	log.Printf("Published PostID %d with status %s", report.PostID, report.Status)
	return nil
}
