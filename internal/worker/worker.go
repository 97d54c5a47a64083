package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/storyreel/storyreel/internal/db"
	"github.com/storyreel/storyreel/internal/models"
	"github.com/storyreel/storyreel/internal/queue"
	"github.com/storyreel/storyreel/internal/render"
)

// Worker consumes render_story jobs and drives the export pipeline. Clip and
// timeline exports are served synchronously by the HTTP layer; full story
// renders are long enough to run out-of-band.
type Worker struct {
	db       *db.DB
	queue    *queue.Queue
	exporter *render.Exporter
}

func New(database *db.DB, q *queue.Queue, exporter *render.Exporter) *Worker {
	return &Worker{
		db:       database,
		queue:    q,
		exporter: exporter,
	}
}

// Start begins processing render jobs until ctx is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx, queue.QueueRenderStory, w.handleRenderStory)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context, queueName string, handler func(context.Context, *queue.Job) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, queueName, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error dequeuing from %s: %v", queueName, err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			log.Printf("Processing job %s (type: %s, story: %s)", job.ID, job.Type, job.StoryID)

			if err := w.db.UpdateRenderJobStatus(ctx, job.ID, models.JobStatusRunning); err != nil {
				log.Printf("Failed to update job status: %v", err)
			}

			if err := handler(ctx, job); err != nil {
				log.Printf("Job %s failed: %v", job.ID, err)
				w.db.UpdateRenderJobError(ctx, job.ID, err.Error())
			} else {
				log.Printf("Job %s completed successfully", job.ID)
				w.db.UpdateRenderJobStatus(ctx, job.ID, models.JobStatusSucceeded)
			}
		}
	}
}

// handleRenderStory renders every scene of the story and publishes the
// final video path onto the story row.
func (w *Worker) handleRenderStory(ctx context.Context, job *queue.Job) error {
	if err := w.db.UpdateStoryStatus(ctx, job.StoryID, models.StoryStatusRendering); err != nil {
		return fmt.Errorf("failed to update story status: %w", err)
	}

	outputPath, err := w.exporter.ExportStory(ctx, job.StoryID)
	if err != nil {
		w.db.UpdateStoryError(ctx, job.StoryID, err.Error())
		return fmt.Errorf("story export failed: %w", err)
	}

	if err := w.db.SetStoryVideo(ctx, job.StoryID, outputPath); err != nil {
		return fmt.Errorf("failed to persist story video: %w", err)
	}

	return nil
}
