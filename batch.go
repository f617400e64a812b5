package dossier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/archivekit/dossier/core/typing"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// EntityError records one entity whose classification failed during a batch run
type EntityError struct {
	EntityID uuid.UUID
	Name     string
	Err      error
}

// BatchResult summarizes one full batch classification run. Partial failures
// are collected here rather than aborting the run, so one malformed entity
// cannot suppress results for the rest of the population.
type BatchResult struct {
	Processed  int
	Classified int
	Rejected   int
	Failed     int
	Errors     []EntityError
	Duration   time.Duration
}

// ClassifyAll runs the classification pipeline over every stored entity with
// bounded concurrency. Work on distinct entities proceeds in parallel; writes
// to the same entity are serialized by ClassifyEntity's per-id lock.
//
// When ContinueOnError is set (the default config), per-entity failures are
// collected into the result and the run continues. After the run, a non-empty
// population with zero category assignments returns ErrNoCategoriesAssigned
// alongside the result.
func (d *Dossier) ClassifyAll(ctx context.Context) (*BatchResult, error) {
	start := time.Now()

	entities, err := d.allEntities()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Processed: len(entities)}
	if len(entities) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.config.Workers)

	for _, entity := range entities {
		group.Go(func() error {
			_, err := d.ClassifyEntity(groupCtx, entity.ID)
			if err == nil {
				mu.Lock()
				result.Classified++
				mu.Unlock()
				return nil
			}

			if errors.Is(err, typing.ErrRejected) {
				mu.Lock()
				result.Rejected++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result.Failed++
			result.Errors = append(result.Errors, EntityError{
				EntityID: entity.ID,
				Name:     entity.DisplayName,
				Err:      err,
			})
			mu.Unlock()

			if d.metrics != nil {
				d.metrics.PipelineFaults.Inc()
			}
			d.log.Error("Entity classification failed",
				slog.String("entity_id", entity.ID.String()),
				slog.String("name", entity.DisplayName),
				slog.String("error", err.Error()))

			if d.config.ContinueOnError {
				return nil
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	result.Duration = time.Since(start)
	if d.metrics != nil {
		d.metrics.BatchDuration.Observe(result.Duration.Seconds())
	}

	fraction, err := d.CategorizedFraction()
	if err != nil {
		return result, err
	}

	d.log.Info("Batch classification finished",
		slog.Int("processed", result.Processed),
		slog.Int("classified", result.Classified),
		slog.Int("rejected", result.Rejected),
		slog.Int("failed", result.Failed),
		slog.String("duration", result.Duration.String()))

	if fraction == 0 {
		return result, ErrNoCategoriesAssigned
	}

	return result, nil
}
