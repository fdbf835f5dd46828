// Package aiworker implements the AI Worker (spec.md §4.5.3): submits
// an event's two images to an external model host for vision signals,
// then a text model for a caption, and commits the result as a single
// latch write.
package aiworker

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/camcoord/coordinator/internal/aiclient"
	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/store"
)

// Stage implements worker.Stage for AI processing.
type Stage struct {
	Store          store.Store
	Artifacts      *artifact.Store
	AI             *aiclient.Client
	Claimant       string
	ReclaimHorizon time.Duration
	RetryBudget    int
}

func (s *Stage) Name() string { return "ai" }

func (s *Stage) Claim(ctx context.Context, batchSize int) ([]models.Event, error) {
	return s.Store.ClaimForAI(ctx, batchSize, s.Claimant, s.ReclaimHorizon)
}

func (s *Stage) Process(ctx context.Context, event models.Event) error {
	if event.ImageAPath == nil || event.ImageBPath == nil {
		return s.release(ctx, event.ID)
	}

	imageA, err := s.readImage(*event.ImageAPath)
	if err != nil {
		return s.release(ctx, event.ID)
	}
	imageB, err := s.readImage(*event.ImageBPath)
	if err != nil {
		return s.release(ctx, event.ID)
	}

	result, attemptErr := s.attempt(ctx, imageA, imageB)
	if attemptErr == nil {
		return s.commit(ctx, event.ID, result)
	}

	if aiclient.IsCircuitOpen(attemptErr) {
		// Transient: release rather than latch failed, per spec.md §4.5.3.
		return s.release(ctx, event.ID)
	}

	// Permanent within this attempt's retry budget: latch with ai_error,
	// no reprocessing, per spec.md §4.5.3's "exceeded retry budget" case.
	errMsg := attemptErr.Error()
	return s.commit(ctx, event.ID, store.AIResult{Error: &errMsg})
}

// attempt runs the vision call then the text call, repeating the whole
// sequence on any failure other than an open circuit, for at most
// RetryBudget runs in total (at least one).
func (s *Stage) attempt(ctx context.Context, imageA, imageB []byte) (store.AIResult, error) {
	var lastErr error
	budget := s.RetryBudget
	if budget <= 0 {
		budget = 1
	}

	for try := 0; try < budget; try++ {
		vision, err := s.AI.Vision(ctx, imageA, imageB)
		if err != nil {
			lastErr = err
			if aiclient.IsCircuitOpen(err) {
				return store.AIResult{}, err
			}
			continue
		}

		text, err := s.AI.Text(ctx, *vision)
		if err != nil {
			lastErr = err
			if aiclient.IsCircuitOpen(err) {
				return store.AIResult{}, err
			}
			continue
		}

		objects := strings.Join(vision.Objects, ",")
		return store.AIResult{
			PersonDetected: &vision.PersonDetected,
			Confidence:     &vision.Confidence,
			Objects:        &objects,
			Description:    &text.Description,
			Phrase:         &text.Phrase,
		}, nil
	}

	return store.AIResult{}, fmt.Errorf("ai attempt exhausted retry budget: %w", lastErr)
}

func (s *Stage) commit(ctx context.Context, id int64, result store.AIResult) error {
	if err := s.Store.CommitAI(ctx, id, s.Claimant, result); err != nil {
		return fmt.Errorf("commit ai result: %w", err)
	}
	return nil
}

func (s *Stage) release(ctx context.Context, id int64) error {
	return s.Store.ReleaseAIClaim(ctx, id, s.Claimant)
}

func (s *Stage) readImage(relPath string) ([]byte, error) {
	abs, err := s.Artifacts.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}
