// Package optimize implements the Optimization Worker (spec.md
// §4.5.2): re-encodes a converted MP4 to a smaller profile, grounded
// on the same exec.CommandContext pattern as internal/worker/convert.
package optimize

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/store"
)

// Stage implements worker.Stage for the optimization step.
type Stage struct {
	Store          store.Store
	Artifacts      *artifact.Store
	Claimant       string
	ReclaimHorizon time.Duration
	Quiescence     time.Duration
}

func (s *Stage) Name() string { return "optimization" }

func (s *Stage) Claim(ctx context.Context, batchSize int) ([]models.Event, error) {
	return s.Store.ClaimForOptimization(ctx, batchSize, s.Claimant, s.ReclaimHorizon)
}

func (s *Stage) Process(ctx context.Context, event models.Event) error {
	if event.VideoMP4Path == nil {
		return s.fail(ctx, event.ID, "missing mp4 path after claim")
	}

	info, err := s.Artifacts.Stat(*event.VideoMP4Path)
	if err != nil {
		slog.Warn("optimization guard: source unreadable, releasing", "event_id", event.ID, "error", err)
		return s.release(ctx, event.ID)
	}
	if !info.Quiescent(s.Quiescence) {
		slog.Info("optimization guard: source still settling, releasing", "event_id", event.ID)
		return s.release(ctx, event.ID)
	}

	srcAbs := info.AbsPath

	optimizedRel := strings.TrimSuffix(*event.VideoMP4Path, ".mp4") + "_optimized.mp4"
	optimizedAbs, err := s.Artifacts.Resolve(optimizedRel)
	if err != nil {
		return s.fail(ctx, event.ID, err.Error())
	}

	if err := reencode(ctx, srcAbs, optimizedAbs); err != nil {
		return s.fail(ctx, event.ID, err.Error())
	}

	if err := s.Store.CommitOptimization(ctx, event.ID, s.Claimant, optimizedRel); err != nil {
		return fmt.Errorf("commit optimization: %w", err)
	}

	if err := s.Artifacts.Remove(*event.VideoMP4Path); err != nil {
		slog.Warn("remove pre-optimization mp4 failed, retaining", "event_id", event.ID, "error", err)
	}
	return nil
}

func (s *Stage) fail(ctx context.Context, id int64, reason string) error {
	if err := s.Store.FailOptimization(ctx, id, s.Claimant, reason); err != nil {
		return fmt.Errorf("fail optimization (reason %q): %w", reason, err)
	}
	return fmt.Errorf("optimization failed: %s", reason)
}

func (s *Stage) release(ctx context.Context, id int64) error {
	return s.Store.ReleaseOptimizationClaim(ctx, id, s.Claimant)
}

// reencode shrinks srcPath into dstPath using a lower bitrate profile
// suitable for long-term archival storage of a motion event.
func reencode(ctx context.Context, srcPath, dstPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "warning", "-y",
		"-i", srcPath,
		"-c:v", "libx264", "-crf", "28", "-preset", "veryfast",
		"-movflags", "+faststart",
		"-c:a", "aac", "-b:a", "96k",
		dstPath,
	)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Debug("ffmpeg stderr", "output", scanner.Text())
		}
	}()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg re-encode: %w", err)
	}
	return nil
}
