// Package convert implements the Conversion Worker (spec.md §4.5.1):
// rewraps a camera-uploaded H.264 elementary stream into an MP4 with
// fast-start metadata via ffmpeg, grounded on the teacher's
// exec.CommandContext invocation pattern in internal/ingest/ffmpeg.go.
package convert

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/store"
)

const defaultDurationSeconds = 60.0

// Stage implements worker.Stage for the conversion step.
type Stage struct {
	Store          store.Store
	Artifacts      *artifact.Store
	Claimant       string
	ReclaimHorizon time.Duration
	Quiescence     time.Duration
}

func (s *Stage) Name() string { return "conversion" }

func (s *Stage) Claim(ctx context.Context, batchSize int) ([]models.Event, error) {
	return s.Store.ClaimForConversion(ctx, batchSize, s.Claimant, s.ReclaimHorizon)
}

func (s *Stage) Process(ctx context.Context, event models.Event) error {
	if event.VideoH264Path == nil {
		return s.fail(ctx, event.ID, "missing h264 path after claim")
	}

	info, err := s.Artifacts.Stat(*event.VideoH264Path)
	if err != nil {
		slog.Warn("conversion guard: source unreadable, releasing", "event_id", event.ID, "error", err)
		return s.release(ctx, event.ID)
	}
	if !info.Quiescent(s.Quiescence) {
		slog.Info("conversion guard: source still settling, releasing", "event_id", event.ID)
		return s.release(ctx, event.ID)
	}

	mp4RelPath := artifact.DerivedPath(*event.VideoH264Path, ".mp4")
	mp4AbsPath, err := s.Artifacts.Resolve(mp4RelPath)
	if err != nil {
		return s.fail(ctx, event.ID, err.Error())
	}

	duration, err := transcodeToMP4(ctx, info.AbsPath, mp4AbsPath)
	if err != nil {
		return s.fail(ctx, event.ID, err.Error())
	}
	if duration <= 0 {
		if event.VideoDurationSeconds != nil && *event.VideoDurationSeconds > 0 {
			duration = *event.VideoDurationSeconds
		} else {
			duration = defaultDurationSeconds
		}
	}

	if err := s.Store.CommitConversion(ctx, event.ID, s.Claimant, mp4RelPath, duration); err != nil {
		return fmt.Errorf("commit conversion: %w", err)
	}

	if artifact.Writable(mp4AbsPath) {
		if err := s.Artifacts.Remove(*event.VideoH264Path); err != nil {
			slog.Warn("remove h264 source failed, retaining", "event_id", event.ID, "error", err)
		}
	}
	return nil
}

func (s *Stage) fail(ctx context.Context, id int64, reason string) error {
	if err := s.Store.FailConversion(ctx, id, s.Claimant, reason); err != nil {
		return fmt.Errorf("fail conversion (reason %q): %w", reason, err)
	}
	return fmt.Errorf("conversion failed: %s", reason)
}

func (s *Stage) release(ctx context.Context, id int64) error {
	return s.Store.ReleaseConversionClaim(ctx, id, s.Claimant)
}

// transcodeToMP4 invokes ffmpeg to remux h264Path into an MP4 with
// fast-start metadata, then ffprobe to read the resulting duration.
func transcodeToMP4(ctx context.Context, h264Path, mp4Path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "warning", "-y",
		"-i", h264Path,
		"-c", "copy",
		"-movflags", "+faststart",
		mp4Path,
	)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start ffmpeg: %w", err)
	}
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Debug("ffmpeg stderr", "output", scanner.Text())
		}
	}()
	if err := cmd.Wait(); err != nil {
		return 0, fmt.Errorf("ffmpeg remux: %w", err)
	}

	return probeDuration(ctx, mp4Path)
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func probeDuration(ctx context.Context, mp4Path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		mp4Path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed probeFormat
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	d, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return 0, nil // fall back to caller-supplied/default duration
	}
	return d, nil
}
