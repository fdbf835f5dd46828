// Package validate holds the pure, side-effect-free request checks
// described in spec.md §4.2. Every exported function either returns
// nil or a *apierr.Error naming the offending field, and never touches
// the Store or the filesystem.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/camcoord/coordinator/internal/apierr"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/pkg/dto"
)

var stableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// CameraStableName rejects anything but the pattern spec.md §3
// requires for a camera's stable string.
func CameraStableName(name string) *apierr.Error {
	if name == "" {
		return apierr.Fieldf("stable_name", "required")
	}
	if !stableNamePattern.MatchString(name) {
		return apierr.Fieldf("stable_name", "must match [A-Za-z0-9_]+")
	}
	return nil
}

// RegisterCamera validates a camera registration request.
func RegisterCamera(req dto.RegisterCameraRequest) *apierr.Error {
	return CameraStableName(req.StableName)
}

// CreateEvent validates a new-event request: camera name shape,
// timestamp parses, motion score non-negative, confidence in range.
func CreateEvent(req dto.CreateEventRequest) *apierr.Error {
	if err := CameraStableName(req.Camera); err != nil {
		return err
	}
	if _, err := time.Parse(time.RFC3339, req.Timestamp); err != nil {
		return apierr.Fieldf("timestamp", "must be RFC3339")
	}
	if req.MotionScore < 0 {
		return apierr.Fieldf("motion_score", "must be >= 0")
	}
	if req.Confidence != nil && (*req.Confidence < 0 || *req.Confidence > 100) {
		return apierr.Fieldf("confidence", "must be in [0, 100]")
	}
	return nil
}

// relativePath rejects absolute paths and parent-directory escapes,
// per spec.md §6's "all paths stored... are relative" rule.
func relativePath(path string) bool {
	if path == "" {
		return false
	}
	if strings.HasPrefix(path, "/") {
		return false
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// UpdateFileStatus validates an artifact-path update: a recognized
// artifact kind, a relative path, and duration only on video_h264.
func UpdateFileStatus(req dto.UpdateFileStatusRequest) *apierr.Error {
	kind := models.ArtifactKind(req.Artifact)
	if !kind.Valid() {
		return apierr.Fieldf("artifact", "must be one of image_a, image_b, thumbnail, video_h264")
	}
	if !relativePath(req.Path) {
		return apierr.Fieldf("path", "must be relative, no .. segments")
	}
	if req.DurationSeconds != nil && kind != models.ArtifactVideoH264 {
		return apierr.Fieldf("duration_seconds", "only meaningful for video_h264")
	}
	if req.DurationSeconds != nil && *req.DurationSeconds < 0 {
		return apierr.Fieldf("duration_seconds", "must be >= 0")
	}
	return nil
}

var legalStatusTargets = map[string]models.EventStatus{
	"complete":    models.EventStatusComplete,
	"interrupted": models.EventStatusInterrupted,
	"failed":      models.EventStatusFailed,
}

// UpdateEventStatus validates the target status name; legality of the
// transition itself (current must be processing) is enforced by the
// Store's conditional UPDATE, not here.
func UpdateEventStatus(req dto.UpdateEventStatusRequest) (models.EventStatus, *apierr.Error) {
	target, ok := legalStatusTargets[req.Status]
	if !ok {
		return "", apierr.Fieldf("status", "must be one of complete, interrupted, failed")
	}
	return target, nil
}

// validSource accepts either a camera stable name or the literal
// "central" (spec.md §4.2: "source names match camera pattern or the
// literal central").
func validSource(source string) bool {
	return source == models.CentralSource || stableNamePattern.MatchString(source)
}

var validLevels = map[string]bool{
	string(models.LogLevelInfo):    true,
	string(models.LogLevelWarning): true,
	string(models.LogLevelError):   true,
}

// LogLine validates one line of a batch log-ingest request.
func LogLine(line dto.LogLineInput) *apierr.Error {
	if !validSource(line.Source) {
		return apierr.Fieldf("source", "must match a camera's stable name or be \"central\"")
	}
	if _, err := time.Parse(time.RFC3339, line.Timestamp); err != nil {
		return apierr.Fieldf("timestamp", "must be RFC3339")
	}
	if !validLevels[line.Level] {
		return apierr.Fieldf("level", "must be one of INFO, WARNING, ERROR")
	}
	if line.Message == "" {
		return apierr.Fieldf("message", "required")
	}
	return nil
}

// IngestLogs validates every line; the first invalid line aborts the
// whole batch, matching the all-or-nothing intake policy of spec.md §4.6.
func IngestLogs(req dto.IngestLogsRequest) *apierr.Error {
	if len(req.Lines) == 0 {
		return apierr.Fieldf("lines", "must not be empty")
	}
	for i, line := range req.Lines {
		if err := LogLine(line); err != nil {
			err.Field = "lines[" + strconv.Itoa(i) + "]." + err.Field
			return err
		}
	}
	return nil
}
