package models

import "time"

// EventStatus is the camera-driven lifecycle column. Once it reaches a
// terminal value it never changes again.
type EventStatus string

const (
	EventStatusProcessing  EventStatus = "processing"
	EventStatusComplete    EventStatus = "complete"
	EventStatusInterrupted EventStatus = "interrupted"
	EventStatusFailed      EventStatus = "failed"
)

func (s EventStatus) Terminal() bool {
	return s == EventStatusComplete || s == EventStatusInterrupted || s == EventStatusFailed
}

// MP4ConversionStatus is the worker-driven sub-state tracking the
// H.264 -> MP4 -> optimized pipeline, independent of EventStatus.
type MP4ConversionStatus string

const (
	MP4StatusPending    MP4ConversionStatus = "pending"
	MP4StatusProcessing MP4ConversionStatus = "processing"
	MP4StatusComplete   MP4ConversionStatus = "complete"
	MP4StatusOptimized  MP4ConversionStatus = "optimized"
	MP4StatusFailed     MP4ConversionStatus = "failed"
)

// ArtifactKind identifies which of the four camera-uploaded artifacts a
// file-status update refers to. video_mp4 is never updated by a camera;
// it is written only by the Conversion and Optimization workers.
type ArtifactKind string

const (
	ArtifactImageA    ArtifactKind = "image_a"
	ArtifactImageB    ArtifactKind = "image_b"
	ArtifactThumbnail ArtifactKind = "thumbnail"
	ArtifactVideoH264 ArtifactKind = "video_h264"
)

func (k ArtifactKind) Valid() bool {
	switch k {
	case ArtifactImageA, ArtifactImageB, ArtifactThumbnail, ArtifactVideoH264:
		return true
	}
	return false
}

// Event is one motion incident and the artifacts it produces. It is the
// persistence record owned by the Store; transport shapes live in pkg/dto
// and are never aliases of this type.
type Event struct {
	ID          int64     `db:"id"`
	Camera      string    `db:"camera_stable_name"`
	Timestamp   time.Time `db:"event_timestamp"`
	CreatedAt   time.Time `db:"created_at"`
	MotionScore float64   `db:"motion_score"`
	Confidence  *float64  `db:"confidence_score"`

	Status EventStatus `db:"status"`

	ImageAPath           *string  `db:"image_a_path"`
	ImageATransferred    bool     `db:"image_a_transferred"`
	ImageBPath           *string  `db:"image_b_path"`
	ImageBTransferred    bool     `db:"image_b_transferred"`
	ThumbnailPath        *string  `db:"thumbnail_path"`
	ThumbnailTransferred bool     `db:"thumbnail_transferred"`
	VideoH264Path        *string  `db:"video_h264_path"`
	VideoH264Transferred bool     `db:"video_h264_transferred"`
	VideoMP4Path         *string  `db:"video_mp4_path"`
	VideoDurationSeconds *float64 `db:"video_duration_seconds"`

	MP4ConversionStatus MP4ConversionStatus `db:"mp4_conversion_status"`
	MP4ConvertedAt      *time.Time          `db:"mp4_converted_at"`
	MP4ClaimHolder      *string             `db:"mp4_claim_holder"`
	MP4ClaimedAt        *time.Time          `db:"mp4_claimed_at"`

	AIProcessed      bool       `db:"ai_processed"`
	AIProcessedAt    *time.Time `db:"ai_processed_at"`
	AIPersonDetected *bool      `db:"ai_person_detected"`
	AIConfidence     *float64   `db:"ai_confidence"`
	AIObjects        *string    `db:"ai_objects"`
	AIDescription    *string    `db:"ai_description"`
	AIPhrase         *string    `db:"ai_phrase"`
	AIError          *string    `db:"ai_error"`
	AIClaimHolder    *string    `db:"ai_claim_holder"`
	AIClaimedAt      *time.Time `db:"ai_claimed_at"`
}

// PathFor returns the artifact's stored relative path, if any.
func (e *Event) PathFor(kind ArtifactKind) *string {
	switch kind {
	case ArtifactImageA:
		return e.ImageAPath
	case ArtifactImageB:
		return e.ImageBPath
	case ArtifactThumbnail:
		return e.ThumbnailPath
	case ArtifactVideoH264:
		return e.VideoH264Path
	}
	return nil
}

// TransferredFor returns the artifact's transfer flag.
func (e *Event) TransferredFor(kind ArtifactKind) bool {
	switch kind {
	case ArtifactImageA:
		return e.ImageATransferred
	case ArtifactImageB:
		return e.ImageBTransferred
	case ArtifactThumbnail:
		return e.ThumbnailTransferred
	case ArtifactVideoH264:
		return e.VideoH264Transferred
	}
	return false
}
