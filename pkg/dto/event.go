package dto

// CreateEventRequest is the body of POST /v1/events.
type CreateEventRequest struct {
	Camera      string   `json:"camera" binding:"required"`
	Timestamp   string   `json:"timestamp" binding:"required"`
	MotionScore float64  `json:"motion_score"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// UpdateFileStatusRequest is the body of POST /v1/events/:id/files.
type UpdateFileStatusRequest struct {
	Artifact        string   `json:"artifact" binding:"required"`
	Path            string   `json:"path" binding:"required"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// UpdateEventStatusRequest is the body of POST /v1/events/:id/status.
type UpdateEventStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// EventResponse is the full record returned by Get/List event endpoints.
type EventResponse struct {
	ID          int64    `json:"id"`
	Camera      string   `json:"camera"`
	Timestamp   string   `json:"timestamp"`
	CreatedAt   string   `json:"created_at"`
	MotionScore float64  `json:"motion_score"`
	Confidence  *float64 `json:"confidence,omitempty"`

	Status string `json:"status"`

	ImageAPath           *string  `json:"image_a_path,omitempty"`
	ImageATransferred    bool     `json:"image_a_transferred"`
	ImageBPath           *string  `json:"image_b_path,omitempty"`
	ImageBTransferred    bool     `json:"image_b_transferred"`
	ThumbnailPath        *string  `json:"thumbnail_path,omitempty"`
	ThumbnailTransferred bool     `json:"thumbnail_transferred"`
	VideoH264Path        *string  `json:"video_h264_path,omitempty"`
	VideoH264Transferred bool     `json:"video_h264_transferred"`
	VideoMP4Path         *string  `json:"video_mp4_path,omitempty"`
	VideoDurationSeconds *float64 `json:"video_duration_seconds,omitempty"`

	MP4ConversionStatus string  `json:"mp4_conversion_status"`
	MP4ConvertedAt      *string `json:"mp4_converted_at,omitempty"`

	AIProcessed      bool     `json:"ai_processed"`
	AIProcessedAt    *string  `json:"ai_processed_at,omitempty"`
	AIPersonDetected *bool    `json:"ai_person_detected,omitempty"`
	AIConfidence     *float64 `json:"ai_confidence,omitempty"`
	AIObjects        *string  `json:"ai_objects,omitempty"`
	AIDescription    *string  `json:"ai_description,omitempty"`
	AIPhrase         *string  `json:"ai_phrase,omitempty"`
	AIError          *string  `json:"ai_error,omitempty"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

type EventNeighborsResponse struct {
	PreviousID *int64 `json:"previous_id,omitempty"`
	NextID     *int64 `json:"next_id,omitempty"`
}

// CreateEventResponse is the minimal response to event creation: the
// assigned id, the timestamps, and the two initial status values.
type CreateEventResponse struct {
	ID                  int64  `json:"id"`
	Timestamp           string `json:"timestamp"`
	CreatedAt           string `json:"created_at"`
	Status              string `json:"status"`
	MP4ConversionStatus string `json:"mp4_conversion_status"`
}
