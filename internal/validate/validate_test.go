package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/camcoord/coordinator/pkg/dto"
)

func TestCameraStableName(t *testing.T) {
	assert.Nil(t, CameraStableName("front_door_01"))
	assert.NotNil(t, CameraStableName(""))
	assert.NotNil(t, CameraStableName("front door"))
	assert.NotNil(t, CameraStableName("front/door"))
}

func TestCreateEvent(t *testing.T) {
	conf := 50.0
	valid := dto.CreateEventRequest{
		Camera:      "front_door_01",
		Timestamp:   "2026-08-06T10:00:00Z",
		MotionScore: 0.8,
		Confidence:  &conf,
	}
	assert.Nil(t, CreateEvent(valid))

	badTimestamp := valid
	badTimestamp.Timestamp = "not-a-time"
	if err := CreateEvent(badTimestamp); assert.NotNil(t, err) {
		assert.Equal(t, "timestamp", err.Field)
	}

	negScore := valid
	negScore.MotionScore = -1
	if err := CreateEvent(negScore); assert.NotNil(t, err) {
		assert.Equal(t, "motion_score", err.Field)
	}

	outOfRange := valid
	badConf := 150.0
	outOfRange.Confidence = &badConf
	if err := CreateEvent(outOfRange); assert.NotNil(t, err) {
		assert.Equal(t, "confidence", err.Field)
	}
}

func TestUpdateFileStatus(t *testing.T) {
	assert.Nil(t, UpdateFileStatus(dto.UpdateFileStatusRequest{
		Artifact: "image_a",
		Path:     "cam01/pictures/2026-08-06/img.jpg",
	}))

	assert.NotNil(t, UpdateFileStatus(dto.UpdateFileStatusRequest{
		Artifact: "not_a_kind",
		Path:     "cam01/pictures/img.jpg",
	}))

	assert.NotNil(t, UpdateFileStatus(dto.UpdateFileStatusRequest{
		Artifact: "image_a",
		Path:     "/etc/passwd",
	}))

	assert.NotNil(t, UpdateFileStatus(dto.UpdateFileStatusRequest{
		Artifact: "image_a",
		Path:     "cam01/../other/img.jpg",
	}))

	dur := 12.5
	assert.NotNil(t, UpdateFileStatus(dto.UpdateFileStatusRequest{
		Artifact:        "image_a",
		Path:            "cam01/pictures/img.jpg",
		DurationSeconds: &dur,
	}), "duration is only meaningful for video_h264")

	assert.Nil(t, UpdateFileStatus(dto.UpdateFileStatusRequest{
		Artifact:        "video_h264",
		Path:            "cam01/videos/2026-08-06/clip.h264",
		DurationSeconds: &dur,
	}))
}

func TestUpdateEventStatus(t *testing.T) {
	target, err := UpdateEventStatus(dto.UpdateEventStatusRequest{Status: "complete"})
	assert.Nil(t, err)
	assert.Equal(t, "complete", string(target))

	_, err = UpdateEventStatus(dto.UpdateEventStatusRequest{Status: "processing"})
	assert.NotNil(t, err, "processing is a starting state, never a valid target")
}

func TestIngestLogs(t *testing.T) {
	valid := dto.IngestLogsRequest{Lines: []dto.LogLineInput{
		{Source: "central", Timestamp: "2026-08-06T10:00:00Z", Level: "INFO", Message: "hello"},
		{Source: "front_door_01", Timestamp: "2026-08-06T10:00:01Z", Level: "ERROR", Message: "boom"},
	}}
	assert.Nil(t, IngestLogs(valid))

	assert.NotNil(t, IngestLogs(dto.IngestLogsRequest{}), "empty batch must be rejected")

	withBadLine := dto.IngestLogsRequest{Lines: []dto.LogLineInput{
		{Source: "central", Timestamp: "2026-08-06T10:00:00Z", Level: "INFO", Message: "ok"},
		{Source: "central", Timestamp: "2026-08-06T10:00:01Z", Level: "CRITICAL", Message: "bad level"},
	}}
	err := IngestLogs(withBadLine)
	if assert.NotNil(t, err) {
		assert.Equal(t, "lines[1].level", err.Field, "the invalid line's index must be named in the field path")
	}
}
