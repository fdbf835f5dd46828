package eventstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/camcoord/coordinator/internal/models"
)

func TestCanTransitionEventStatus(t *testing.T) {
	assert.True(t, CanTransitionEventStatus(models.EventStatusProcessing, models.EventStatusComplete))
	assert.True(t, CanTransitionEventStatus(models.EventStatusProcessing, models.EventStatusInterrupted))
	assert.True(t, CanTransitionEventStatus(models.EventStatusProcessing, models.EventStatusFailed))

	assert.False(t, CanTransitionEventStatus(models.EventStatusProcessing, models.EventStatusProcessing),
		"processing is never a legal target")
	assert.False(t, CanTransitionEventStatus(models.EventStatusComplete, models.EventStatusFailed),
		"a terminal status never transitions again")
	assert.False(t, CanTransitionEventStatus(models.EventStatusInterrupted, models.EventStatusComplete))
}

func TestCanClaimForConversion(t *testing.T) {
	assert.True(t, CanClaimForConversion(models.MP4StatusPending))
	assert.False(t, CanClaimForConversion(models.MP4StatusProcessing))
	assert.False(t, CanClaimForConversion(models.MP4StatusComplete))
}

func TestCanClaimForOptimization(t *testing.T) {
	assert.True(t, CanClaimForOptimization(models.MP4StatusComplete))
	assert.False(t, CanClaimForOptimization(models.MP4StatusPending))
	assert.False(t, CanClaimForOptimization(models.MP4StatusOptimized))
}

func TestCanClaimForAI(t *testing.T) {
	base := &models.Event{ImageATransferred: true, ImageBTransferred: true}
	assert.True(t, CanClaimForAI(base))

	processed := *base
	processed.AIProcessed = true
	assert.False(t, CanClaimForAI(&processed), "already-latched events never reclaim")

	missingImage := *base
	missingImage.ImageBTransferred = false
	assert.False(t, CanClaimForAI(&missingImage))
}

func TestReadyForConversion(t *testing.T) {
	path := "cam01/videos/clip.h264"
	ready := &models.Event{
		MP4ConversionStatus:  models.MP4StatusPending,
		VideoH264Transferred: true,
		VideoH264Path:        &path,
	}
	assert.True(t, ReadyForConversion(ready))

	notTransferred := *ready
	notTransferred.VideoH264Transferred = false
	assert.False(t, ReadyForConversion(&notTransferred))

	wrongStatus := *ready
	wrongStatus.MP4ConversionStatus = models.MP4StatusProcessing
	assert.False(t, ReadyForConversion(&wrongStatus))
}
