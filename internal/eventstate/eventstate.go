// Package eventstate holds the pure transition rules for the two
// orthogonal state columns on an Event (spec.md §4.4). PostgresStore's
// conditional UPDATEs encode the same rules in SQL and do not call these
// functions; the in-memory storetest fake and tests use them to ask
// "is this transition legal" without touching the database.
package eventstate

import "github.com/camcoord/coordinator/internal/models"

// legalEventTargets are the only values UpdateEventStatus accepts as a
// target; processing is a starting state, never a target.
var legalEventTargets = map[models.EventStatus]bool{
	models.EventStatusComplete:    true,
	models.EventStatusInterrupted: true,
	models.EventStatusFailed:      true,
}

// CanTransitionEventStatus reports whether moving an event from
// current to target is legal: target must be one of the three
// terminal states, and current must not already be terminal.
func CanTransitionEventStatus(current models.EventStatus, target models.EventStatus) bool {
	if !legalEventTargets[target] {
		return false
	}
	return current == models.EventStatusProcessing
}

// CanClaimForConversion and CanClaimForOptimization encode which worker
// owns which MP4-status edge, per spec.md §4.4: only the Conversion
// Worker may leave pending or processing; only the Optimization
// Worker may leave complete.
func CanClaimForConversion(status models.MP4ConversionStatus) bool {
	return status == models.MP4StatusPending
}

func CanClaimForOptimization(status models.MP4ConversionStatus) bool {
	return status == models.MP4StatusComplete
}

// CanClaimForAI reports whether an event is eligible for AI claiming:
// not yet latched, and both images transferred.
func CanClaimForAI(e *models.Event) bool {
	return !e.AIProcessed && e.ImageATransferred && e.ImageBTransferred
}

// ReadyForConversion mirrors the Conversion Worker's claim predicate
// (spec.md §4.5.1): pending MP4 status, h264 transferred, path set.
func ReadyForConversion(e *models.Event) bool {
	return CanClaimForConversion(e.MP4ConversionStatus) &&
		e.VideoH264Transferred && e.VideoH264Path != nil
}
