package models

import "time"

// CameraStatus is the advisory, worker-independent state a camera last
// reported. It never gates any write path.
type CameraStatus string

const (
	CameraStatusOnline  CameraStatus = "online"
	CameraStatusOffline CameraStatus = "offline"
	CameraStatusError   CameraStatus = "error"
)

// Camera is a registered ingest endpoint, keyed by a stable human-chosen
// string as well as a surrogate integer id.
type Camera struct {
	ID              int64        `db:"id"`
	StableName      string       `db:"stable_name"`
	DisplayName     string       `db:"display_name"`
	Location        string       `db:"location"`
	LastAddress     string       `db:"last_address"`
	Status          CameraStatus `db:"status"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
	LastHeartbeatAt *time.Time   `db:"last_heartbeat_at"`
}
