package dto

type RegisterCameraRequest struct {
	StableName  string `json:"stable_name" binding:"required"`
	DisplayName string `json:"display_name"`
	Location    string `json:"location"`
	LastAddress string `json:"last_address"`
}

type CameraResponse struct {
	ID              int64   `json:"id"`
	StableName      string  `json:"stable_name"`
	DisplayName     string  `json:"display_name"`
	Location        string  `json:"location"`
	LastAddress     string  `json:"last_address"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	LastHeartbeatAt *string `json:"last_heartbeat_at,omitempty"`
}

type CameraListResponse struct {
	Cameras []CameraResponse `json:"cameras"`
	Total   int              `json:"total"`
}
