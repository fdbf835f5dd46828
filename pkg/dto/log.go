package dto

// LogLineInput is one line of a batch log-ingest request.
type LogLineInput struct {
	Source    string `json:"source" binding:"required"`
	Timestamp string `json:"timestamp" binding:"required"`
	Level     string `json:"level" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// IngestLogsRequest is the body of POST /v1/logs.
type IngestLogsRequest struct {
	Lines []LogLineInput `json:"lines" binding:"required"`
}

// IngestLogsResponse reports the assigned ID range for an accepted batch.
type IngestLogsResponse struct {
	Accepted int   `json:"accepted"`
	FirstID  int64 `json:"first_id"`
	LastID   int64 `json:"last_id"`
}

// LogLineResponse is one queried log line.
type LogLineResponse struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type LogQueryResponse struct {
	Lines []LogLineResponse `json:"lines"`
	Total int                `json:"total"`
}
