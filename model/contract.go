package model

import (
	"time"
)

// Status is the processing state of a contract. The store rejects any value
// outside the four constants below.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the known processing states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions can occur from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Contract is the durable record of one uploaded document and its journey
// through the processing pipeline.
type Contract struct {
	ContractID   string              `json:"contract_id"`
	Filename     string              `json:"filename"`
	FilePath     string              `json:"file_path"`
	FileSize     int64               `json:"file_size"`
	MimeType     string              `json:"mime_type"`
	Status       Status              `json:"status"`
	Progress     float64             `json:"progress_percentage"`
	ErrorDetails string              `json:"error_details,omitempty"`
	RawText      string              `json:"raw_text,omitempty"`
	Result       *ExtractionEnvelope `json:"result,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// UploadResponse is returned by POST /contracts/upload.
type UploadResponse struct {
	ContractID string `json:"contract_id"`
	Message    string `json:"message"`
	Status     Status `json:"status"`
}

// StatusResponse is returned by GET /contracts/:id/status and embedded in
// list pages.
type StatusResponse struct {
	ContractID   string    `json:"contract_id"`
	Status       Status    `json:"status"`
	Progress     float64   `json:"progress_percentage"`
	ErrorDetails string    `json:"error_details,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListResponse is one page of contracts.
type ListResponse struct {
	Contracts []StatusResponse `json:"contracts"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
	HasNext   bool             `json:"has_next"`
	HasPrev   bool             `json:"has_prev"`
}

// StatusOf converts a contract into its status projection.
func StatusOf(c *Contract) StatusResponse {
	return StatusResponse{
		ContractID:   c.ContractID,
		Status:       c.Status,
		Progress:     c.Progress,
		ErrorDetails: c.ErrorDetails,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
