// internal/domain/status.go
package domain

import "time"

// RequestStatus is the lifecycle state of an upscale request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
	StatusFailed    RequestStatus = "failed"
)

// StatusRecord is the persisted document a caller polls to learn the outcome
// of a request. OutputURL is set on completion, Error on failure; UpdatedAt is
// stamped by the store on every write.
type StatusRecord struct {
	RequestID string        `json:"requestId"`
	Status    RequestStatus `json:"status"`
	ImageURL  string        `json:"imageUrl,omitempty"`
	UserID    string        `json:"userId,omitempty"`
	OutputURL string        `json:"outputUrl,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"createdAt,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ParseRequestStatus returns the status for a given label (case-sensitive).
func ParseRequestStatus(label string) (RequestStatus, bool) {
	switch RequestStatus(label) {
	case StatusPending, StatusCompleted, StatusFailed:
		return RequestStatus(label), true
	}
	return "", false
}
