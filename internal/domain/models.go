// internal/domain/models.go
package domain

// UpscaleRequest is the job a caller submits for processing. RequestID doubles
// as the correlation key for the status record and the output object name.
type UpscaleRequest struct {
	RequestID string `json:"requestId"`
	ImageURL  string `json:"imageUrl"`
	UserID    string `json:"userId"`
}

// Valid reports whether the request carries the required fields.
func (r UpscaleRequest) Valid() bool {
	return r.RequestID != "" && r.ImageURL != ""
}
