// Package models defines the core data structures shared across TriagePipe components.
package models

// ChatRequest is the inbound body for a single dialogue turn.
type ChatRequest struct {
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message"`
}

// ChatResponse is the outbound body for a single dialogue turn.
type ChatResponse struct {
	BotResponseParts []string `json:"bot_response_parts"`
	UserID           string   `json:"user_id"`
	MapData          *MapData `json:"map_data,omitempty"`
}

// MapData carries doctor locations for a map display.
type MapData struct {
	Doctors []MapDoctor `json:"doctors"`
}

// MapDoctor is a single map marker.
type MapDoctor struct {
	Name       string  `json:"name"`
	Speciality string  `json:"speciality"`
	Hospital   string  `json:"hospital"`
	Address    string  `json:"address"`
	Contact    string  `json:"contact"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Image      string  `json:"image"`
}

// Doctor is a row of the doctor directory.
// Latitude and Longitude are nil when the source had no usable coordinate.
type Doctor struct {
	Name       string   `json:"name"`
	Speciality string   `json:"speciality"`
	Hospital   string   `json:"hospital_name"`
	Address    string   `json:"address"`
	Number     string   `json:"number,omitempty"`
	Image      string   `json:"image_source"`
	About      string   `json:"about"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates are known.
func (d Doctor) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// Prediction is the classifier answer for one feature vector.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // probability of Label, in [0,1]
}

// DiseaseInfo holds the description and precautions for a condition.
type DiseaseInfo struct {
	Disease     string   `json:"disease"`
	Description string   `json:"description,omitempty"`
	Precautions []string `json:"precautions,omitempty"`
}

// API Response types for consistent JSON responses

// APIStatus represents the status of an API response.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
