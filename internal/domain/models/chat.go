package models

// Turn is a single prior message in a conversation.
type Turn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required,min=1,max=4000"`
	Context   []Turn `json:"context" validate:"dive"`
	UserID    string `json:"user_id"`
}

// ChatResponse is the terminal envelope returned to the caller.
// It is assembled once and never mutated afterward.
type ChatResponse struct {
	Answer         string                 `json:"answer"`
	Status         string                 `json:"status"`
	Type           string                 `json:"type"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Visualizations map[string]string      `json:"visualizations,omitempty"`
}

// Response statuses and types.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	TypeText       = "text"
	TypeStructured = "structured"
	TypeStrategy   = "investment_strategy"
	TypeError      = "error"
)

// ErrorResponse builds the uniform user-facing error envelope.
func ErrorResponse(err error) *ChatResponse {
	return &ChatResponse{
		Answer: "I apologize, but I encountered an error: " + err.Error(),
		Status: StatusError,
		Type:   TypeError,
	}
}
