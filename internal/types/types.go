package types

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// APICall is one observed request. Timestamp is RFC 3339.
type APICall struct {
	Endpoint   string         `json:"endpoint"`
	Method     string         `json:"method"`
	Timestamp  string         `json:"timestamp"`
	Parameters map[string]any `json:"parameters"`
	Response   any            `json:"response,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PredictRequest struct {
	APICalls []APICall `json:"apiCalls"`
}

type PredictResponse struct {
	Prediction *string `json:"prediction"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	APICalls []APICall     `json:"apiCalls"`
}

type ChatResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Provider  string `json:"provider"`
}

type CreateSessionResponse struct {
	Id string `json:"id"`
}

type SessionRequest struct {
	Id string `path:"id" json:"-"`
}

type CaptureCallRequest struct {
	Id         string         `path:"id" json:"-"`
	Endpoint   string         `json:"endpoint"`
	Method     string         `json:"method,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type SendSessionMessageRequest struct {
	Id      string `path:"id" json:"-"`
	Content string `json:"content"`
}

// APISchema is the subset of an OpenAPI document used to restrict predictions
// to endpoints the application actually serves.
type APISchema struct {
	Paths map[string]map[string]APIEndpoint `json:"paths" yaml:"paths"`
}

type APIEndpoint struct {
	Summary     string         `json:"summary" yaml:"summary"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  []APIParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody any            `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]any `json:"responses,omitempty" yaml:"responses,omitempty"`
}

type APIParameter struct {
	Name     string `json:"name" yaml:"name"`
	In       string `json:"in" yaml:"in"` // query, path, header or cookie
	Required bool   `json:"required" yaml:"required"`
	Schema   any    `json:"schema" yaml:"schema"`
}
