package models

// StreamFragment is one decoded piece of a provider stream. Done marks the [DONE] record.
type StreamFragment struct {
	Text string
	Done bool
}

// AssembledResponse is the structured result of one co-writer cycle.
type AssembledResponse struct {
	EssayText string `json:"text_to_write"`
	Question  string `json:"question_to_ask"`
}

type ResponseKind string

const (
	ResponseJSON     ResponseKind = "json"
	ResponseTagged   ResponseKind = "tagged"
	ResponseFallback ResponseKind = "fallback"
)

// ParsedResponse records which parser strategy produced the assembled response.
type ParsedResponse struct {
	AssembledResponse
	Kind ResponseKind `json:"kind"`
}
