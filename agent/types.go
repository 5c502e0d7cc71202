package agent

import "github.com/imkonsowa/citiassist/models"

const (
	MessageTypeChat  = "chat"
	MessageTypeDone  = "done"
	MessageTypeError = "error"
)

type ChatRequest models.ChatRequest

func (c *ChatRequest) Validate() error {
	if c.Message == "" {
		return invalidInput("Message is required")
	}

	return nil
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status             string `json:"status"`
	Provider           string `json:"provider"`
	Model              string `json:"model"`
	InstructionVersion string `json:"instruction_version"`
}

type WebSocketsMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

type ProcessingResult struct {
	Err error
	Msg WebSocketsMessage
}
