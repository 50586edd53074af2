package asi

import "fmt"

// Regular chat models served by the ASI:One API.
var RegularModels = []string{"asi1-mini"}

// Agentic models that route through the agent marketplace. They require a
// conversation ID so the API can pin a session.
var AgenticModels = []string{"asi1-agentic", "asi1-fast-agentic", "asi1-extended-agentic"}

// IsAgenticModel reports whether the model routes through the marketplace.
func IsAgenticModel(model string) bool {
	for _, m := range AgenticModels {
		if m == model {
			return true
		}
	}
	return false
}

// ValidateModel rejects model names the API does not serve. Callers must
// validate before constructing any request.
func ValidateModel(model string) error {
	for _, m := range RegularModels {
		if m == model {
			return nil
		}
	}
	if IsAgenticModel(model) {
		return nil
	}
	return fmt.Errorf("invalid model %q (available: %v, agentic: %v)",
		model, RegularModels, AgenticModels)
}

// Message is one chat turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the chat-completion request body.
type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`

	// ConversationID is not sent on the wire; it selects the session
	// header for agentic models.
	ConversationID string `json:"-"`
}

// CompletionResponse is the standard completion payload.
type CompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the first choice's content, or empty string.
func (r *CompletionResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
