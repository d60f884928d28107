package conversation

import "context"

// Chat roles as stored in transcripts and sent to the oracle providers.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of provider-neutral conversation context.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports what a completion cost, for logging and budgeting.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest asks a provider for one completion. Model overrides the client's
// configured default when set; System prompts are sent ahead of Messages.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse carries the reply text and its token cost.
type LLMResponse struct {
	Text  string
	Usage TokenUsage
}

// LLMClient is the oracle surface the conversation service talks to. The
// OpenAI and Gemini clients implement it, as does the fallback wrapper that
// chains them.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
