package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLLMClient is the fallback oracle, backed by Google's Gemini API. The
// conversation service only reaches it when the primary provider fails.
type GeminiLLMClient struct {
	client  *genai.Client
	modelID string
}

func NewGeminiLLMClient(ctx context.Context, apiKey, modelID string) (*GeminiLLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: create gemini client: %w", err)
	}
	return &GeminiLLMClient{client: client, modelID: modelID}, nil
}

// Complete runs one chat turn. Gemini wants prior turns as session history
// and only the newest message sent, so the request is split accordingly.
func (c *GeminiLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if len(req.Messages) == 0 {
		return LLMResponse{}, errors.New("conversation: gemini requires at least one message")
	}

	model := c.client.GenerativeModel(c.modelID)
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if system := strings.TrimSpace(strings.Join(req.System, "\n\n")); system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	session := model.StartChat()
	session.History = geminiHistory(req.Messages[:len(req.Messages)-1])

	current := req.Messages[len(req.Messages)-1]
	resp, err := session.SendMessage(ctx, genai.Text(current.Content))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: gemini completion failed: %w", err)
	}

	text, err := geminiText(resp)
	if err != nil {
		return LLMResponse{}, err
	}

	result := LLMResponse{Text: text}
	if usage := resp.UsageMetadata; usage != nil {
		result.Usage = TokenUsage{
			InputTokens:  usage.PromptTokenCount,
			OutputTokens: usage.CandidatesTokenCount,
			TotalTokens:  usage.TotalTokenCount,
		}
	}
	return result, nil
}

// geminiHistory converts prior turns to Gemini's content format. System
// prompts travel via SystemInstruction instead, so they are filtered here.
func geminiHistory(turns []ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" || turn.Role == ChatRoleSystem {
			continue
		}
		role := "user"
		if turn.Role == ChatRoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}
	return history
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("conversation: gemini returned no candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", errors.New("conversation: gemini returned empty content")
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return "", errors.New("conversation: gemini returned empty content")
	}
	return reply, nil
}

// Close releases the underlying API client.
func (c *GeminiLLMClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
