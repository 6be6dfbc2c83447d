package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"narrative-backend/internal/lang"
	"narrative-backend/internal/models"
)

const (
	defaultAPIURL = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel  = "llama3-8b-8192"

	// Only the most recent caller-supplied turns are forwarded; older
	// history is dropped, not archived.
	maxHistoryTurns = 6

	maxTokens   = 1000
	temperature = 0.7
)

// rolePrompts describes the focus of each supported persona. Unknown
// roles fall back to ceo.
var rolePrompts = map[string]string{
	"ceo":      "Strategic insights, growth opportunities, ROI analysis, and high-level business decisions",
	"marketer": "Marketing campaigns, conversion rates, customer acquisition, and engagement metrics",
	"product":  "Product features, user experience, engagement analytics, and product development",
	"analyst":  "Detailed statistical analysis, data trends, correlations, and technical insights",
}

type Config struct {
	APIURL string
	APIKey string
	Model  string
}

// Service relays conversations to the Groq chat-completions API.
type Service struct {
	config Config
	client *http.Client
}

func NewService(cfg Config) *Service {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Service{
		config: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Connected reports whether an API key is configured.
func (s *Service) Connected() bool {
	return s.config.APIKey != ""
}

// ConverseRequest carries one user message plus the conditioning that
// shapes the synthesized system prompt.
type ConverseRequest struct {
	Message     string
	Role        string
	Language    string
	History     []models.ChatMessage
	HasData     bool
	DataContext string
}

// ChatResult is the upstream completion with its usage and model
// metadata passed through unmodified.
type ChatResult struct {
	Response string
	Usage    json.RawMessage
	Model    string
}

// UpstreamError reports a non-success status or malformed payload from
// the Groq API. Status and body are kept for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Groq API error: status %d: %s", e.StatusCode, e.Body)
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream"`
}

type chatCompletionResponse struct {
	Model   string          `json:"model"`
	Usage   json.RawMessage `json:"usage"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Converse sends one non-streaming chat-completion request and returns
// the generated text. A single upstream failure surfaces immediately;
// there is no retry.
func (s *Service) Converse(ctx context.Context, req ConverseRequest) (*ChatResult, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       s.config.Model,
		Messages:    s.BuildMessages(req),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      false,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read groq response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &ChatResult{
		Response: parsed.Choices[0].Message.Content,
		Usage:    parsed.Usage,
		Model:    parsed.Model,
	}, nil
}

// BuildMessages assembles the upstream conversation: the synthesized
// system turn, the last six history turns in original order, then the
// new user turn.
func (s *Service) BuildMessages(req ConverseRequest) []models.ChatMessage {
	history := req.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]models.ChatMessage, 0, len(history)+2)
	messages = append(messages, models.ChatMessage{
		Role:    "system",
		Content: systemPrompt(req.Role, req.Language, req.HasData, req.DataContext),
	})
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: "user", Content: req.Message})
	return messages
}

func systemPrompt(role, language string, hasData bool, dataContext string) string {
	langName := lang.DisplayName(language)

	focus, ok := rolePrompts[role]
	if !ok {
		focus = rolePrompts["ceo"]
	}

	dataAvailable := "No"
	if hasData {
		dataAvailable = "Yes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are Narrative AI, a multilingual business analyst. Always respond in %s.\n\n", langName)
	b.WriteString("Current context:\n")
	fmt.Fprintf(&b, "- User role: %s\n", strings.ToUpper(role))
	fmt.Fprintf(&b, "- Language: %s\n", langName)
	fmt.Fprintf(&b, "- Data available: %s\n", dataAvailable)
	if dataContext != "" {
		fmt.Fprintf(&b, "- Data context: %s\n", dataContext)
	}
	fmt.Fprintf(&b, "\nRole focus: %s\n\n", focus)
	b.WriteString("Provide clear, actionable insights in the requested language. Be conversational, professional, and focus on business value. If data is available, reference specific metrics and trends.")
	return b.String()
}
