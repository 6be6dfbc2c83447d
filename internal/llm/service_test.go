package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"narrative-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessagesTruncatesHistory(t *testing.T) {
	svc := NewService(Config{APIKey: "test"})

	history := make([]models.ChatMessage, 8)
	for i := range history {
		history[i] = models.ChatMessage{Role: "user", Content: fmt.Sprintf("turn %d", i)}
	}

	messages := svc.BuildMessages(ConverseRequest{
		Message: "latest question",
		Role:    "analyst",
		History: history,
	})

	// system + last 6 turns + new user turn
	require.Len(t, messages, 8)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "turn 2", messages[1].Content)
	assert.Equal(t, "turn 7", messages[6].Content)
	assert.Equal(t, "user", messages[7].Role)
	assert.Equal(t, "latest question", messages[7].Content)
}

func TestBuildMessagesShortHistoryKeptWhole(t *testing.T) {
	svc := NewService(Config{APIKey: "test"})

	messages := svc.BuildMessages(ConverseRequest{
		Message: "hi",
		History: []models.ChatMessage{{Role: "user", Content: "only turn"}},
	})

	require.Len(t, messages, 3)
	assert.Equal(t, "only turn", messages[1].Content)
}

func TestSystemPromptFallbacks(t *testing.T) {
	got := systemPrompt("cfo", "xx", false, "")

	// Unknown role falls back to the ceo focus; unknown language code
	// falls back to English but still appears upper-cased as the role.
	assert.Contains(t, got, "Always respond in English.")
	assert.Contains(t, got, "- User role: CFO")
	assert.Contains(t, got, rolePrompts["ceo"])
	assert.Contains(t, got, "- Data available: No")
	assert.NotContains(t, got, "- Data context:")
}

func TestSystemPromptWithDataContext(t *testing.T) {
	got := systemPrompt("analyst", "es", true, "Dataset: 3 records, 2 columns (a, b)")

	assert.Contains(t, got, "Always respond in Spanish.")
	assert.Contains(t, got, "- Data available: Yes")
	assert.Contains(t, got, "- Data context: Dataset: 3 records, 2 columns (a, b)")
	assert.Contains(t, got, rolePrompts["analyst"])
}

func TestConverse(t *testing.T) {
	var captured chatCompletionRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"model": "llama3-8b-8192",
			"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
			"choices": [{"message": {"role": "assistant", "content": "Here is my analysis."}}]
		}`)
	}))
	defer upstream.Close()

	svc := NewService(Config{APIURL: upstream.URL, APIKey: "test-key"})
	result, err := svc.Converse(context.Background(), ConverseRequest{
		Message:  "How are sales?",
		Role:     "marketer",
		Language: "fr",
	})
	require.NoError(t, err)

	assert.Equal(t, "Here is my analysis.", result.Response)
	assert.Equal(t, "llama3-8b-8192", result.Model)
	assert.JSONEq(t, `{"prompt_tokens":10,"completion_tokens":20,"total_tokens":30}`, string(result.Usage))

	assert.Equal(t, "llama3-8b-8192", captured.Model)
	assert.Equal(t, 1000, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-9)
	assert.False(t, captured.Stream)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "Always respond in French.")
	assert.Equal(t, "How are sales?", captured.Messages[1].Content)
}

func TestConverseUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limit exceeded"}}`)
	}))
	defer upstream.Close()

	svc := NewService(Config{APIURL: upstream.URL, APIKey: "test-key"})
	_, err := svc.Converse(context.Background(), ConverseRequest{Message: "hi"})
	require.Error(t, err)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "rate limit exceeded")
}

func TestConverseMissingChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer upstream.Close()

	svc := NewService(Config{APIURL: upstream.URL, APIKey: "test-key"})
	_, err := svc.Converse(context.Background(), ConverseRequest{Message: "hi"})

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusOK, upErr.StatusCode)
}

func TestConverseNotJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway timeout</html>")
	}))
	defer upstream.Close()

	svc := NewService(Config{APIURL: upstream.URL, APIKey: "test-key"})
	_, err := svc.Converse(context.Background(), ConverseRequest{Message: "hi"})

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.True(t, strings.Contains(upErr.Body, "gateway timeout"))
}

func TestConnected(t *testing.T) {
	assert.True(t, NewService(Config{APIKey: "k"}).Connected())
	assert.False(t, NewService(Config{}).Connected())
}
