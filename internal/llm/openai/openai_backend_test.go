package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labassist/internal/config"
	"labassist/internal/llm"
	"labassist/internal/llm/openai"
	"labassist/internal/port"
)

func newTestBackend(serverURL string) *openai.Backend {
	cfg := &config.ProviderConfig{
		Provider:     "openai",
		APIKey:       "test-openai-key",
		DefaultModel: "gpt-4o",
		TimeoutSecs:  30,
	}
	return openai.NewBackendWithEndpoint(cfg, serverURL)
}

func chatResponse(content, finish string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}, "finish_reason": finish},
		},
	}
}

func TestBackend_Complete_PDFAttachment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody["model"])
		assert.Equal(t, "json_object", reqBody["response_format"].(map[string]interface{})["type"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])

		content := messages[1].(map[string]interface{})["content"].([]interface{})
		file := content[0].(map[string]interface{})
		assert.Equal(t, "file", file["type"])
		fileData := file["file"].(map[string]interface{})["file_data"].(string)
		assert.True(t, strings.HasPrefix(fileData, "data:application/pdf;base64,"))

		_ = json.NewEncoder(w).Encode(chatResponse(`{"tests":[]}`, "stop"))
	}))
	defer server.Close()

	out, err := newTestBackend(server.URL).Complete(context.Background(), port.CompletionRequest{
		SystemPrompt:   "extract",
		Prompt:         "go",
		Attachment:     &port.Attachment{MimeType: "application/pdf", Data: []byte("%PDF")},
		ResponseFormat: port.FormatJSON,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"tests":[]}`, out.Text)
	assert.Equal(t, "gpt-4o", out.Model)
}

func TestBackend_Complete_Length(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse("{", "length"))
	}))
	defer server.Close()

	_, err := newTestBackend(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "q"})
	assert.ErrorIs(t, err, llm.ErrTruncated)
}

func TestBackend_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestBackend(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "q"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestBackend_Complete_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid"}}`))
	}))
	defer server.Close()

	_, err := newTestBackend(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "q"})

	var stErr *llm.StatusError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, "openai", stErr.Provider)
	assert.False(t, llm.IsTransient(err))
}
