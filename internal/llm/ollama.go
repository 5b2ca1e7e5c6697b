package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama provides classification and transcription through a local
// Ollama server. Vision calls need a multimodal model such as llava or
// qwen2-vl; classification works with any chat model.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates an Ollama provider.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: baseURL,
		model:   modelName,
		client: &http.Client{
			// Local vision models can be slow
			Timeout: 120 * time.Second,
		},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Classify asks the model to label a document text sample.
func (o *Ollama) Classify(ctx context.Context, sample string) (string, error) {
	return o.chat(ctx, []ollamaMessage{
		{Role: "user", Content: classifyPrompt + sample},
	})
}

// Transcribe asks the model to read an image document and emit
// "Field: Value" lines.
func (o *Ollama) Transcribe(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pngData, err := preparePNG(imageData, contentType)
	if err != nil {
		return "", err
	}

	return o.chat(ctx, []ollamaMessage{
		{
			Role:    "system",
			Content: "You are an expert at reading receipts, invoices, and financial statements from images.",
		},
		{
			Role:    "user",
			Content: transcribePrompt,
			Images:  []string{base64.StdEncoding.EncodeToString(pngData)},
		},
	})
}

// chat performs one non-streaming chat call and returns the cleaned
// message content.
func (o *Ollama) chat(ctx context.Context, messages []ollamaMessage) (string, error) {
	reqBody, err := json.Marshal(ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return cleanResponse(chatResp.Message.Content), nil
}

// Close closes the Ollama provider (no-op for an HTTP client).
func (o *Ollama) Close() error {
	return nil
}
