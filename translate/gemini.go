package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultGeminiBaseURL is the public Generative Language API.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini calls the generateContent endpoint with an API key. Failures are
// *Error values; nothing is retried.
type Gemini struct {
	BaseURL string
	APIKey  string
	Model   string
	// Temperature for generation. Zero sends 0.
	Temperature float64
	Client      *http.Client
	Logger      zerolog.Logger
}

// NewGemini returns a provider using a proxy-aware client with timeout.
func NewGemini(apiKey, model string, timeout time.Duration) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{
		BaseURL:     DefaultGeminiBaseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.3,
		Client:      makeHTTPClient(timeout),
		Logger:      zerolog.Nop(),
	}
}

// makeHTTPClient honours HTTP(S)_PROXY from the environment.
func makeHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	return &http.Client{Transport: transport, Timeout: timeout}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
		GenerationConfig: geminiGenConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

// Translate implements Provider.
func (g *Gemini) Translate(ctx context.Context, req Request) (string, error) {
	fail := func(kind ErrorKind, status int, msg string, err error) error {
		return &Error{Kind: kind, Lang: req.TargetLang, Status: status, Message: msg, Err: err}
	}

	system, user := BuildPrompt(req)
	body, err := buildGeminiRequest(system, user, g.Temperature)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	base := strings.TrimRight(g.BaseURL, "/")
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, url.PathEscape(g.Model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	g.Logger.Debug().Str("lang", req.TargetLang).Str("model", g.Model).Msg("POST generateContent")
	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fail(KindTransport, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fail(KindTransport, resp.StatusCode, "", fmt.Errorf("reading response: %w", err))
	}
	g.Logger.Debug().
		Str("lang", req.TargetLang).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("generateContent response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fail(KindStatus, resp.StatusCode, errorMessage(respBody), nil)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fail(KindNoCandidate, resp.StatusCode, "invalid JSON response: "+truncate(string(respBody), 200), err)
	}
	if len(parsed.Candidates) == 0 {
		msg := "no candidates"
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			msg += ", blockReason " + parsed.PromptFeedback.BlockReason
		}
		return "", fail(KindNoCandidate, resp.StatusCode, msg, nil)
	}

	candidate := parsed.Candidates[0]
	var text strings.Builder
	for _, p := range candidate.Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		msg := "empty text"
		if candidate.FinishReason != "" {
			msg += ", finishReason " + candidate.FinishReason
		}
		return "", fail(KindNoCandidate, resp.StatusCode, msg, nil)
	}
	return text.String(), nil
}

// errorMessage extracts error.message from a JSON error body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	var e geminiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return truncate(strings.TrimSpace(string(body)), 500)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
