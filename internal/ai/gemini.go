package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"assistance_back_end/internal/models"
)

const defaultModel = "gemini-3-flash-preview"

// Agent est l'interface du moteur de décision. Les tests des handlers la
// remplacent par un agent scripté.
type Agent interface {
	// Chat envoie le prompt système, l'historique et le message courant,
	// et retourne la réponse brute (bloc d'action inclus).
	Chat(ctx context.Context, system string, history []models.ChatMessage, userMessage string) (string, error)

	// AnalyzeImage fait analyser une photo de preuve.
	AnalyzeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error)

	// GenerateText est une génération libre (reformulation de politique).
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Client parle à l'API Gemini via son endpoint REST generateContent.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	model := os.Getenv("GEMINI_MODEL_NAME")
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// --- Payloads REST Gemini ---

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generate(ctx context.Context, req geminiRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY non configurée")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("réponse Gemini illisible (HTTP %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("erreur Gemini %d: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("réponse Gemini vide (HTTP %d)", resp.StatusCode)
	}

	text := ""
	for _, p := range out.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}

func (c *Client) Chat(ctx context.Context, system string, history []models.ChatMessage, userMessage string) (string, error) {
	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
	}

	for _, m := range history {
		role := "model"
		if m.Role == "user" {
			role = "user"
		}
		req.Contents = append(req.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	req.Contents = append(req.Contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: userMessage}},
	})

	return c.generate(ctx, req)
}

func (c *Client) AnalyzeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
			},
		}},
	}
	return c.generate(ctx, req)
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
	}
	return c.generate(ctx, req)
}
