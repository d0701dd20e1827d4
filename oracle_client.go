package oracleworker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	oracleDefaultTimeout = 90 * time.Second
	// briefMarker separates the two granularities in one completion.
	briefMarker = "===BRIEF==="

	briefInstruction = `

RESPONSE FORMAT:
First write the complete reading. Then on its own line write ` + briefMarker + `
followed by a 2-3 sentence summary of the reading suitable for a notification preview.`
)

// HTTPOracle implements Oracle against an OpenAI-compatible chat
// completions endpoint. One completion yields both granularities via a
// marker the prompt asks the model to emit; a missing marker degrades
// to a truncated brief rather than a second paid call.
type HTTPOracle struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	log    *logrus.Entry
}

// NewHTTPOracle creates an oracle client for the given endpoint.
func NewHTTPOracle(url, apiKey, model string) *HTTPOracle {
	return &HTTPOracle{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: oracleDefaultTimeout},
		log:    logrus.WithField("component", "oracle_client"),
	}
}

type oracleChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oracleChatRequest struct {
	Model       string              `json:"model"`
	Messages    []oracleChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type oracleChatResponse struct {
	Choices []struct {
		Message oracleChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate runs one chat completion and splits it into the full reading
// and the brief preview.
func (o *HTTPOracle) Generate(ctx context.Context, systemPrompt string, history []ChatTurn, userMessage string) (ContentPair, error) {
	msgs := make([]oracleChatMessage, 0, len(history)+2)
	msgs = append(msgs, oracleChatMessage{Role: "system", Content: systemPrompt + briefInstruction})
	for _, turn := range history {
		msgs = append(msgs, oracleChatMessage{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, oracleChatMessage{Role: "user", Content: userMessage})

	payload, err := json.Marshal(oracleChatRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: 0.8,
	})
	if err != nil {
		return ContentPair{}, errors.Wrap(err, "encoding completion request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.url, bytes.NewReader(payload))
	if err != nil {
		return ContentPair{}, errors.Wrap(err, "building completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return ContentPair{}, errors.Wrap(err, "completion call")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ContentPair{}, errors.Wrap(err, "reading completion response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ContentPair{}, errors.Errorf("completion http %d: %s", resp.StatusCode, previewBody(body))
	}

	var decoded oracleChatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ContentPair{}, errors.Wrap(err, "decoding completion response")
	}
	if decoded.Error != nil {
		return ContentPair{}, errors.Errorf("completion error: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return ContentPair{}, errors.New("completion returned no choices")
	}
	return splitContentPair(decoded.Choices[0].Message.Content), nil
}

// splitContentPair extracts the two granularities from one completion.
func splitContentPair(content string) ContentPair {
	if idx := strings.Index(content, briefMarker); idx >= 0 {
		full := strings.TrimSpace(content[:idx])
		brief := strings.TrimSpace(content[idx+len(briefMarker):])
		if full != "" && brief != "" {
			return ContentPair{Full: full, Brief: brief}
		}
	}
	full := strings.TrimSpace(content)
	return ContentPair{Full: full, Brief: truncateBrief(full)}
}

// truncateBrief derives a preview when the model ignored the marker.
func truncateBrief(full string) string {
	const briefLimit = 280
	if len(full) <= briefLimit {
		return full
	}
	cut := full[:briefLimit]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > briefLimit/2 {
		return cut[:idx+1]
	}
	return strings.TrimSpace(cut) + "..."
}

func previewBody(body []byte) string {
	s := string(body)
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
