package oracleworker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	myMemoryDefaultURL     = "https://api.mymemory.translated.net/get"
	translateTimeout       = 15 * time.Second
	translateSourceLang    = "en"
	myMemoryRequestMaxSize = 500
)

// MyMemoryTranslator implements Translator against the MyMemory API.
// The provider rejects requests over 500 characters; the adapter's
// chunking keeps every request under that.
type MyMemoryTranslator struct {
	url    string
	email  string
	client *http.Client
}

// NewMyMemoryTranslator creates a translator client. email is optional
// and raises the provider's daily quota when set.
func NewMyMemoryTranslator(apiURL, email string) *MyMemoryTranslator {
	if apiURL == "" {
		apiURL = myMemoryDefaultURL
	}
	return &MyMemoryTranslator{
		url:    apiURL,
		email:  email,
		client: &http.Client{Timeout: translateTimeout},
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

// TranslateText translates one chunk of text into the target language.
func (t *MyMemoryTranslator) TranslateText(ctx context.Context, text, targetLangCode string) (string, error) {
	if len(text) > myMemoryRequestMaxSize {
		return "", errors.Errorf("text exceeds provider limit: %d chars", len(text))
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", translateSourceLang+"|"+targetLangCode)
	if t.email != "" {
		q.Set("de", t.email)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", t.url+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(err, "building translation request")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "translation call")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "reading translation response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("translation http %d: %s", resp.StatusCode, previewBody(body))
	}

	var decoded myMemoryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", errors.Wrap(err, "decoding translation response")
	}
	// The provider reports errors in-band with HTTP 200.
	if status, _ := decoded.ResponseStatus.Int64(); status != 0 && status != 200 {
		return "", errors.Errorf("translation status %d: %s", status, decoded.ResponseDetails)
	}
	return decoded.ResponseData.TranslatedText, nil
}
