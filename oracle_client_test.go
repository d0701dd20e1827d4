package oracleworker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSplitContentPair_WithMarker(t *testing.T) {
	pair := splitContentPair("The full reading here.\n" + briefMarker + "\nA short preview.")
	if pair.Full != "The full reading here." || pair.Brief != "A short preview." {
		t.Fatalf("got %+v", pair)
	}
}

func TestSplitContentPair_MissingMarker(t *testing.T) {
	pair := splitContentPair("Just one body of text with no marker.")
	if pair.Full != "Just one body of text with no marker." {
		t.Fatalf("full %q", pair.Full)
	}
	if pair.Brief == "" {
		t.Fatal("brief not derived")
	}
}

func TestTruncateBrief_CutsAtSentence(t *testing.T) {
	full := strings.Repeat("Stars align for you today. ", 20)
	brief := truncateBrief(full)
	if len(brief) > 280 {
		t.Fatalf("brief too long: %d", len(brief))
	}
	if !strings.HasSuffix(brief, ".") {
		t.Fatalf("brief does not end at a sentence: %q", brief)
	}
}

func TestHTTPOracle_Generate(t *testing.T) {
	var gotReq oracleChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Error(err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Reading.\n" + briefMarker + "\nPreview."}},
			},
		})
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL, "key", "test-model")
	pair, err := oracle.Generate(context.Background(), "system prompt",
		[]ChatTurn{{Role: "user", Content: "earlier"}}, "current question")
	if err != nil {
		t.Fatal(err)
	}
	if pair.Full != "Reading." || pair.Brief != "Preview." {
		t.Fatalf("got %+v", pair)
	}

	if gotReq.Model != "test-model" {
		t.Fatalf("model %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 3 {
		t.Fatalf("messages %v", gotReq.Messages)
	}
	if gotReq.Messages[0].Role != "system" || !strings.Contains(gotReq.Messages[0].Content, briefMarker) {
		t.Fatal("system prompt missing format instruction")
	}
	if gotReq.Messages[2].Content != "current question" {
		t.Fatal("user message not last")
	}
}

func TestHTTPOracle_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL, "", "m")
	if _, err := oracle.Generate(context.Background(), "s", nil, "u"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMyMemoryTranslator_InBandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"responseData":    map[string]string{"translatedText": ""},
			"responseStatus":  403,
			"responseDetails": "invalid language pair",
		})
	}))
	defer srv.Close()

	tr := NewMyMemoryTranslator(srv.URL, "")
	if _, err := tr.TranslateText(context.Background(), "hola", "es"); err == nil {
		t.Fatal("expected in-band error surfaced")
	}
}

func TestMyMemoryTranslator_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "en|es" {
			t.Errorf("langpair %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"responseData":   map[string]string{"translatedText": "las cartas hablan"},
			"responseStatus": 200,
		})
	}))
	defer srv.Close()

	tr := NewMyMemoryTranslator(srv.URL, "")
	out, err := tr.TranslateText(context.Background(), "the cards speak", "es")
	if err != nil {
		t.Fatal(err)
	}
	if out != "las cartas hablan" {
		t.Fatalf("got %q", out)
	}
}

func TestMyMemoryTranslator_RejectsOversizedChunk(t *testing.T) {
	tr := NewMyMemoryTranslator("http://unused.invalid", "")
	if _, err := tr.TranslateText(context.Background(), strings.Repeat("a", 501), "es"); err == nil {
		t.Fatal("expected length rejection")
	}
}
