package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deskflow/ai-ticket-assistant/internal/config"
)

func TestParseEnrichment(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    string
	}{
		{name: "plain", raw: `{"priority":"high","helpfulNotes":"n","relatedSkills":["VPN"]}`, want: "high"},
		{name: "fenced", raw: "```json\n{\"priority\":\"low\",\"relatedSkills\":[]}\n```", want: "low"},
		{name: "fenced no tag", raw: "```\n{\"priority\":\"medium\"}\n```", want: "medium"},
		{name: "garbage", raw: "I think this is urgent", wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnrichment(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEnrichment(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEnrichment() error = %v", err)
			}
			if got.Priority != tt.want {
				t.Fatalf("priority = %q, want %q", got.Priority, tt.want)
			}
		})
	}
}

func TestNewEnricherWithoutKeyIsDisabled(t *testing.T) {
	enricher := NewEnricher(config.AIConfig{}, nil)
	got, err := enricher.Analyze(context.Background(), "t", "d")
	if err != nil || got != nil {
		t.Fatalf("Analyze() = %v, %v; want nil, nil", got, err)
	}
}

func completionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.AIConfig {
	return config.AIConfig{APIKey: "test-key", BaseURL: baseURL, Model: "test-model", TimeoutSeconds: 5}
}

func TestOpenAIEnricherParsesReply(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "```json\n{\"priority\":\"high\",\"helpfulNotes\":\"restart the VPN\",\"relatedSkills\":[\"Networking\"]}\n```")
	enricher := NewEnricher(testConfig(srv.URL), nil)

	got, err := enricher.Analyze(context.Background(), "VPN down", "cannot connect")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got == nil || got.Priority != "high" || got.HelpfulNotes != "restart the VPN" {
		t.Fatalf("enrichment = %+v", got)
	}
	if len(got.RelatedSkills) != 1 || got.RelatedSkills[0] != "Networking" {
		t.Fatalf("skills = %v", got.RelatedSkills)
	}
}

func TestOpenAIEnricherUnparseableReplyIsNoResult(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "sorry, I cannot help")
	enricher := NewEnricher(testConfig(srv.URL), nil)

	got, err := enricher.Analyze(context.Background(), "t", "d")
	if err != nil || got != nil {
		t.Fatalf("Analyze() = %+v, %v; want nil, nil", got, err)
	}
}

func TestOpenAIEnricherReturnsTransportErrors(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, "")
	enricher := NewEnricher(testConfig(srv.URL), nil)

	if _, err := enricher.Analyze(context.Background(), "t", "d"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
