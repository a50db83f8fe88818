package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thunderderder/echo/internal/models"
	"github.com/thunderderder/echo/internal/stream"
)

func TestInsight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/insight" {
			t.Errorf("Path: got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"question":"what changed?","thinking":"opaque state"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	res, err := client.Insight(context.Background(), []models.Note{
		{ID: "1", Content: "a note", CreatedAt: time.Now()},
	}, "2024-01-05")
	if err != nil {
		t.Fatalf("Insight failed: %v", err)
	}
	if res.Question != "what changed?" {
		t.Errorf("Question: got %q", res.Question)
	}
	if res.Thinking != "opaque state" {
		t.Errorf("Thinking: got %q", res.Thinking)
	}
}

func TestInsightUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no api key configured", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.Insight(context.Background(), nil, "")
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Error should carry status: %v", err)
	}
}

func TestMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/match" {
			t.Errorf("Path: got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"echoes": [],
			"summary": "nothing resonates yet",
			"computedVectors": [{"noteId":"h1","vector":[0.1,0.2],"model":"m"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	resp, err := client.Match(context.Background(), models.MatchRequest{})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if resp.Summary != "nothing resonates yet" {
		t.Errorf("Summary: got %q", resp.Summary)
	}
	if len(resp.ComputedVectors) != 1 || resp.ComputedVectors[0].NoteID != "h1" {
		t.Errorf("ComputedVectors: got %+v", resp.ComputedVectors)
	}
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart: %v", err)
		}
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			t.Fatalf("Missing audio_file field: %v", err)
		}
		defer file.Close()
		if header.Filename != "recording.webm" {
			t.Errorf("Filename: got %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello from audio"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	text, err := client.Transcribe(context.Background(), "recording.webm", "audio/webm",
		strings.NewReader("fake-audio-bytes"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello from audio" {
		t.Errorf("Text: got %q", text)
	}
}

func TestConverseJSONMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"a single-shot reply"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	reply, err := client.Converse(context.Background(), models.ConversationRequest{CurrentMessage: "hi"}, nil)
	if err != nil {
		t.Fatalf("Converse failed: %v", err)
	}
	if reply != "a single-shot reply" {
		t.Errorf("Reply: got %q", reply)
	}
}

func TestConverseStreamingMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{
			"data: 第一行[NEWLINE]第二行\n\n",
			"data: ，继续\n\n",
			"data: [DONE]\n\n",
		} {
			w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	var deltas []string
	client := NewClient(srv.URL, "key")
	reply, err := client.Converse(context.Background(), models.ConversationRequest{}, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("Converse failed: %v", err)
	}

	if reply != "第一行\n第二行，继续" {
		t.Errorf("Reply: got %q", reply)
	}
	if len(deltas) != 2 {
		t.Fatalf("Expected 2 deltas, got %d: %v", len(deltas), deltas)
	}
	if deltas[0] != "第一行\n第二行" {
		t.Errorf("First delta: got %q", deltas[0])
	}
}

func TestConverseStreamingErrorFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: partial\n\ndata: [ERROR]model unavailable\n\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	reply, err := client.Converse(context.Background(), models.ConversationRequest{}, nil)
	if err == nil {
		t.Fatal("Expected error from ERROR frame")
	}
	var protoErr *stream.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Expected ProtocolError, got %T: %v", err, err)
	}
	if protoErr.Message != "model unavailable" {
		t.Errorf("Message: got %q", protoErr.Message)
	}
	if reply != "" {
		t.Errorf("No partial reply may survive an error, got %q", reply)
	}
}

func TestConverseStreamingTruncatedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: partial\n\n"))
		// Connection closes without a DONE frame.
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	reply, err := client.Converse(context.Background(), models.ConversationRequest{}, nil)
	if err == nil {
		t.Fatal("Expected error for truncated stream")
	}
	if reply != "" {
		t.Errorf("No partial reply may survive an abort, got %q", reply)
	}
}
