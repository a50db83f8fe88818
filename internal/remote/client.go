// Package remote holds the HTTP clients for the four external collaborators:
// transcription, insight, conversation, and echo matching. Their prompt
// behavior is opaque; this package only implements the wire contracts.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/thunderderder/echo/internal/models"
	"github.com/thunderderder/echo/internal/stream"
)

// Client talks to the assistant backend.
type Client struct {
	baseURL string
	apiKey  string

	// rest covers one-shot request/response calls. streaming has no global
	// timeout because conversation streams stay open as long as the model
	// talks; cancellation comes from the request context.
	rest      *http.Client
	streaming *http.Client
}

// NewClient creates a client for the assistant backend at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		rest: &http.Client{
			Timeout: 60 * time.Second,
		},
		streaming: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.rest.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Transcribe uploads an audio payload and returns the transcribed text. The
// upstream expects the multipart field name "audio_file".
func (c *Client) Transcribe(ctx context.Context, filename, contentType string, audio io.Reader) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if contentType == "" {
		contentType = "audio/webm"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio_file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/api/transcribe", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.rest.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call transcription API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Text, nil
}

// Insight asks for the day's guiding question. Question and thinking are
// stored verbatim; thinking is opaque state forwarded on later turns.
func (c *Client) Insight(ctx context.Context, notes []models.Note, selectedDate string) (*models.InsightResult, error) {
	payload := struct {
		Notes        []models.Note `json:"notes"`
		SelectedDate string        `json:"selectedDate,omitempty"`
	}{Notes: notes, SelectedDate: selectedDate}

	var out models.InsightResult
	if err := c.postJSON(ctx, "/api/insight", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Match sends today's notes plus history (with whatever vectors the cache
// already held) and returns echoes along with vectors computed server-side.
func (c *Client) Match(ctx context.Context, req models.MatchRequest) (*models.MatchResponse, error) {
	var out models.MatchResponse
	if err := c.postJSON(ctx, "/api/match", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Converse runs one conversation turn. The backend replies either with a
// single JSON object {"reply": ...} or with a chunked stream framed as
// "data: ..." events; Content-Type decides which. In streaming mode each
// decoded delta is handed to onDelta as it arrives, and the sealed reply is
// returned once the completion marker is seen. An ERROR frame or a transport
// abort discards the partial reply entirely.
func (c *Client) Converse(ctx context.Context, req models.ConversationRequest, onDelta func(delta string)) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, "POST", "/api/conversation", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.streaming.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call conversation API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("conversation API returned status %d: %s", resp.StatusCode, string(body))
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		var out struct {
			Reply string `json:"reply"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		return out.Reply, nil
	}

	return c.consumeStream(resp.Body, onDelta)
}

// consumeStream drains the framed response body. The parser and accumulator
// are per-turn values; an aborted transport leaves them unusable, so the next
// turn always builds fresh ones.
func (c *Client) consumeStream(body io.Reader, onDelta func(string)) (string, error) {
	parser := stream.NewParser()
	acc := stream.NewAccumulator()
	if err := acc.Start(); err != nil {
		return "", err
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, frame := range parser.Feed(string(buf[:n])) {
				switch frame.Kind {
				case stream.FrameData:
					if _, err := acc.AppendDelta(frame.Payload); err != nil {
						return "", err
					}
					if onDelta != nil {
						onDelta(frame.Payload)
					}
				case stream.FrameDone:
					return acc.Seal()
				case stream.FrameError:
					acc.Fail()
					return "", &stream.ProtocolError{Message: frame.Payload}
				}
			}
		}
		if readErr != nil {
			acc.Fail()
			if readErr == io.EOF {
				return "", fmt.Errorf("stream ended without completion marker")
			}
			return "", fmt.Errorf("stream aborted: %w", readErr)
		}
	}
}
