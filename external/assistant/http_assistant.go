package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amplifiedhq/amplified/internal/assistant"
)

const requestTimeout = 60 * time.Second

type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) assistant.Client {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type suggestRequest struct {
	Question string            `json:"question"`
	Context  map[string]string `json:"context,omitempty"`
	OwnerID  string            `json:"owner_id"`
}

func (c *HTTPClient) Suggest(ctx context.Context, question string, contextData map[string]string, ownerID string) (*assistant.Suggestion, error) {
	var out assistant.Suggestion
	err := c.postJSON(ctx, "/v1/suggestions", suggestRequest{
		Question: question,
		Context:  contextData,
		OwnerID:  ownerID,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Question == "" {
		out.Question = question
	}
	return &out, nil
}

type summaryRequest struct {
	MeetingID         string   `json:"meeting_id"`
	OwnerID           string   `json:"owner_id"`
	Transcript        string   `json:"transcript"`
	SessionNumber     int      `json:"session_number"`
	PreviousSummaries []string `json:"previous_summaries,omitempty"`
}

func (c *HTTPClient) Summarize(ctx context.Context, req assistant.SummaryRequest) (*assistant.Summary, error) {
	var out assistant.Summary
	err := c.postJSON(ctx, "/v1/summaries", summaryRequest{
		MeetingID:         req.MeetingID,
		OwnerID:           req.OwnerID,
		Transcript:        req.Transcript,
		SessionNumber:     req.SessionNumber,
		PreviousSummaries: req.PreviousSummaries,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.MeetingID == "" {
		out.MeetingID = req.MeetingID
	}
	return &out, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("assistant returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
