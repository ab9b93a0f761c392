package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hdreventsza-arch/hrd-events/models"
)

var ErrRejected = errors.New("submission rejected by intake endpoint")

// IntakeResponse is what the spreadsheet script answers with.
type IntakeResponse struct {
	Result     string `json:"result"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	HTTPStatus int    `json:"-"`
}

// Accepted applies the endpoint's loose success contract: any of the result
// field, the status field or a 2xx transport status counts.
func (r IntakeResponse) Accepted() bool {
	return r.Result == "success" || r.Status == "success" ||
		(r.HTTPStatus >= 200 && r.HTTPStatus < 300)
}

// Submitter delivers a payload to the intake endpoint.
type Submitter interface {
	Submit(ctx context.Context, endpoint string, payload models.SubmissionPayload) (IntakeResponse, error)
}

type IntakeClient struct {
	client *http.Client
}

func NewIntakeClient(client *http.Client) *IntakeClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &IntakeClient{client: client}
}

// Submit posts payload once. A body that is not JSON is an error even when
// the transport status is 2xx.
func (s *IntakeClient) Submit(ctx context.Context, endpoint string, payload models.SubmissionPayload) (IntakeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return IntakeResponse{}, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return IntakeResponse{}, fmt.Errorf("create submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return IntakeResponse{}, fmt.Errorf("send submission: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return IntakeResponse{}, fmt.Errorf("read submission response: %w", err)
	}

	var result IntakeResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return IntakeResponse{HTTPStatus: resp.StatusCode}, fmt.Errorf("parse submission response (status %d): %w", resp.StatusCode, err)
	}
	result.HTTPStatus = resp.StatusCode

	if !result.Accepted() {
		return result, fmt.Errorf("%w: status %d, result %q", ErrRejected, resp.StatusCode, result.Result)
	}
	return result, nil
}
