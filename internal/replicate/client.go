// Package replicate is a small client for the Replicate predictions API.
package replicate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

type Client struct {
	http         *resty.Client
	pollInterval time.Duration
}

// Prediction is the subset of the prediction object the client reads.
type Prediction struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Version string          `json:"version"`
	Status  string          `json:"status"`
	Output  json.RawMessage `json:"output"`
	Error   json.RawMessage `json:"error"`
	URLs    struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

func (p *Prediction) terminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

type createPredictionRequest struct {
	Version string         `json:"version,omitempty"`
	Input   map[string]any `json:"input"`
}

// APIError is the problem document returned for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("replicate: %s (status %d)", msg, e.StatusCode)
}

// PredictionError reports a prediction that ended as failed or canceled.
type PredictionError struct {
	ID      string
	Status  string
	Message string
}

func (e *PredictionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prediction %s %s", e.ID, e.Status)
	}
	return e.Message
}

func NewClient(baseURL string, pollInterval time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "genstudio/1.0").
		SetHeader("Content-Type", "application/json")
	return &Client{
		http:         client,
		pollInterval: pollInterval,
	}
}

// Run creates a prediction for ref and waits for it to finish, returning the
// raw output. ref is "owner/name" for an official model or
// "owner/name:version" for a pinned version. There is no overall deadline;
// only ctx stops the wait.
func (c *Client) Run(ctx context.Context, token, ref string, input map[string]any) (json.RawMessage, error) {
	logger := zerolog.Ctx(ctx).With().Str("ref", ref).Logger()

	pred, err := c.create(ctx, token, ref, input)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("prediction", pred.ID).Str("status", pred.Status).Msg("prediction created")

	for !pred.terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		pred, err = c.get(ctx, token, pred)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("prediction", pred.ID).Str("status", pred.Status).Msg("prediction polled")
	}

	if pred.Status != StatusSucceeded {
		return nil, &PredictionError{ID: pred.ID, Status: pred.Status, Message: errorMessage(pred.Error)}
	}
	return pred.Output, nil
}

func (c *Client) create(ctx context.Context, token, ref string, input map[string]any) (*Prediction, error) {
	path, body, err := predictionTarget(ref, input)
	if err != nil {
		return nil, err
	}
	return c.do(c.request(ctx, token).SetHeader("Prefer", "wait").SetBody(body), resty.MethodPost, path)
}

func (c *Client) get(ctx context.Context, token string, pred *Prediction) (*Prediction, error) {
	target := pred.URLs.Get
	if target == "" {
		target = "/v1/predictions/" + url.PathEscape(pred.ID)
	}
	return c.do(c.request(ctx, token), resty.MethodGet, target)
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(&APIError{})
}

func (c *Client) do(req *resty.Request, method, target string) (*Prediction, error) {
	var pred Prediction
	resp, err := req.SetResult(&pred).Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("replicate request failed: %w", err)
	}
	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Detail == "" && apiErr.Title == "" {
			apiErr.Detail = strings.TrimSpace(resp.String())
		}
		return nil, apiErr
	}
	return &pred, nil
}

// predictionTarget picks the endpoint for ref. Pinned versions go through
// the generic predictions endpoint, bare model names through the model one.
func predictionTarget(ref string, input map[string]any) (string, createPredictionRequest, error) {
	name, version, pinned := strings.Cut(ref, ":")
	owner, model, ok := strings.Cut(name, "/")
	if !ok || owner == "" || model == "" || strings.Contains(model, "/") || (pinned && version == "") {
		return "", createPredictionRequest{}, fmt.Errorf("invalid model reference %q", ref)
	}
	if pinned {
		return "/v1/predictions", createPredictionRequest{Version: version, Input: input}, nil
	}
	path := fmt.Sprintf("/v1/models/%s/%s/predictions", url.PathEscape(owner), url.PathEscape(model))
	return path, createPredictionRequest{Input: input}, nil
}

func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
