package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/rs/zerolog"
)

const maxErrorBody = 4096

// Requester sends JSON requests to one base URL with the credentials of a profile.
type Requester struct {
	http    *http.Client
	baseURL string
	profile domain.ConfigProfile
}

func NewRequester(baseURL string, profile domain.ConfigProfile, httpClient *http.Client) (*Requester, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Requester{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		profile: profile,
	}, nil
}

func (r *Requester) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.profile.BasicAuth() {
		req.SetBasicAuth(r.profile.Username, r.profile.Password)
	} else if r.profile.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.profile.Token)
	}
	return req, nil
}

// Do sends in as the JSON body, if set, and returns the response body of a 2xx answer.
// Other answers become an *HTTPError.
func (r *Requester) Do(ctx context.Context, method, path string, in any) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	req, err := r.newRequest(ctx, method, path, in)
	if err != nil {
		return nil, err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("method", method).Str("url", r.baseURL+path).Msg("request failed")
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// DoJSON is Do decoding the response into out. A nil out discards the body.
func (r *Requester) DoJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := r.Do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// checkResponse prefers the message of a JSON error body over the raw text.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var apiErr api.Error
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
		return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
