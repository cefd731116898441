// Package caseservice is the REST client for the backend case service:
// case lookup, status updates, presigned image URLs and the NGO directory.
package caseservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/server"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, server.WrapErrorf(nil, server.ErrConfiguration, "case service base url is required")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) GetCase(ctx context.Context, id string) (*datastructure.Case, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cases/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "build case request")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrProvider, "case service unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, server.WrapErrorf(nil, server.ErrNotFound, "case %s not found", id)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, server.WrapErrorf(nil, server.ErrProvider, "case service returned %d", res.StatusCode)
	}

	var caseData datastructure.Case
	if err := json.NewDecoder(res.Body).Decode(&caseData); err != nil {
		// shape error: abort the operation, caller state untouched
		return nil, server.WrapErrorf(err, server.ErrProvider, "decode case response")
	}
	return &caseData, nil
}

// UpdateCaseStatus posts a target status for an opaque case id. The backend
// contract is only "OK or not OK"; no retry here, the user repeats the action.
func (c *Client) UpdateCaseStatus(ctx context.Context, id string, status datastructure.CaseStatus) error {
	body, _ := json.Marshal(map[string]string{"status": string(status)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/cases/"+url.PathEscape(id)+"/status", bytes.NewReader(body))
	if err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "build status request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return server.WrapErrorf(err, server.ErrProvider, "case service unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return server.WrapErrorf(nil, server.ErrProvider, "status update for case %s returned %d", id, res.StatusCode)
	}
	return nil
}

// PresignedImageURL exchanges an object key for a short-lived download URL.
func (c *Client) PresignedImageURL(ctx context.Context, key string) (string, error) {
	q := url.Values{}
	q.Set("key", key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/uploads/presign?"+q.Encode(), nil)
	if err != nil {
		return "", server.WrapErrorf(err, server.ErrInternalServerError, "build presign request")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", server.WrapErrorf(err, server.ErrProvider, "case service unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", server.WrapErrorf(nil, server.ErrProvider, "presign returned %d", res.StatusCode)
	}

	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", server.WrapErrorf(err, server.ErrProvider, "decode presign response")
	}
	if parsed.URL == "" {
		return "", server.WrapErrorf(nil, server.ErrProvider, "presign response has no url")
	}
	return parsed.URL, nil
}

// ListNGOs walks the paged NGO directory.
func (c *Client) ListNGOs(ctx context.Context, page int) (ngos []datastructure.NGO, hasMore bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/ngos?page=%d", c.baseURL, page), nil)
	if err != nil {
		return nil, false, server.WrapErrorf(err, server.ErrInternalServerError, "build ngo request")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, server.WrapErrorf(err, server.ErrProvider, "case service unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, false, server.WrapErrorf(nil, server.ErrProvider, "ngo listing returned %d", res.StatusCode)
	}

	var parsed struct {
		NGOs    []datastructure.NGO `json:"ngos"`
		HasMore bool                `json:"has_more"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, false, server.WrapErrorf(err, server.ErrProvider, "decode ngo listing")
	}
	return parsed.NGOs, parsed.HasMore, nil
}

// ListOpenCases returns open cases for seeding the dispatch browse index.
func (c *Client) ListOpenCases(ctx context.Context) ([]datastructure.Case, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cases?status=open", nil)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "build cases request")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrProvider, "case service unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, server.WrapErrorf(nil, server.ErrProvider, "case listing returned %d", res.StatusCode)
	}

	var parsed struct {
		Cases []datastructure.Case `json:"cases"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, server.WrapErrorf(err, server.ErrProvider, "decode case listing")
	}
	return parsed.Cases, nil
}
