// Package cms is the client for the Sanity content API, where approved
// drafts are published as public documents.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/newsroom-publishing-api/internal/config"
	"github.com/newsroom-publishing-api/internal/models"
)

// Client defines the CMS operations the publisher needs
type Client interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateDocument(ctx context.Context, doc *models.PublishedDocument) (string, error)
}

// client talks to the Sanity HTTP API
type client struct {
	baseURL    string
	dataset    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Sanity API client
func NewClient(cfg *config.CMSConfig) Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io/v%s", cfg.ProjectID, cfg.APIVersion)
	}
	return &client{
		baseURL: baseURL,
		dataset: cfg.Dataset,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// queryResponse is the Sanity query API response envelope
type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// mutateRequest is the Sanity mutation API request body
type mutateRequest struct {
	Mutations []mutation `json:"mutations"`
}

type mutation struct {
	CreateIfNotExists *models.PublishedDocument `json:"createIfNotExists,omitempty"`
	Create            *models.PublishedDocument `json:"create,omitempty"`
}

// mutateResponse is the Sanity mutation API response body
type mutateResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
	Error *struct {
		Description string `json:"description"`
	} `json:"error"`
}

// SlugExists checks whether a published document already uses the slug
func (c *client) SlugExists(ctx context.Context, slug string) (bool, error) {
	return c.slugTakenByOther(ctx, slug, "")
}

// slugTakenByOther counts documents on the slug, ignoring excludeID so a
// retry of the same document does not collide with itself
func (c *client) slugTakenByOther(ctx context.Context, slug, excludeID string) (bool, error) {
	groq := `count(*[_type == "article" && slug.current == $slug && _id != $exclude])`
	params := url.Values{}
	params.Set("query", groq)
	params.Set("$slug", fmt.Sprintf("%q", slug))
	params.Set("$exclude", fmt.Sprintf("%q", excludeID))

	endpoint := fmt.Sprintf("%s/data/query/%s?%s", c.baseURL, c.dataset, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call CMS query API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("CMS query error (status %d): %s", resp.StatusCode, string(body))
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}

	var count int
	if err := json.Unmarshal(qr.Result, &count); err != nil {
		return false, fmt.Errorf("failed to parse slug count: %w", err)
	}
	return count > 0, nil
}

// CreateDocument creates a published document and returns its id. Documents
// carrying a pre-assigned id are created with createIfNotExists, so repeating
// the call for the same id is a no-op rather than a duplicate. A slug taken
// by a different document surfaces as PublishConflictError so the
// orchestrator can report "title already used" instead of a generic failure.
func (c *client) CreateDocument(ctx context.Context, doc *models.PublishedDocument) (string, error) {
	taken, err := c.slugTakenByOther(ctx, doc.Slug.Current, doc.ID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", &models.PublishConflictError{Slug: doc.Slug.Current}
	}

	var mut mutation
	if doc.ID != "" {
		mut.CreateIfNotExists = doc
	} else {
		mut.Create = doc
	}
	reqBody, err := json.Marshal(mutateRequest{
		Mutations: []mutation{mut},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", c.baseURL, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call CMS mutation API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusConflict {
		return "", &models.PublishConflictError{Slug: doc.Slug.Current}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("CMS mutation error (status %d): %s", resp.StatusCode, string(body))
	}

	var mr mutateResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if mr.Error != nil {
		return "", fmt.Errorf("CMS mutation failed: %s", mr.Error.Description)
	}
	if len(mr.Results) > 0 && mr.Results[0].ID != "" {
		return mr.Results[0].ID, nil
	}
	// createIfNotExists reports no result when the document already existed
	if doc.ID != "" {
		return doc.ID, nil
	}
	return "", fmt.Errorf("CMS mutation returned no document id")
}

func (c *client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
