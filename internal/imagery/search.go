package imagery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// ErrNoResults is returned by searchers when the query matched no image.
var ErrNoResults = errors.New("no image results")

// ImageSearcher resolves a query to the URL of the first matching image.
type ImageSearcher interface {
	FirstImage(ctx context.Context, query string) (string, error)
}

const serperURL = "https://google.serper.dev/images"

// SerperSearch queries the Serper Google Images API.
type SerperSearch struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
}

func NewSerperSearch(apiKey string, httpClient *http.Client) *SerperSearch {
	return &SerperSearch{APIKey: apiKey, Endpoint: serperURL, HTTP: httpClient}
}

func (s *SerperSearch) FirstImage(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", err
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = serperURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("serper status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out struct {
		Images []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode serper response: %w", err)
	}
	for _, img := range out.Images {
		if img.ImageURL != "" {
			return img.ImageURL, nil
		}
	}
	return "", ErrNoResults
}

// GoogleSearch uses the Programmable Search Engine image search.
type GoogleSearch struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearch builds the client; extra options (endpoint, HTTP client) are
// passed through to the API library.
func NewGoogleSearch(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleSearch, error) {
	if apiKey == "" || cx == "" {
		return nil, errors.New("google custom search needs an API key and an engine id")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}
	return &GoogleSearch{svc: svc, cx: cx}, nil
}

func (g *GoogleSearch) FirstImage(ctx context.Context, query string) (string, error) {
	res, err := g.svc.Cse.List().Cx(g.cx).Q(query).SearchType("image").Num(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("custom search: %w", err)
	}
	for _, item := range res.Items {
		if item.Link != "" {
			return item.Link, nil
		}
	}
	return "", ErrNoResults
}
