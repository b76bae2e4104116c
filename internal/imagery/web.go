// Package imagery finds or generates the picture attached to a post.
package imagery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"linketron/internal/llm"
	"linketron/internal/logging"
)

const (
	fallbackQuery   = "Business technology professional"
	queryInputLimit = 500
	maxImageBytes   = 10 << 20
)

const queryPrompt = "Read this LinkedIn post and give me ONE distinct, concrete, physical object that represents the concept. " +
	"Output ONLY the search query. Do not use abstract words like 'Growth' or 'Success'. " +
	"Example: 'Server room blue lighting' or 'Handshake business close up'.\n\nPOST: %s"

// WebResult is the outcome of a web image lookup. URL is empty when nothing
// was found; Query is always set.
type WebResult struct {
	URL   string
	Query string
	Err   error
}

func (r WebResult) Found() bool { return r.URL != "" }

type WebFinder struct {
	fast     llm.Client
	searcher ImageSearcher
	logger   *zap.Logger
}

func NewWebFinder(fast llm.Client, searcher ImageSearcher, logger *zap.Logger) *WebFinder {
	return &WebFinder{fast: fast, searcher: searcher, logger: logging.OrNop(logger)}
}

// Find turns the post into a concrete search phrase and returns the first image
// for it. It never fails outright; see WebResult.
func (f *WebFinder) Find(ctx context.Context, postText string) WebResult {
	query := f.query(ctx, postText)
	if f.searcher == nil {
		return WebResult{Query: query, Err: fmt.Errorf("image search not configured")}
	}
	url, err := f.searcher.FirstImage(ctx, query)
	if err != nil {
		f.logger.Warn("image search failed", zap.String("query", query), zap.Error(err))
		return WebResult{Query: query, Err: err}
	}
	f.logger.Info("image found", zap.String("query", query))
	return WebResult{URL: url, Query: query}
}

func (f *WebFinder) query(ctx context.Context, postText string) string {
	if f.fast == nil {
		return fallbackQuery
	}
	prompt := fmt.Sprintf(queryPrompt, truncate(postText, queryInputLimit))
	resp, err := f.fast.Generate(ctx, []llm.Message{llm.User(prompt)})
	if err != nil {
		f.logger.Warn("query generation failed", zap.Error(err))
		return fallbackQuery
	}
	q := strings.Trim(strings.TrimSpace(resp.Content), `"'`)
	if q == "" {
		return fallbackQuery
	}
	return q
}

// Download fetches url into dest, creating parent directories.
func Download(ctx context.Context, client *http.Client, url, dest string) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	return writeFile(dest, data)
}

func writeFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
