package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"linketron/internal/credentials"
	"linketron/internal/logging"
)

const uploadMechanism = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"

// Publisher posts to a member's feed. No step is retried.
type Publisher struct {
	apiBase string
	http    *http.Client
	logger  *zap.Logger
}

func NewPublisher(apiBase string, httpClient *http.Client, logger *zap.Logger) *Publisher {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Publisher{apiBase: strings.TrimRight(apiBase, "/"), http: httpClient, logger: logging.OrNop(logger)}
}

// Publish creates a post and returns its id. With imagePath set the image is
// registered, uploaded and attached first.
func (p *Publisher) Publish(ctx context.Context, rec credentials.Record, text, imagePath string) (string, error) {
	if !rec.Valid() {
		return "", ErrMissingCredentials
	}
	client := p.client(rec.AccessToken)
	author := "urn:li:person:" + rec.UserURN

	category := "NONE"
	media := []any{}
	if imagePath != "" {
		asset, err := p.uploadImage(ctx, client, author, imagePath)
		if err != nil {
			return "", err
		}
		category = "IMAGE"
		media = append(media, map[string]any{
			"media":       asset,
			"status":      "READY",
			"title":       map[string]any{"attributes": []any{}, "text": "Image"},
			"description": map[string]any{"attributes": []any{}, "text": "Uploaded via Linketron"},
		})
	}

	payload := map[string]any{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]any{"text": text},
				"shareMediaCategory": category,
				"media":              media,
			},
		},
		"visibility": map[string]any{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	body, status, header, err := p.postJSON(ctx, client, "/v2/ugcPosts", payload)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	if status < 200 || status > 299 {
		return "", &APIError{Step: "create post", Status: status, Body: string(body)}
	}
	var out struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &out)
	if out.ID == "" {
		out.ID = header.Get("X-RestLi-Id")
	}
	if out.ID == "" {
		out.ID = "Unknown"
	}
	p.logger.Info("post published", zap.String("post_id", out.ID), zap.String("media", category))
	return out.ID, nil
}

func (p *Publisher) uploadImage(ctx context.Context, client *http.Client, author, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   author,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}
	body, status, _, err := p.postJSON(ctx, client, "/v2/assets?action=registerUpload", payload)
	if err != nil {
		return "", fmt.Errorf("register upload: %w", err)
	}
	if status < 200 || status > 299 {
		return "", &APIError{Step: "register upload", Status: status, Body: string(body)}
	}
	var reg struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &reg); err != nil {
		return "", fmt.Errorf("decode register upload: %w", err)
	}
	uploadURL := reg.Value.UploadMechanism[uploadMechanism].UploadURL
	if uploadURL == "" || reg.Value.Asset == "" {
		return "", &APIError{Step: "register upload", Status: status, Body: string(body)}
	}

	// The binary upload carries only the bearer header.
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", &APIError{Step: "upload image", Status: resp.StatusCode, Body: string(b)}
	}
	p.logger.Debug("image uploaded", zap.String("asset", reg.Value.Asset))
	return reg.Value.Asset, nil
}

func (p *Publisher) postJSON(ctx context.Context, client *http.Client, path string, payload any) ([]byte, int, http.Header, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+path, bytes.NewReader(buf))
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, resp.Header, err
	}
	return body, resp.StatusCode, resp.Header, nil
}

func (p *Publisher) client(token string) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   p.http.Transport,
		},
		Timeout: p.http.Timeout,
	}
}
