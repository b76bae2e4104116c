// Package app assembles the content pipeline from a Config. The bot, the
// admin CLI and the MCP server share it.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"linketron/internal/config"
	"linketron/internal/imagery"
	"linketron/internal/linkedin"
	"linketron/internal/llm"
	"linketron/internal/logging"
	"linketron/internal/pipeline"
	"linketron/internal/refiner"
	"linketron/internal/research"
	"linketron/internal/writer"
)

type Components struct {
	Catalog    *research.Catalog
	Researcher *research.Researcher
	Writer     *writer.Writer
	Refiner    *refiner.Refiner
	Pipeline   *pipeline.Pipeline
	WebImages  *imagery.WebFinder
	Generator  *imagery.Generator
	OAuth      *linkedin.OAuth
	Publisher  *linkedin.Publisher
	HTTPClient *http.Client
}

func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	logger = logging.OrNop(logger)

	lenses, err := config.LoadLenses(cfg.LensesFilePath)
	if err != nil {
		return nil, err
	}
	factory := llm.NewFactory(cfg)
	writerLLM, err := factory.Writer()
	if err != nil {
		return nil, fmt.Errorf("writer client: %w", err)
	}
	fast, err := factory.Fast()
	if err != nil {
		return nil, fmt.Errorf("fast client: %w", err)
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	searcher, err := NewImageSearcher(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}
	if searcher == nil {
		logger.Warn("no image search configured, web photos disabled", zap.String("provider", cfg.ImageSearchProvider))
	}

	c := &Components{
		Catalog:    research.NewCatalog(lenses...),
		Writer:     writer.New(writerLLM, logger.Named("writer")),
		Refiner:    refiner.New(writerLLM, logger.Named("refiner")),
		Generator:  imagery.NewGenerator(fast, factory.ImageGenerator(), logger.Named("imagery")),
		OAuth:      linkedin.NewOAuth(cfg.LinkedInClientID, cfg.LinkedInClientSecret, cfg.LinkedInRedirectURL, cfg.LinkedInAPIBaseURL, httpClient),
		Publisher:  linkedin.NewPublisher(cfg.LinkedInAPIBaseURL, httpClient, logger.Named("linkedin")),
		HTTPClient: httpClient,
	}
	c.Researcher = research.New(c.Catalog, fast, factory.Search(), logger.Named("research"))
	c.Pipeline = pipeline.New(factory.Transcriber(), c.Writer, c.Refiner, logger.Named("pipeline"))
	c.WebImages = imagery.NewWebFinder(fast, searcher, logger.Named("imagery"))
	return c, nil
}

// NewImageSearcher picks the image search backend. A missing key yields nil
// and no error: the web photo option then reports no results.
func NewImageSearcher(ctx context.Context, cfg *config.Config, httpClient *http.Client) (imagery.ImageSearcher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.ImageSearchProvider)) {
	case "", "serper":
		if cfg.SerperAPIKey == "" {
			return nil, nil
		}
		return imagery.NewSerperSearch(cfg.SerperAPIKey, httpClient), nil
	case "google":
		if cfg.GoogleCSEAPIKey == "" || cfg.GoogleCSEID == "" {
			return nil, nil
		}
		g, err := imagery.NewGoogleSearch(ctx, cfg.GoogleCSEAPIKey, cfg.GoogleCSEID)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown image search provider: %s", cfg.ImageSearchProvider)
	}
}
