package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mendableai/firecrawl-go"

	"hireflow/internal/config"
	"hireflow/internal/llm"
	"hireflow/internal/llm/processors"
	"hireflow/internal/logging"
	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// Importer turns a job posting URL into a structured job draft by
// scraping the page through the Firecrawl API and extracting fields
// with the LLM manager.
type Importer struct {
	config     *config.Config
	llmManager *llm.Manager
	app        *firecrawl.FirecrawlApp
	cleaner    *processors.HTMLCleaner
	logger     logging.Logger
}

// New creates an importer instance. Returns an error when the Firecrawl
// client cannot be constructed.
func New(cfg *config.Config, llmManager *llm.Manager) (*Importer, error) {
	app, err := firecrawl.NewFirecrawlApp(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firecrawl: %w", err)
	}

	return &Importer{
		config:     cfg,
		llmManager: llmManager,
		app:        app,
		cleaner:    processors.NewHTMLCleaner(),
		logger:     logging.GetGlobalLogger(),
	}, nil
}

// IsHealthy reports whether the importer can serve requests
func (i *Importer) IsHealthy() bool {
	return i.app != nil && i.config.Firecrawl.APIKey != "" && i.llmManager.IsHealthy()
}

// ImportJob scrapes the posting at url and extracts a job draft
func (i *Importer) ImportJob(ctx context.Context, url string) (*models.Job, error) {
	i.logger.Info("Starting job import", map[string]interface{}{"url": url})

	content, err := i.scrapeContent(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape content: %w", err)
	}

	// Firecrawl can fall back to raw HTML; clean it before prompting
	if strings.Contains(content, "<html") || strings.Contains(content, "<body") {
		cleaned, err := i.cleaner.ExtractJobContent(content)
		if err != nil {
			return nil, fmt.Errorf("failed to clean scraped HTML: %w", err)
		}
		content = cleaned
	}

	job, err := i.llmManager.ExtractJob(ctx, content, url)
	if err != nil {
		return nil, utils.NewLLMError(err.Error())
	}

	i.logger.Info("Job import succeeded", map[string]interface{}{
		"url":       url,
		"job_title": job.Title,
		"company":   job.Company,
	})

	return job, nil
}

// scrapeContent fetches the page content via Firecrawl with retries
func (i *Importer) scrapeContent(ctx context.Context, url string) (string, error) {
	scrapeParams := &firecrawl.ScrapeParams{
		Formats: []string{"markdown"},
	}

	var scrapeResult *firecrawl.FirecrawlDocument
	var err error

	for attempt := 1; attempt <= i.config.Firecrawl.MaxRetries; attempt++ {
		scrapeResult, err = i.app.ScrapeURL(url, scrapeParams)
		if err == nil {
			break
		}

		i.logger.Warn("Firecrawl scrape attempt failed", map[string]interface{}{
			"attempt": attempt,
			"url":     url,
			"error":   err.Error(),
		})

		if attempt < i.config.Firecrawl.MaxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("firecrawl scraping failed after %d attempts: %w", i.config.Firecrawl.MaxRetries, err)
	}
	if scrapeResult == nil {
		return "", fmt.Errorf("no result returned from Firecrawl")
	}

	if scrapeResult.Markdown != "" {
		return scrapeResult.Markdown, nil
	}
	if scrapeResult.HTML != "" {
		return scrapeResult.HTML, nil
	}
	return "", fmt.Errorf("no content found in Firecrawl response")
}
