// Package orchestrator fetches job executions from an RPA orchestrator's OData API.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"rpa-insights/internal/jobs"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	cloudHost       = "https://cloud.uipath.com"
	defaultPageSize = 100
	defaultTimeout  = 60 * time.Second
	folderHeader    = "X-UIPATH-OrganizationUnitId"
)

// DefaultScopes are requested when Config.Scopes is empty.
var DefaultScopes = []string{"OR.Jobs", "OR.Robots", "OR.Machines"}

// ErrUnauthorized is returned when the API still rejects the request after a token refresh.
var ErrUnauthorized = errors.New("orchestrator rejected credentials")

// ErrNotConfigured is returned when client credentials are missing.
var ErrNotConfigured = errors.New("orchestrator client credentials are not configured")

// Client is the interface for fetching jobs.
type Client interface {
	// FetchJobs returns all jobs that started between the first second of from's date and the
	// last second of to's date.
	FetchJobs(ctx context.Context, from, to time.Time) ([]jobs.Job, error)
}

// Config holds the connection and credential settings.
type Config struct {
	OrgSlug      string
	Tenant       string
	ClientID     string
	ClientSecret string
	FolderID     string
	Scopes       []string

	// Optional overrides, derived from OrgSlug and Tenant when empty.
	BaseURL  string
	TokenURL string

	PageSize int
	Timeout  time.Duration
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("%s/%s/%s/orchestrator_/", cloudHost, c.OrgSlug, c.Tenant)
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.TokenURL == "" {
		c.TokenURL = fmt.Sprintf("%s/%s/identity_/connect/token", cloudHost, c.OrgSlug)
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

type cloudClient struct {
	cfg        Config
	creds      *clientcredentials.Config
	httpClient *http.Client

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewClient creates an Orchestrator client authenticating with OAuth2 client credentials.
func NewClient(cfg Config) (Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	cfg = cfg.withDefaults()
	return &cloudClient{
		cfg: cfg,
		creds: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *cloudClient) token(ctx context.Context, refresh bool) (*oauth2.Token, error) {
	c.mu.Lock()
	if c.tokens == nil || refresh {
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		c.tokens = c.creds.TokenSource(tokenCtx)
		if refresh {
			log.Debug().Msg("Discarded cached orchestrator token")
		}
	}
	ts := c.tokens
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain orchestrator token: %w", err)
	}
	return tok, nil
}

func (c *cloudClient) jobsQuery(from, to time.Time, skip int) string {
	fromStr := from.Format(time.DateOnly) + "T00:00:00Z"
	toStr := to.Format(time.DateOnly) + "T23:59:59Z"

	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("StartTime ge %s and StartTime le %s", fromStr, toStr))
	params.Set("$orderby", "StartTime asc")
	params.Set("$expand", "Robot")
	params.Set("$top", fmt.Sprintf("%d", c.cfg.PageSize))
	params.Set("$skip", fmt.Sprintf("%d", skip))
	return fmt.Sprintf("%sodata/Jobs?%s", c.cfg.BaseURL, params.Encode())
}

func (c *cloudClient) FetchJobs(ctx context.Context, from, to time.Time) ([]jobs.Job, error) {
	var result []jobs.Job
	skip := 0
	for {
		page, err := c.fetchPage(ctx, c.jobsQuery(from, to, skip))
		if err != nil {
			return nil, err
		}
		if len(page.Value) == 0 {
			break
		}
		for _, item := range page.Value {
			if job, ok := MapJob(item); ok {
				result = append(result, job)
			}
		}
		skip += len(page.Value)
		if len(page.Value) < c.cfg.PageSize {
			break
		}
	}

	log.Info().
		Int("jobs", len(result)).
		Str("from", from.Format(time.DateOnly)).
		Str("to", to.Format(time.DateOnly)).
		Msg("Fetched jobs from orchestrator")
	return result, nil
}

func (c *cloudClient) fetchPage(ctx context.Context, pageURL string) (*JobsPage, error) {
	log.Debug().Str("url", pageURL).Msg("Requesting jobs page")

	resp, err := c.do(ctx, pageURL, false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		log.Warn().Msg("Orchestrator returned 401, refreshing token")
		resp, err = c.do(ctx, pageURL, true)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
		default:
			return nil, fmt.Errorf("orchestrator API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}

	var page JobsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode orchestrator response: %w", err)
	}
	return &page, nil
}

func (c *cloudClient) do(ctx context.Context, pageURL string, refresh bool) (*http.Response, error) {
	tok, err := c.token(ctx, refresh)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.FolderID != "" {
		req.Header.Set(folderHeader, c.cfg.FolderID)
	}

	return c.httpClient.Do(req)
}
