package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadscout/internal/resilience"
)

// NotFoundError indicates the registry has no record for the requested id.
type NotFoundError struct {
	Orgnr string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("registry: %s not found", e.Orgnr)
}

// IsNotFound reports whether err is a registry NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Client is the resilient HTTP client for one national business registry.
// Retry classification: 5xx, 429 and network failures are transient and
// retried with exponential backoff; other 4xx are permanent and returned
// immediately.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	retryCfg resilience.RetryConfig
}

// NewClient creates a Client for the given registry configuration.
func NewClient(cfg Config) *Client {
	cfg = cfg.applyDefaults()
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: cfg.limiter(),
		retryCfg: resilience.RetryConfig{
			MaxAttempts:    cfg.MaxRetries + 1,
			InitialBackoff: cfg.RetryBaseDelay,
			Multiplier:     2.0,
			OnRetry:        resilience.RetryLogger(cfg.Name, "fetch"),
		},
	}
}

// Country returns the two-letter country code this client is configured for.
func (c *Client) Country() string {
	return c.cfg.Country
}

// FetchPage fetches one page of the main entity listing.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int, filters ListFilters) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(pageSize))
	if filters.Name != "" {
		q.Set("navn", filters.Name)
	}
	if filters.OrganizationForm != "" {
		q.Set("organisasjonsform", filters.OrganizationForm)
	}
	if filters.IndustryCode != "" {
		q.Set("naeringskode", filters.IndustryCode)
	}
	if filters.MunicipalityNumber != "" {
		q.Set("kommunenummer", filters.MunicipalityNumber)
	}

	var env entitiesEnvelope
	if err := c.getJSON(ctx, c.cfg.EntitiesPath, q, &env); err != nil {
		return nil, eris.Wrapf(err, "registry: fetch page %d", page)
	}
	return &Page{
		Records: env.Embedded.Entities,
		HasNext: env.Links.Next != nil,
	}, nil
}

// FetchSubEntityPage fetches one page of the branch (sub-entity) listing.
func (c *Client) FetchSubEntityPage(ctx context.Context, page, pageSize int) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(pageSize))

	var env subEntitiesEnvelope
	if err := c.getJSON(ctx, c.cfg.SubEntitiesPath, q, &env); err != nil {
		return nil, eris.Wrapf(err, "registry: fetch sub-entity page %d", page)
	}
	return &Page{
		Records: env.Embedded.Entities,
		HasNext: env.Links.Next != nil,
	}, nil
}

// FetchByID fetches a single entity by organization number. Returns a
// NotFoundError on 404.
func (c *Client) FetchByID(ctx context.Context, orgnr string) (*Entity, error) {
	var ent Entity
	err := c.getJSON(ctx, c.cfg.EntitiesPath+"/"+url.PathEscape(orgnr), nil, &ent)
	if err != nil {
		var pe *resilience.PermanentError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{Orgnr: orgnr}
		}
		return nil, eris.Wrapf(err, "registry: fetch %s", orgnr)
	}
	return &ent, nil
}

// FetchChangesSince fetches one page of the change feed for entities
// modified since the given date.
func (c *Client) FetchChangesSince(ctx context.Context, since time.Time, page, pageSize int) (*ChangePage, error) {
	q := url.Values{}
	q.Set("dato", since.UTC().Format("2006-01-02"))
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(pageSize))

	var env changesEnvelope
	if err := c.getJSON(ctx, c.cfg.ChangesPath, q, &env); err != nil {
		return nil, eris.Wrapf(err, "registry: fetch changes page %d", page)
	}

	ids := make([]string, 0, len(env.Embedded.Changes))
	for _, ch := range env.Embedded.Changes {
		ids = append(ids, ch.Orgnr)
	}
	return &ChangePage{
		ChangedIDs: ids,
		HasNext:    env.Links.Next != nil,
	}, nil
}

// FetchRelations fetches the role groups registered for an entity.
func (c *Client) FetchRelations(ctx context.Context, orgnr string) ([]RoleGroup, error) {
	path := fmt.Sprintf(c.cfg.RelationsPath, url.PathEscape(orgnr))

	var env relationsEnvelope
	if err := c.getJSON(ctx, path, nil, &env); err != nil {
		var pe *resilience.PermanentError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{Orgnr: orgnr}
		}
		return nil, eris.Wrapf(err, "registry: fetch relations %s", orgnr)
	}
	return env.RoleGroups, nil
}

// getJSON performs a rate-limited GET with retries and decodes the response
// body into out. A 2xx response without a decodable body counts as transient:
// the upstream occasionally returns truncated bodies under load.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return resilience.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			return resilience.NewTransientError(
				eris.Errorf("http %d from %s", resp.StatusCode, u), resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			return resilience.NewPermanentError(
				eris.Errorf("http %d from %s", resp.StatusCode, u), resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resilience.NewTransientError(
				eris.Wrapf(err, "decode response from %s", u), resp.StatusCode)
		}
		return nil
	})
}
