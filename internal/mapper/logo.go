package mapper

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// HTTPLogoFinder resolves logos through a favicon/logo CDN keyed by the
// company's website domain. It only verifies that the CDN has an image for
// the domain; the returned URL is stored as-is.
type HTTPLogoFinder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLogoFinder creates a logo finder against the given CDN base URL
// (e.g. "https://logo.clearbit.com").
func NewHTTPLogoFinder(baseURL string) *HTTPLogoFinder {
	return &HTTPLogoFinder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// FindLogo returns a logo URL for the website's domain, or an error when
// the CDN has none. Callers treat errors as a missing logo.
func (f *HTTPLogoFinder) FindLogo(ctx context.Context, website, _ string) (string, error) {
	domain, err := domainOf(website)
	if err != nil {
		return "", err
	}

	logoURL := f.baseURL + "/" + domain
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, logoURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "logo: create request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "logo: head request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("logo: no logo for %s (status %d)", domain, resp.StatusCode)
	}
	return logoURL, nil
}

func domainOf(website string) (string, error) {
	raw := website
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", eris.Errorf("logo: cannot parse website %q", website)
	}
	return strings.TrimPrefix(u.Host, "www."), nil
}
