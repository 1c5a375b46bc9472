// Package status probes public Telegram profile pages and classifies an
// entity's reachability. The classification is a best-effort heuristic over
// unstructured page content, not an authoritative membership check.
package status

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
	"github.com/adelyanov/vigil/internal/identifier"
)

const (
	defaultBaseURL = "https://t.me"
	maxBodyBytes   = 1 << 20 // profile pages are small; cap reads defensively

	// Page markers t.me serves for public entities. Contact markers appear
	// on user/bot pages, the join marker on channel previews, and the
	// unavailable marker on entities taken down for abuse.
	markerContact     = "you can contact"
	markerJoin        = "you can view and join"
	markerPreview     = "preview channel"
	markerUnavailable = "can't be displayed"
)

// Resolver classifies the reachability of public Telegram entities.
type Resolver struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// NewResolver creates a resolver probing the public t.me namespace.
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{
			// Redirects are a classification signal, not something to follow:
			// a removed entity redirects to the platform root.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: defaultBaseURL,
		timeout: timeout,
	}
}

// NewResolverWithBaseURL creates a resolver against a custom base URL.
// Used by tests to point at a local server.
func NewResolverWithBaseURL(baseURL string, timeout time.Duration) *Resolver {
	r := NewResolver(timeout)
	r.baseURL = strings.TrimRight(baseURL, "/")
	return r
}

// Resolve probes the subject's public profile page once and classifies the
// result. It never returns an error: every failure mode degrades to an
// outcome, with TransientError covering transport faults and timeouts.
func (r *Resolver) Resolve(ctx context.Context, canonical string) domain.StatusOutcome {
	outcome := domain.StatusOutcome{Subject: canonical}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := r.baseURL + "/" + identifier.Username(canonical)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		outcome.Category = domain.CategoryTransientError
		outcome.Detail = fmt.Sprintf("build request: %v", err)
		return outcome
	}

	resp, err := r.client.Do(req)
	if err != nil {
		outcome.Category = domain.CategoryTransientError
		outcome.Detail = fmt.Sprintf("probe failed: %v", err)
		slog.Debug("Status probe transport failure", "subject", canonical, "error", err)
		return outcome
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close probe response body", "subject", canonical, "error", closeErr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		outcome.Category = domain.CategoryNotFound
		outcome.Detail = "no public page for this name"
		return outcome
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return classifyRedirect(outcome, resp.Header.Get("Location"))
	case resp.StatusCode != http.StatusOK:
		outcome.Category = domain.CategoryUnknown
		outcome.Detail = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return outcome
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		outcome.Category = domain.CategoryTransientError
		outcome.Detail = fmt.Sprintf("read response: %v", err)
		return outcome
	}

	return classifyBody(outcome, string(body))
}

func classifyRedirect(outcome domain.StatusOutcome, location string) domain.StatusOutcome {
	// A redirect back to the bare platform root is the "gone" signal t.me
	// uses for removed entities.
	trimmed := strings.TrimRight(location, "/")
	if trimmed == "" || trimmed == defaultBaseURL || trimmed == "https://telegram.org" {
		outcome.Category = domain.CategoryRestricted
		outcome.Detail = "page redirects to platform root"
		return outcome
	}
	outcome.Category = domain.CategoryUnknown
	outcome.Detail = "unexpected redirect to " + location
	return outcome
}

func classifyBody(outcome domain.StatusOutcome, body string) domain.StatusOutcome {
	lower := strings.ToLower(body)

	// Order matters: the unavailable banner can appear on a page that still
	// carries generic contact boilerplate, so check it first.
	switch {
	case strings.Contains(lower, markerUnavailable):
		outcome.Category = domain.CategoryRestricted
		outcome.Detail = "page exists but content is not displayable"
	case strings.Contains(lower, markerContact),
		strings.Contains(lower, markerJoin),
		strings.Contains(lower, markerPreview):
		outcome.Category = domain.CategoryLive
		outcome.Detail = "public page is displayable and contactable"
	default:
		// Ambiguous content (e.g. a name that could be a bot or a channel):
		// never guess, report Unknown.
		outcome.Category = domain.CategoryUnknown
		outcome.Detail = "page content did not match any known marker"
	}
	return outcome
}
