// Package openholidays is a client for OpenHolidays-style APIs: public
// holidays keyed by (subdivision, year) and school vacations (Ferien)
// over bounded date windows. Responses are cached on disk and re-used
// via conditional requests, so repeated generation runs stay cheap and
// survive network outages.
package openholidays

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	appLog "feiertagskal/internal/log"
)

// LocalizedText is one language variant of a holiday name.
type LocalizedText struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Vacation is a school-vacation period. End is inclusive, matching the
// upstream API; calendar rendering adds the exclusive day itself.
type Vacation struct {
	Names []LocalizedText
	Start time.Time
	End   time.Time
}

// Name returns the variant for the given language code, falling back to
// the first variant when the language is not present.
func (v Vacation) Name(language string) string {
	for _, n := range v.Names {
		if n.Language == language {
			return n.Text
		}
	}
	if len(v.Names) > 0 {
		return v.Names[0].Text
	}
	return ""
}

// apiRecord is the wire shape shared by the PublicHolidays and
// SchoolHolidays endpoints.
type apiRecord struct {
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Name      []LocalizedText `json:"name"`
}

// cacheEntry holds HTTP cache metadata for a single request URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Options configures a Client. Zero values are filled with defaults.
type Options struct {
	BaseURL    string
	Country    string
	CacheDir   string
	WindowDays int
	Timeout    time.Duration
}

// Client fetches holiday and vacation data with disk-backed HTTP
// caching (ETag / Last-Modified).
type Client struct {
	httpClient *http.Client
	baseURL    string
	country    string
	cacheDir   string
	windowDays int
}

// NewClient creates a Client from the given options.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://openholidaysapi.org"
	}
	if opts.Country == "" {
		opts.Country = "DE"
	}
	if opts.CacheDir == "" {
		opts.CacheDir = "./var/openholidays-cache"
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 365
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		country:    opts.Country,
		cacheDir:   opts.CacheDir,
		windowDays: opts.WindowDays,
	}
}

const apiDateLayout = "2006-01-02"

// PublicHolidays returns the public holidays of one subdivision for one
// year as a name-to-date mapping. German name variants are preferred.
func (c *Client) PublicHolidays(ctx context.Context, subdivision string, year int) (map[string]time.Time, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	records, err := c.fetchRecords(ctx, "PublicHolidays", subdivision, from, to)
	if err != nil {
		return nil, err
	}

	out := make(map[string]time.Time, len(records))
	for _, rec := range records {
		start, err := time.Parse(apiDateLayout, rec.StartDate)
		if err != nil {
			appLog.Error("openholidays: bad startDate, skipping record", err,
				"subdivision", subdivision, "start_date", rec.StartDate)
			continue
		}
		name := Vacation{Names: rec.Name}.Name("DE")
		if name == "" {
			continue
		}
		out[name] = start
	}
	return out, nil
}

// SchoolHolidays returns the school-vacation periods of one subdivision
// between from and to (inclusive). The range is fetched in consecutive
// windows of at most WindowDays each; periods straddling a window
// boundary are reported by both windows and deduplicated here by their
// (start, end) key.
func (c *Client) SchoolHolidays(ctx context.Context, subdivision string, from, to time.Time) ([]Vacation, error) {
	if to.Before(from) {
		return nil, errors.New("openholidays: to is before from")
	}

	seen := make(map[string]bool)
	var out []Vacation

	for windowStart := from; !windowStart.After(to); {
		windowEnd := windowStart.AddDate(0, 0, c.windowDays-1)
		if windowEnd.After(to) {
			windowEnd = to
		}

		records, err := c.fetchRecords(ctx, "SchoolHolidays", subdivision, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			key := rec.StartDate + "/" + rec.EndDate
			if seen[key] {
				continue
			}
			seen[key] = true

			start, err1 := time.Parse(apiDateLayout, rec.StartDate)
			end, err2 := time.Parse(apiDateLayout, rec.EndDate)
			if err1 != nil || err2 != nil {
				appLog.Error("openholidays: bad vacation dates, skipping record",
					errors.Join(err1, err2),
					"subdivision", subdivision,
					"start_date", rec.StartDate, "end_date", rec.EndDate)
				continue
			}
			out = append(out, Vacation{Names: rec.Name, Start: start, End: end})
		}

		windowStart = windowEnd.AddDate(0, 0, 1)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (c *Client) fetchRecords(ctx context.Context, endpoint, subdivision string, from, to time.Time) ([]apiRecord, error) {
	q := url.Values{}
	q.Set("countryIsoCode", c.country)
	q.Set("subdivisionCode", subdivision)
	q.Set("languageIsoCode", "DE")
	q.Set("validFrom", from.Format(apiDateLayout))
	q.Set("validTo", to.Format(apiDateLayout))

	reqURL := c.baseURL + "/" + endpoint + "?" + q.Encode()

	body, fromCache, err := c.fetch(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var records []apiRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("openholidays: decode %s: %w", endpoint, err)
	}

	appLog.Debug("openholidays: fetched records",
		"endpoint", endpoint, "subdivision", subdivision,
		"from", from.Format(apiDateLayout), "to", to.Format(apiDateLayout),
		"count", len(records), "from_cache", fromCache)
	return records, nil
}

// fetch performs a single GET honoring ETag and Last-Modified from the
// disk cache. On network errors or non-OK statuses a cached body, if
// present, is served instead.
func (c *Client) fetch(ctx context.Context, reqURL string) (body []byte, fromCache bool, err error) {
	cachePath, err := c.cachePathForURL(reqURL)
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, false, err
	}

	meta, _ := c.loadCacheMeta(cachePath)
	cachedBody, _ := c.loadCacheBody(cachePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("openholidays: network error, using cached body", err, "url", reqURL)
			return cachedBody, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		fresh, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, readErr
		}
		newMeta := cacheEntry{
			URL:          reqURL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := c.saveCache(cachePath, newMeta, fresh); err != nil {
			appLog.Error("openholidays: cache save failed", err, "url", reqURL)
		}
		return fresh, false, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, false, errors.New("openholidays: 304 Not Modified but no cached body")
		}
		return cachedBody, true, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("openholidays: non-OK status, using cached body",
				errors.New(resp.Status), "url", reqURL, "status", resp.StatusCode)
			return cachedBody, true, nil
		}
		return nil, false, fmt.Errorf("openholidays: %s", resp.Status)
	}
}

func (c *Client) cachePathForURL(reqURL string) (string, error) {
	if reqURL == "" {
		return "", errors.New("empty url")
	}
	sum := sha256.Sum256([]byte(reqURL))
	// First 16 hex chars as directory name.
	return filepath.Join(c.cacheDir, hex.EncodeToString(sum[:8])), nil
}

func (c *Client) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (c *Client) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.json"))
}

func (c *Client) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.json"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
