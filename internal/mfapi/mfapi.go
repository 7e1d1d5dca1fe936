// Package mfapi is a client for api.mfapi.in, a public feed of Indian
// mutual-fund NAVs keyed by AMFI scheme code.
package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/matching"
)

// DefaultBaseURL is the MFAPI host.
const DefaultBaseURL = "https://api.mfapi.in"

// Client fetches the scheme catalog and latest NAVs.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new MFAPI client.
// A nil httpClient gets a client with a 10 second timeout; an empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Scheme is one entry of the /mf catalog.
type Scheme struct {
	SchemeCode int    `json:"schemeCode"`
	SchemeName string `json:"schemeName"`
}

// LatestNAV is the /mf/{code}/latest response.
type LatestNAV struct {
	Meta struct {
		FundHouse  string `json:"fund_house"`
		SchemeType string `json:"scheme_type"`
		SchemeCode int    `json:"scheme_code"`
		SchemeName string `json:"scheme_name"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"` // 02-01-2006
		NAV  string `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

// Schemes returns the full scheme catalog.
func (c *Client) Schemes(ctx context.Context) ([]Scheme, error) {
	var schemes []Scheme
	if err := c.get(ctx, c.baseURL+"/mf", &schemes); err != nil {
		return nil, err
	}
	return schemes, nil
}

// Catalog returns the scheme catalog as matching entries, with codes as strings.
func (c *Client) Catalog(ctx context.Context) ([]matching.Entry, error) {
	schemes, err := c.Schemes(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]matching.Entry, 0, len(schemes))
	for _, s := range schemes {
		if s.SchemeName == "" {
			continue
		}
		entries = append(entries, matching.Entry{Name: s.SchemeName, Code: strconv.Itoa(s.SchemeCode)})
	}
	return entries, nil
}

// Latest returns the latest NAV record for a scheme code.
func (c *Client) Latest(ctx context.Context, code string) (LatestNAV, error) {
	var nav LatestNAV
	endpoint := fmt.Sprintf("%s/mf/%s/latest", c.baseURL, url.PathEscape(code))
	if err := c.get(ctx, endpoint, &nav); err != nil {
		return LatestNAV{}, err
	}
	if !strings.EqualFold(nav.Status, "SUCCESS") || len(nav.Data) == 0 {
		return LatestNAV{}, fmt.Errorf("no NAV returned for scheme %s", code)
	}
	return nav, nil
}

// Quote returns the latest NAV for a scheme code.
func (c *Client) Quote(ctx context.Context, code string) (float64, error) {
	nav, err := c.Latest(ctx, code)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(nav.Data[0].NAV), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid NAV %q for scheme %s: %w", nav.Data[0].NAV, code, err)
	}
	return value, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mfapi returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode mfapi response: %w", err)
	}
	return nil
}
