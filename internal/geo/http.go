package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrLookupFailed is returned when a provider answers without a location.
var ErrLookupFailed = errors.New("geo lookup failed")

// Format selects how a provider's JSON body is decoded.
type Format int

const (
	// FormatIPAPICom decodes ip-api.com responses.
	FormatIPAPICom Format = iota
	// FormatIPAPICo decodes ipapi.co responses.
	FormatIPAPICo
)

// maxBodyBytes bounds a provider response.
const maxBodyBytes = 64 << 10

// HTTPProvider queries a JSON geolocation endpoint. URLTemplate contains a
// single %s that is replaced by the IP.
type HTTPProvider struct {
	name        string
	urlTemplate string
	format      Format
	client      *http.Client
}

// NewHTTPProvider creates a provider. A nil client gets a default one.
func NewHTTPProvider(name, urlTemplate string, format Format, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProvider{
		name:        name,
		urlTemplate: urlTemplate,
		format:      format,
		client:      client,
	}
}

// Name returns the provider name used in logs and metrics.
func (p *HTTPProvider) Name() string {
	return p.name
}

type ipAPIComResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	RegionName  string `json:"regionName"`
	City        string `json:"city"`
}

type ipAPICoResponse struct {
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code"`
	Region      string `json:"region"`
	City        string `json:"city"`
}

// Lookup performs one HTTP request. The caller bounds it through ctx.
func (p *HTTPProvider) Lookup(ctx context.Context, ip netip.Addr) (Location, error) {
	url := p.urlTemplate
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(p.urlTemplate, ip.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "folio-geo/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Location{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Location{}, fmt.Errorf("read body: %w", err)
	}

	switch p.format {
	case FormatIPAPICo:
		var r ipAPICoResponse
		if err := json.Unmarshal(body, &r); err != nil {
			return Location{}, fmt.Errorf("decode: %w", err)
		}
		if r.Error || r.CountryName == "" {
			return Location{}, fmt.Errorf("%w: %s", ErrLookupFailed, r.Reason)
		}
		return Location{
			Country:     r.CountryName,
			CountryCode: r.CountryCode,
			City:        r.City,
			Region:      r.Region,
		}.fill(), nil
	default:
		var r ipAPIComResponse
		if err := json.Unmarshal(body, &r); err != nil {
			return Location{}, fmt.Errorf("decode: %w", err)
		}
		if r.Status != "success" || r.Country == "" {
			return Location{}, fmt.Errorf("%w: %s", ErrLookupFailed, r.Message)
		}
		return Location{
			Country:     r.Country,
			CountryCode: r.CountryCode,
			City:        r.City,
			Region:      r.RegionName,
		}.fill(), nil
	}
}
