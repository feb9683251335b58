package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/piclabel/internal/config"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/internal/utils"
	"github.com/bstardust/piclabel/pkg/common"
)

// Nominatim is a client for the OpenStreetMap Nominatim reverse endpoint
type Nominatim struct {
	baseURL   *url.URL
	language  string
	userAgent string
	client    *http.Client
}

type nominatimResponse struct {
	Error       string           `json:"error"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	HouseNumber  string `json:"house_number"`
	Road         string `json:"road"`
	Pedestrian   string `json:"pedestrian"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Hamlet       string `json:"hamlet"`
	Municipality string `json:"municipality"`
	Country      string `json:"country"`
}

// NewNominatim creates a Nominatim client from the geocoder settings
func NewNominatim(cfg config.GeocodeConfig) (*Nominatim, error) {
	base, err := utils.ParseServiceURL(cfg.Endpoint)
	if err != nil {
		return nil, common.NewGeocodeError("invalid endpoint", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Nominatim{
		baseURL:   base,
		language:  cfg.Language,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Reverse looks up the address closest to lat/lon
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	u := n.baseURL.JoinPath("reverse")
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("zoom", "18")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, common.NewGeocodeError("failed to build request", err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
	if n.language != "" {
		req.Header.Set("Accept-Language", n.language)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, common.NewGeocodeError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewGeocodeError(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, common.NewGeocodeError("failed to decode response", err)
	}
	if body.Error != "" {
		logger.Debug("Nominatim returned no result for %f,%f: %s", lat, lon, body.Error)
		return nil, ErrNoResult
	}

	addr := body.Address.toAddress()
	if addr.Format() == "" {
		return nil, ErrNoResult
	}
	return addr, nil
}

func (a nominatimAddress) toAddress() *Address {
	street := firstNonEmpty(a.Road, a.Pedestrian)
	if street != "" && a.HouseNumber != "" {
		street = a.HouseNumber + " " + street
	}
	return &Address{
		Line:     street,
		Locality: firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.Municipality),
		Country:  a.Country,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
