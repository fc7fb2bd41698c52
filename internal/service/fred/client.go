package fred

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RiskPulse/internal/domain/models"
	domsvc "RiskPulse/internal/domain/service"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/util"
)

const dateLayout = "2006-01-02"

// Client reads observation series from the FRED REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
}

// New builds a FRED client with timeout and credentials from config.
func New(cfg *config.Config) *Client {
	timeout := cfg.Fred.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.Fred.BaseURL,
		apiKey:  cfg.Fred.APIKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

var _ domsvc.SeriesClient = (*Client)(nil)

// observation values come back as strings; "." marks a missing point.
type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

// FetchSeries returns up to q.Limit points, newest-first. Missing points are
// dropped, so fewer points than requested may come back.
func (c *Client) FetchSeries(ctx context.Context, q domsvc.SeriesQuery) ([]models.SeriesPoint, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fred api key not configured")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 12
	}

	params := map[string][]string{
		"series_id":  {q.SeriesID},
		"api_key":    {c.apiKey},
		"file_type":  {"json"},
		"sort_order": {"desc"},
		// Missing points inflate the request so the window stays full after
		// they are dropped.
		"limit": {strconv.Itoa(limit + 4)},
	}
	if q.Transform == "yoy" {
		params["units"] = []string{"pc1"}
	}

	var resp observationsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/series/observations",
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", q.SeriesID, err)
	}

	points := make([]models.SeriesPoint, 0, limit)
	for _, o := range resp.Observations {
		v, ok := util.ParseFloat(o.Value)
		if !ok {
			continue // "." or malformed
		}
		d, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			continue
		}
		points = append(points, models.SeriesPoint{Date: d, Value: v})
		if len(points) == limit {
			break
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("fred %s: no usable observations", q.SeriesID)
	}
	return points, nil
}

// FetchLatest returns the most recent usable point of a series.
func (c *Client) FetchLatest(ctx context.Context, q domsvc.SeriesQuery) (models.SeriesPoint, error) {
	q.Limit = 1
	points, err := c.FetchSeries(ctx, q)
	if err != nil {
		return models.SeriesPoint{}, err
	}
	return points[0], nil
}
