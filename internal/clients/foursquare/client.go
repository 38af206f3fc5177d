package foursquare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kanishkaditya/DinemateBackend/internal/common/config"
	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/httpx"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// Client talks to the Foursquare Places API. All transport and non-2xx
// failures surface as CapabilityUnavailable so callers can degrade.
type Client struct {
	baseURL    string
	apiKey     string
	apiVersion string
	http       *httpx.Client
	log        logger.Logger
}

func NewClient(cfg config.FoursquareConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		http:       httpx.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		log:        log.WithFields(map[string]interface{}{"component": "foursquare-client"}),
	}
}

// searchResponse mirrors the places search payload, reduced to the fields
// the scorer consumes.
type searchResponse struct {
	Results []placeResult `json:"results"`
}

type placeResult struct {
	FsqID       string   `json:"fsq_place_id"`
	Name        string   `json:"name"`
	Distance    *float64 `json:"distance,omitempty"`
	Price       *int     `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Popularity  *float64 `json:"popularity,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	DateCreated string   `json:"date_created,omitempty"`
	Categories  []struct {
		Name string `json:"name"`
	} `json:"categories,omitempty"`
	Features *struct {
		Attributes map[string]string `json:"attributes,omitempty"`
	} `json:"features,omitempty"`
	Photos  []json.RawMessage `json:"photos,omitempty"`
	Reviews []json.RawMessage `json:"tips,omitempty"`
}

// Search queries /places/search with the aggregated parameter bag.
func (c *Client) Search(ctx context.Context, params models.SearchParams) ([]models.Candidate, error) {
	query := url.Values{}
	if params.Query != "" {
		query.Set("query", params.Query)
	}
	if params.Latitude != nil && params.Longitude != nil {
		query.Set("ll", fmt.Sprintf("%f,%f", *params.Latitude, *params.Longitude))
	} else if params.Near != "" {
		query.Set("near", params.Near)
	}
	if params.RadiusMeters > 0 {
		query.Set("radius", strconv.Itoa(params.RadiusMeters))
	}
	if len(params.CategoryIDs) > 0 {
		query.Set("fsq_category_ids", strings.Join(params.CategoryIDs, ","))
	}
	if params.MinPrice > 0 {
		query.Set("min_price", strconv.Itoa(params.MinPrice))
	}
	if params.MaxPrice > 0 {
		query.Set("max_price", strconv.Itoa(params.MaxPrice))
	}
	if params.OpenNow {
		query.Set("open_now", "true")
	}
	if params.Sort != "" {
		query.Set("sort", strings.ToUpper(params.Sort))
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	query.Set("limit", strconv.Itoa(limit))

	var response searchResponse
	if err := c.get(ctx, "/places/search", query, &response); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(response.Results))
	for _, place := range response.Results {
		candidates = append(candidates, place.toCandidate())
	}
	return candidates, nil
}

// GetDetails fetches a single place by id.
func (c *Client) GetDetails(ctx context.Context, fsqID string) (*models.Candidate, error) {
	var place placeResult
	if err := c.get(ctx, "/places/"+url.PathEscape(fsqID), url.Values{}, &place); err != nil {
		return nil, err
	}
	candidate := place.toCandidate()
	return &candidate, nil
}

// HealthCheck probes the API with a minimal search.
func (c *Client) HealthCheck(ctx context.Context) error {
	query := url.Values{}
	query.Set("near", "New York")
	query.Set("limit", "1")

	var response searchResponse
	return c.get(ctx, "/places/search", query, &response)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewSearchCapabilityError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Places-Api-Version", c.apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.NewSearchTimeoutError(ctx.Err().Error())
		}
		return apperrors.NewSearchCapabilityError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewSearchCapabilityError(err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("places request failed", map[string]interface{}{
			"path":   path,
			"status": resp.StatusCode,
		})
		return apperrors.NewSearchCapabilityError(
			fmt.Errorf("places API returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewSearchCapabilityError(err)
	}
	return nil
}

func (p placeResult) toCandidate() models.Candidate {
	candidate := models.Candidate{
		ID:             p.FsqID,
		Name:           p.Name,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		DistanceMeters: p.Distance,
		PriceTier:      p.Price,
		Rating:         p.Rating,
		Popularity:     p.Popularity,
		PhotoCount:     len(p.Photos),
		ReviewCount:    len(p.Reviews),
	}

	for _, category := range p.Categories {
		candidate.Cuisines = append(candidate.Cuisines, normalizeCategory(category.Name))
	}
	if p.Features != nil {
		for attribute, value := range p.Features.Attributes {
			if value == "true" || value == "Average" || value == "Great" {
				candidate.Features = append(candidate.Features, attribute)
			}
		}
	}
	if p.DateCreated != "" {
		if created, err := time.Parse("2006-01-02", p.DateCreated); err == nil {
			candidate.CreatedAt = &created
		}
	}
	return candidate
}

// normalizeCategory lowercases a category name and strips the trailing
// "restaurant" qualifier ("Thai Restaurant" becomes "thai").
func normalizeCategory(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.TrimSuffix(lower, " restaurant")
	return lower
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
