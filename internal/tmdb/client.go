// Package tmdb wraps the movie-metadata API for discovery, search and
// per-film detail lookups.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrNetwork covers failed requests and non-2xx responses.
	ErrNetwork = errors.New("metadata request failed")
	// ErrDecode covers responses that are not the expected JSON shape.
	ErrDecode = errors.New("metadata response decode failed")
)

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ListItem is one row of a paged listing (discover, search, upcoming,
// similar). Detail-only fields like runtime and credits are not present.
type ListItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
}

type Page struct {
	Results      []ListItem
	Page         int
	TotalPages   int
	TotalResults int
}

type listResponse struct {
	Page         int        `json:"page"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Results      []ListItem `json:"results"`
}

type genreResponse struct {
	Genres []Genre `json:"genres"`
}

type detailResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	Runtime      int     `json:"runtime"`
	Genres       []Genre `json:"genres"`
	Credits      struct {
		Crew []struct {
			Job  string `json:"job"`
			Name string `json:"name"`
		} `json:"crew"`
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
	} `json:"credits"`
	Videos struct {
		Results []struct {
			Site string `json:"site"`
			Type string `json:"type"`
			Key  string `json:"key"`
		} `json:"results"`
	} `json:"videos"`
}

// Detail is the enriched shape of a single film. Director is "Unknown"
// and Cast holds at most three names, matching what the app displays.
type Detail struct {
	ID           int64
	Title        string
	ReleaseDate  string
	PosterPath   string
	BackdropPath string
	Overview     string
	VoteAverage  float64
	Runtime      int
	Genres       []string
	Director     string
	Cast         []string
	TrailerKey   string
}

func (c *Client) FetchGenres(ctx context.Context) ([]Genre, error) {
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("language", "en-US")
	endpoint := c.baseURL + "/genre/movie/list?" + values.Encode()

	var payload genreResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

// DiscoverPage lists popular films. A positive yearFloor becomes a
// primary_release_date lower bound so most pre-floor films never leave
// the upstream service.
func (c *Client) DiscoverPage(ctx context.Context, page, yearFloor int) (Page, error) {
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("language", "en-US")
	values.Set("sort_by", "popularity.desc")
	values.Set("page", strconv.Itoa(page))
	if yearFloor > 0 {
		values.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", yearFloor))
	}
	return c.fetchPage(ctx, c.baseURL+"/discover/movie?"+values.Encode())
}

// SearchPage searches by title. An empty trimmed query short-circuits to
// an empty page without a request.
func (c *Client) SearchPage(ctx context.Context, query string, page int) (Page, error) {
	if strings.TrimSpace(query) == "" {
		return Page{}, nil
	}
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("language", "en-US")
	values.Set("query", query)
	values.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, c.baseURL+"/search/movie?"+values.Encode())
}

func (c *Client) UpcomingPage(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("language", "en-US")
	values.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, c.baseURL+"/movie/upcoming?"+values.Encode())
}

func (c *Client) SimilarPage(ctx context.Context, id int64, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("language", "en-US")
	values.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, fmt.Sprintf("%s/movie/%d/similar?%s", c.baseURL, id, values.Encode()))
}

// FetchDetails fetches one film with embedded credits and videos.
func (c *Client) FetchDetails(ctx context.Context, id int64) (*Detail, error) {
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("append_to_response", "credits,videos")
	endpoint := fmt.Sprintf("%s/movie/%d?%s", c.baseURL, id, values.Encode())

	var payload detailResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	detail := &Detail{
		ID:           payload.ID,
		Title:        payload.Title,
		ReleaseDate:  payload.ReleaseDate,
		PosterPath:   payload.PosterPath,
		BackdropPath: payload.BackdropPath,
		Overview:     payload.Overview,
		VoteAverage:  payload.VoteAverage,
		Runtime:      payload.Runtime,
		Director:     "Unknown",
	}
	for _, g := range payload.Genres {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		detail.Genres = append(detail.Genres, g.Name)
	}
	for _, member := range payload.Credits.Crew {
		if member.Job == "Director" {
			detail.Director = member.Name
			break
		}
	}
	for _, member := range payload.Credits.Cast {
		if len(detail.Cast) == 3 {
			break
		}
		detail.Cast = append(detail.Cast, member.Name)
	}
	for _, video := range payload.Videos.Results {
		if video.Site == "YouTube" && video.Type == "Trailer" {
			detail.TrailerKey = video.Key
			break
		}
	}
	return detail, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string) (Page, error) {
	var payload listResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return Page{}, err
	}
	return Page{
		Results:      payload.Results,
		Page:         payload.Page,
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if resp.StatusCode >= 400 {
		statusErr := fmt.Errorf("%w: %s", ErrNetwork, resp.Status)
		if cerr := resp.Body.Close(); cerr != nil {
			return errors.Join(statusErr, cerr)
		}
		return statusErr
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		decodeErr := fmt.Errorf("%w: %w", ErrDecode, err)
		if cerr := resp.Body.Close(); cerr != nil {
			return errors.Join(decodeErr, cerr)
		}
		return decodeErr
	}
	return resp.Body.Close()
}

// ParseYear extracts the release year from a YYYY-MM-DD date. Zero means
// the year is unknown.
func ParseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
