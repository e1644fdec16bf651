// Package client is the HTTP proxy to the review service. It owns the
// wire translation (is_mine) and the fire-and-refetch contract: after
// any mutation the caller re-runs List instead of merging locally.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"flickbox/internal/reviews"
)

var (
	ErrNetwork = errors.New("review request failed")
	ErrDecode  = errors.New("review response decode failed")

	// ErrReviewNotFound is returned by Like when the id is not in the
	// current listing.
	ErrReviewNotFound = errors.New("review not found")
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Partition is the full review listing split by ownership.
type Partition struct {
	Mine      []reviews.Review
	Community []reviews.Review
}

// List fetches every review and partitions it into mine vs community.
func (c *Client) List(ctx context.Context) (Partition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/reviews", http.NoBody)
	if err != nil {
		return Partition{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Partition{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Partition{}, fmt.Errorf("%w: %s", ErrNetwork, resp.Status)
	}

	var rows []reviews.WireReview
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return Partition{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var out Partition
	for _, row := range rows {
		review := reviews.FromWire(row)
		if review.IsMine {
			out.Mine = append(out.Mine, review)
		} else {
			out.Community = append(out.Community, review)
		}
	}
	return out, nil
}

// Create posts a full review payload owned by this client. The created
// row is not merged locally; call List again to see it.
func (c *Client) Create(ctx context.Context, r reviews.Review) error {
	r.IsMine = true
	r.Likes = 0
	return c.send(ctx, http.MethodPost, c.baseURL+"/api/reviews", reviews.ToWire(r))
}

// Update puts a full review payload including its id.
func (c *Client) Update(ctx context.Context, r reviews.Review) error {
	if r.ID == 0 {
		return errors.New("review id is required")
	}
	return c.send(ctx, http.MethodPut, c.baseURL+"/api/reviews", reviews.ToWire(r))
}

// Like reads the current like count and writes count+1. The two round
// trips are not guarded, so concurrent likes from separate carriers can
// lose an increment; that limitation is accepted.
func (c *Client) Like(ctx context.Context, id int64) error {
	listing, err := c.List(ctx)
	if err != nil {
		return err
	}
	var current *reviews.Review
	for i := range listing.Mine {
		if listing.Mine[i].ID == id {
			current = &listing.Mine[i]
			break
		}
	}
	if current == nil {
		for i := range listing.Community {
			if listing.Community[i].ID == id {
				current = &listing.Community[i]
				break
			}
		}
	}
	if current == nil {
		return ErrReviewNotFound
	}

	body := struct {
		ID    int64 `json:"id"`
		Likes int   `json:"likes"`
	}{ID: id, Likes: current.Likes + 1}
	return c.send(ctx, http.MethodPut, c.baseURL+"/api/reviews", body)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/api/reviews/%d", c.baseURL, id), http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return c.do(req)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			return fmt.Errorf("%w: %s", ErrNetwork, payload.Error)
		}
		return fmt.Errorf("%w: %s", ErrNetwork, resp.Status)
	}
	return nil
}
