package reviews

import "github.com/uptrace/bun"

// Review is the internal review record. The ownership flag is IsMine
// here; on the wire it is snake_case (see WireReview).
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:r" json:"-"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Title    string `bun:"title,notnull" json:"title"`
	Reviewer string `bun:"reviewer,notnull" json:"reviewer"`
	Avatar   string `bun:"avatar" json:"avatar"`
	Quote    string `bun:"quote,notnull" json:"quote"`
	Rating   int    `bun:"rating,notnull" json:"rating"`
	Date     string `bun:"date,notnull" json:"date"`
	Poster   string `bun:"poster" json:"poster"`
	Mood     string `bun:"mood" json:"mood"`
	IsMine   bool   `bun:"is_mine,notnull" json:"isMine"`
	Likes    int    `bun:"likes,notnull" json:"likes"`
}

// WireReview is the JSON shape the review API speaks. It exists so the
// is_mine <-> IsMine translation happens in exactly one place instead of
// leaking into handlers or UI code.
type WireReview struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Reviewer string `json:"reviewer"`
	Avatar   string `json:"avatar"`
	Quote    string `json:"quote"`
	Rating   int    `json:"rating"`
	Date     string `json:"date"`
	Poster   string `json:"poster"`
	Mood     string `json:"mood"`
	IsMine   bool   `json:"is_mine"`
	Likes    int    `json:"likes"`
}

func ToWire(r Review) WireReview {
	return WireReview{
		ID:       r.ID,
		Title:    r.Title,
		Reviewer: r.Reviewer,
		Avatar:   r.Avatar,
		Quote:    r.Quote,
		Rating:   r.Rating,
		Date:     r.Date,
		Poster:   r.Poster,
		Mood:     r.Mood,
		IsMine:   r.IsMine,
		Likes:    r.Likes,
	}
}

func FromWire(w WireReview) Review {
	return Review{
		ID:       w.ID,
		Title:    w.Title,
		Reviewer: w.Reviewer,
		Avatar:   w.Avatar,
		Quote:    w.Quote,
		Rating:   w.Rating,
		Date:     w.Date,
		Poster:   w.Poster,
		Mood:     w.Mood,
		IsMine:   w.IsMine,
		Likes:    w.Likes,
	}
}

// Stats are the dashboard aggregates.
type Stats struct {
	TotalReviews     int `json:"total_reviews"`
	MyReviews        int `json:"my_reviews"`
	CommunityReviews int `json:"community_reviews"`
}
