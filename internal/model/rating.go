package model

import (
	"math"
	"time"
)

const (
	MinStars = 1
	MaxStars = 5
)

// Rating is unique per (note, user); re-rating updates the row in place.
type Rating struct {
	ID           string    `db:"id" json:"id"`
	NoteID       string    `db:"note_id" json:"note_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Rating       int       `db:"rating" json:"rating"`
	Review       string    `db:"review" json:"review"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	HelpfulCount int       `db:"helpful_count" json:"helpful_count"` // Only populated by listings
}

type RatingHelpful struct {
	ID        string    `db:"id" json:"id"`
	RatingID  string    `db:"rating_id" json:"rating_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AverageRating is the arithmetic mean rounded to one decimal place, 0 when
// there are no ratings.
func AverageRating(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return RoundTenth(float64(sum) / float64(count))
}

func RoundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}
