package domain

import "time"

const (
	MinRating = 1
	MaxRating = 10
)

// Review is a user's rating and write-up for one title.
// A user can review a given (MediaType, MediaID) pair only once.
type Review struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"user"`
	Username    string    `json:"username,omitempty"`
	MediaID     string    `json:"mediaId"`
	MediaType   MediaType `json:"mediaType"`
	MediaTitle  string    `json:"mediaTitle"`
	MediaPoster *string   `json:"mediaPoster"`
	Rating      int       `json:"rating"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
