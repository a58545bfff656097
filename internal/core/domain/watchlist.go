package domain

import "time"

// MediaType identifies which external catalog an entry points into.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// Valid reports whether m is one of the supported media types.
func (m MediaType) Valid() bool {
	return m == MediaMovie || m == MediaTV
}

// WatchlistEntry references an item in the external movie/TV catalog.
// Title and PosterPath are a display cache only.
type WatchlistEntry struct {
	MediaType  MediaType `json:"mediaType"`
	MediaID    string    `json:"mediaId"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// Key returns the identity of the entry within one user's watchlist.
func (w WatchlistEntry) Key() string {
	return string(w.MediaType) + ":" + w.MediaID
}
