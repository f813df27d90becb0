package model

import "time"

// Content types
const (
	ContentMovie = "movie"
	ContentTV    = "tv"
)

// Watch statuses
const (
	StatusUnwatched = "unwatched"
	StatusWatching  = "watching"
	StatusWatched   = "watched"
)

type Movie struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	Year        string    `json:"year,omitempty"`
	Genres      string    `json:"genres,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	Rating      string    `json:"rating,omitempty"`
	Plot        string    `json:"plot,omitempty"`
	AddedBy     int64     `json:"added_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
