package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/tobinmarsh/reelnight/internal/metadata"
	"github.com/tobinmarsh/reelnight/internal/model"
	"github.com/tobinmarsh/reelnight/internal/store"
)

var (
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both a missing movie and one the requester may not
	// see; the cases are indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrNotMember is returned when the requester does not belong to the
	// household.
	ErrNotMember = errors.New("not a household member")

	// ErrNothingToPick is returned when the household has no unwatched titles.
	ErrNothingToPick = errors.New("nothing unwatched to pick")
)

// Enricher looks up descriptive metadata for a title. A nil result means
// the title is unknown; neither case blocks the caller.
type Enricher interface {
	Lookup(ctx context.Context, title, contentType string) (*metadata.Result, error)
}

// Service owns the household watch-list: adding titles, status transitions,
// and the movie-night pick.
type Service struct {
	movies     *store.MovieStore
	households *store.HouseholdStore
	enricher   Enricher
	logger     *slog.Logger
}

func NewService(ms *store.MovieStore, hs *store.HouseholdStore, enricher Enricher, logger *slog.Logger) *Service {
	return &Service{
		movies:     ms,
		households: hs,
		enricher:   enricher,
		logger:     logger,
	}
}

func (s *Service) requireMember(householdID, accountID int64) error {
	m, err := s.households.GetMember(householdID, accountID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotMember
	}
	return nil
}

var validContentTypes = map[string]bool{
	model.ContentMovie: true,
	model.ContentTV:    true,
}

var validStatuses = map[string]bool{
	model.StatusUnwatched: true,
	model.StatusWatching:  true,
	model.StatusWatched:   true,
}

// Add inserts a title into the household's watch-list and enriches it
// best-effort. Enrichment failures are logged and otherwise ignored: the
// movie keeps whatever the user supplied.
func (s *Service) Add(ctx context.Context, householdID int64, title, contentType string, addedBy int64) (*model.Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if contentType == "" {
		contentType = model.ContentMovie
	}
	if !validContentTypes[contentType] {
		return nil, fmt.Errorf("%w: content type must be movie or tv", ErrValidation)
	}
	if err := s.requireMember(householdID, addedBy); err != nil {
		return nil, err
	}

	m := &model.Movie{
		HouseholdID: householdID,
		Title:       title,
		ContentType: contentType,
		Status:      model.StatusUnwatched,
		AddedBy:     addedBy,
	}

	if s.enricher != nil {
		meta, err := s.enricher.Lookup(ctx, title, contentType)
		if err != nil {
			s.logger.Warn("metadata lookup failed", "title", title, "error", err)
		} else if meta != nil {
			m.Year = meta.Year
			m.Genres = meta.Genres
			m.PosterURL = meta.PosterURL
			m.Rating = meta.Rating
			m.Plot = meta.Plot
		}
	}

	return s.movies.Create(m)
}

// List returns the household's movies, optionally filtered by status.
func (s *Service) List(householdID int64, status string, requesterID int64) ([]model.Movie, error) {
	if status != "" && !validStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if err := s.requireMember(householdID, requesterID); err != nil {
		return nil, err
	}
	return s.movies.List(householdID, status)
}

// SetStatus moves a movie between unwatched, watching, and watched.
func (s *Service) SetStatus(movieID int64, status string, requesterID int64) (*model.Movie, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	m, err := s.movies.GetByID(movieID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	if err := s.requireMember(m.HouseholdID, requesterID); err != nil {
		if err == ErrNotMember {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.movies.UpdateStatus(movieID, status)
}

// Remove deletes a movie from the watch-list and returns the deleted movie
// so callers can tell its household about it.
func (s *Service) Remove(movieID, requesterID int64) (*model.Movie, error) {
	m, err := s.movies.GetByID(movieID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	if err := s.requireMember(m.HouseholdID, requesterID); err != nil {
		if err == ErrNotMember {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.movies.Delete(movieID); err != nil {
		return nil, err
	}
	return m, nil
}

// Pick chooses an unwatched title uniformly at random for movie night.
func (s *Service) Pick(householdID, requesterID int64) (*model.Movie, error) {
	if err := s.requireMember(householdID, requesterID); err != nil {
		return nil, err
	}
	candidates, err := s.movies.List(householdID, model.StatusUnwatched)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNothingToPick
	}
	pick := candidates[rand.IntN(len(candidates))]
	return &pick, nil
}
