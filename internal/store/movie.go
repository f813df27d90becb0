package store

import (
	"database/sql"
	"fmt"

	"github.com/tobinmarsh/reelnight/internal/model"
)

type MovieStore struct {
	db *sql.DB
}

func NewMovieStore(db *sql.DB) *MovieStore {
	return &MovieStore{db: db}
}

func scanMovie(scanner interface{ Scan(...any) error }) (*model.Movie, error) {
	var m model.Movie
	err := scanner.Scan(
		&m.ID, &m.HouseholdID, &m.Title, &m.ContentType, &m.Status,
		&m.Year, &m.Genres, &m.PosterURL, &m.Rating, &m.Plot,
		&m.AddedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const movieCols = `id, household_id, title, content_type, status, year, genres, poster_url, rating, plot, added_by, created_at, updated_at`

func (s *MovieStore) Create(m *model.Movie) (*model.Movie, error) {
	result, err := s.db.Exec(
		`INSERT INTO movies (household_id, title, content_type, status, year, genres, poster_url, rating, plot, added_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.HouseholdID, m.Title, m.ContentType, m.Status,
		m.Year, m.Genres, m.PosterURL, m.Rating, m.Plot, m.AddedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MovieStore) GetByID(id int64) (*model.Movie, error) {
	row := s.db.QueryRow(`SELECT `+movieCols+` FROM movies WHERE id = ?`, id)
	m, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return m, nil
}

// List returns the household's movies, optionally filtered by status.
func (s *MovieStore) List(householdID int64, status string) ([]model.Movie, error) {
	query := `SELECT ` + movieCols + ` FROM movies WHERE household_id = ?`
	args := []any{householdID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY title ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var movies []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

func (s *MovieStore) UpdateStatus(id int64, status string) (*model.Movie, error) {
	_, err := s.db.Exec(
		`UPDATE movies SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update movie status: %w", err)
	}
	return s.GetByID(id)
}

// UpdateMetadata overwrites the enrichment fields on an existing movie.
func (s *MovieStore) UpdateMetadata(id int64, year, genres, posterURL, rating, plot string) (*model.Movie, error) {
	_, err := s.db.Exec(
		`UPDATE movies SET year = ?, genres = ?, poster_url = ?, rating = ?, plot = ?, updated_at = datetime('now') WHERE id = ?`,
		year, genres, posterURL, rating, plot, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update movie metadata: %w", err)
	}
	return s.GetByID(id)
}

func (s *MovieStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return nil
}
