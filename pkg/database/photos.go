package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blogfolio/pkg/models"

	"github.com/google/uuid"
)

type PhotoRepository struct {
	db *sql.DB
}

func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

const photoColumns = `id, image_url, alt_text, description, uploaded_at, display_order, is_visible`

func scanPhoto(row interface{ Scan(...any) error }) (models.Photo, error) {
	var p models.Photo
	var uploadedAt string
	var visible int
	if err := row.Scan(&p.ID, &p.ImageURL, &p.AltText, &p.Description, &uploadedAt, &p.DisplayOrder, &visible); err != nil {
		return p, err
	}
	p.UploadedAt = parseTime(uploadedAt)
	p.IsVisible = visible == 1
	return p, nil
}

// List returns photos by display order. Hidden photos are skipped unless
// includeHidden is set.
func (r *PhotoRepository) List(ctx context.Context, includeHidden bool) ([]models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos`
	if !includeHidden {
		query += ` WHERE is_visible = 1`
	}
	query += ` ORDER BY display_order, uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var out []models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PhotoRepository) Get(ctx context.Context, id string) (*models.Photo, error) {
	p, err := scanPhoto(r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &p, nil
}

// Insert stores p, assigning an id and upload time when they are empty.
func (r *PhotoRepository) Insert(ctx context.Context, p models.Photo) (*models.Photo, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ImageURL, p.AltText, p.Description, formatTime(p.UploadedAt), p.DisplayOrder, boolInt(p.IsVisible),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert photo: %w", err)
	}
	return &p, nil
}

// Update overwrites the editable fields of an existing photo.
func (r *PhotoRepository) Update(ctx context.Context, p models.Photo) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE photos SET alt_text = ?, description = ?, display_order = ?, is_visible = ? WHERE id = ?`,
		p.AltText, p.Description, p.DisplayOrder, boolInt(p.IsVisible), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	return requireAffected(res)
}

func (r *PhotoRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE photos SET is_visible = ? WHERE id = ?`, boolInt(visible), id)
	if err != nil {
		return fmt.Errorf("failed to update photo visibility: %w", err)
	}
	return requireAffected(res)
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
