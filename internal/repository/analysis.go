package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

// ErrAnalysisNotFound is returned when no analysis row matches.
var ErrAnalysisNotFound = errors.New("analysis not found")

type AnalysisRepository struct {
	pool PgxPool
}

var _ AnalysisRepositoryInterface = (*AnalysisRepository)(nil)

func NewAnalysisRepository(pool PgxPool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	query := `
		INSERT INTO analyses (id, user_id, gender, is_hijab, face_shape, confidence, scores, recommendations, image_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		a.ID,
		a.UserID,
		string(a.Gender),
		a.IsHijab,
		string(a.FaceShape),
		a.Confidence,
		a.Scores,
		a.Recommendations,
		a.ImageHash,
	).Scan(&a.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create analysis %s: duplicate id: %w", a.ID, err)
		}
		return fmt.Errorf("create analysis: %w", err)
	}

	return nil
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error) {
	query := `
		SELECT id, user_id, gender, is_hijab, face_shape, confidence, scores, recommendations, image_hash, created_at
		FROM analyses
		WHERE id = $1
	`

	var (
		a      domain.Analysis
		gender string
		shape  string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.UserID,
		&gender,
		&a.IsHijab,
		&shape,
		&a.Confidence,
		&a.Scores,
		&a.Recommendations,
		&a.ImageHash,
		&a.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis by id: %w", err)
	}

	a.Gender = domain.Gender(gender)
	a.FaceShape = domain.FaceShape(shape)
	return &a, nil
}
