package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

func TestAnalysisRepository_Create(t *testing.T) {
	now := time.Now()

	analysis := func() *domain.Analysis {
		return &domain.Analysis{
			ID:              uuid.New(),
			UserID:          "user-1",
			Gender:          domain.GenderFemale,
			IsHijab:         true,
			FaceShape:       domain.ShapeRound,
			Confidence:      0.91,
			Scores:          map[string]string{"Oval": "5.0%", "Round": "91.0%", "Square": "4.0%"},
			Recommendations: []string{"Pashmina Draped"},
			ImageHash:       "abc",
		}
	}

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface, a *domain.Analysis)
		wantErr   bool
	}{
		{
			name: "successful create",
			mockSetup: func(mock pgxmock.PgxPoolIface, a *domain.Analysis) {
				mock.ExpectQuery(`INSERT INTO analyses`).
					WithArgs(a.ID, "user-1", "Perempuan", true, "Round", 0.91, a.Scores, a.Recommendations, "abc").
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
			},
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface, a *domain.Analysis) {
				mock.ExpectQuery(`INSERT INTO analyses`).
					WithArgs(a.ID, "user-1", "Perempuan", true, "Round", 0.91, a.Scores, a.Recommendations, "abc").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			a := analysis()
			tt.mockSetup(mock, a)

			repo := NewAnalysisRepository(mock)
			err = repo.Create(context.Background(), a)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, now, a.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAnalysisRepository_CreateAssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a := &domain.Analysis{Gender: domain.GenderMale, FaceShape: domain.ShapeOval}
	mock.ExpectQuery(`INSERT INTO analyses`).
		WithArgs(pgxmock.AnyArg(), "", "Laki-laki", false, "Oval", 0.0, a.Scores, a.Recommendations, "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	require.NoError(t, NewAnalysisRepository(mock).Create(context.Background(), a))
	assert.NotEqual(t, uuid.Nil, a.ID)
}

func TestAnalysisRepository_GetByID(t *testing.T) {
	id := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      *domain.Analysis
		wantErr   error
	}{
		{
			name: "found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{
					"id", "user_id", "gender", "is_hijab", "face_shape", "confidence", "scores", "recommendations", "image_hash", "created_at",
				}).AddRow(id, "user-1", "Laki-laki", false, "Square", 0.8,
					map[string]string{"Square": "80.0%"}, []string{"Buzz Cut"}, "hash", now)
				mock.ExpectQuery(`SELECT id, user_id, gender, is_hijab, face_shape, confidence, scores, recommendations, image_hash, created_at FROM analyses WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(rows)
			},
			want: &domain.Analysis{
				ID:              id,
				UserID:          "user-1",
				Gender:          domain.GenderMale,
				FaceShape:       domain.ShapeSquare,
				Confidence:      0.8,
				Scores:          map[string]string{"Square": "80.0%"},
				Recommendations: []string{"Buzz Cut"},
				ImageHash:       "hash",
				CreatedAt:       now,
			},
		},
		{
			name: "not found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM analyses`).
					WithArgs(id).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrAnalysisNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			got, err := NewAnalysisRepository(mock).GetByID(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
