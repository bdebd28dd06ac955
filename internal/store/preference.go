package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/johanneskirmayr/CarMem/internal/domain"
)

// ErrNotFound is returned when a preference key does not exist.
var ErrNotFound = errors.New("not found")

// PreferenceStore persists preferences with their embeddings in Postgres and
// answers bucket queries and nearest-neighbor search over them.
type PreferenceStore struct {
	db *pgxpool.Pool
}

func NewPreferenceStore(db *pgxpool.Pool) *PreferenceStore {
	return &PreferenceStore{db: db}
}

func (s *PreferenceStore) Insert(ctx context.Context, p *domain.Preference) error {
	var embedding *pgvector.Vector
	if len(p.Vector) > 0 {
		v := pgvector.NewVector(p.Vector)
		embedding = &v
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO preferences (pk, user_name, main_category, subcategory, detail_category, attribute, text, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.PK, p.UserName, p.MainCategory, p.Subcategory, p.DetailCategory, p.Attribute, p.Text, embedding,
	)
	return err
}

func (s *PreferenceStore) Delete(ctx context.Context, pk string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM preferences WHERE pk = $1`, pk)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QueryBucket returns every stored preference of one user under one
// main/sub/detail category path, oldest first.
func (s *PreferenceStore) QueryBucket(ctx context.Context, key domain.BucketKey) ([]domain.Preference, error) {
	rows, err := s.db.Query(ctx,
		`SELECT pk, user_name, main_category, subcategory, detail_category, attribute, text
		 FROM preferences
		 WHERE user_name = $1 AND main_category = $2 AND subcategory = $3 AND detail_category = $4
		 ORDER BY created_at`,
		key.UserName, key.MainCategory, key.Subcategory, key.DetailCategory,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []domain.Preference
	for rows.Next() {
		var p domain.Preference
		if err := rows.Scan(&p.PK, &p.UserName, &p.MainCategory, &p.Subcategory, &p.DetailCategory, &p.Attribute, &p.Text); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// Search runs cosine nearest-neighbor search over a user's preferences.
// Empty category fields in the key widen the filter.
func (s *PreferenceStore) Search(ctx context.Context, vector []float32, key domain.BucketKey, limit int) ([]domain.PreferenceWithScore, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(vector)

	rows, err := s.db.Query(ctx,
		`SELECT pk, user_name, main_category, subcategory, detail_category, attribute, text,
		        1 - (embedding <=> $1) AS score
		 FROM preferences
		 WHERE user_name = $2
		   AND embedding IS NOT NULL
		   AND ($3 = '' OR main_category = $3)
		   AND ($4 = '' OR subcategory = $4)
		   AND ($5 = '' OR detail_category = $5)
		 ORDER BY embedding <=> $1
		 LIMIT $6`,
		vec, key.UserName, key.MainCategory, key.Subcategory, key.DetailCategory, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.PreferenceWithScore
	for rows.Next() {
		var r domain.PreferenceWithScore
		if err := rows.Scan(&r.PK, &r.UserName, &r.MainCategory, &r.Subcategory, &r.DetailCategory, &r.Attribute, &r.Text, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
