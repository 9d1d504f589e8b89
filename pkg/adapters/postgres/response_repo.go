package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResponseRepo implements ports.ResponseStore.
// The response count lives in survey_stats and is changed in the same transaction as the row.
type ResponseRepo struct {
	pool *pgxpool.Pool
}

// NewResponseRepo creates a new ResponseRepo.
func NewResponseRepo(pool *pgxpool.Pool) *ResponseRepo {
	return &ResponseRepo{pool: pool}
}

// Save inserts a response and increments the survey's response count.
func (r *ResponseRepo) Save(ctx context.Context, resp *domain.Response) error {
	answersJSON, err := json.Marshal(resp.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	path := resp.Path
	if path == nil {
		path = []string{}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// xmax is zero only for a freshly inserted row.
		var inserted bool
		err := tx.QueryRow(ctx, `
			INSERT INTO responses (id, survey_id, answers, total_score, path,
			                       respondent_name, respondent_email, completed_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (survey_id, id) DO UPDATE SET
				answers = EXCLUDED.answers,
				total_score = EXCLUDED.total_score,
				path = EXCLUDED.path,
				respondent_name = EXCLUDED.respondent_name,
				respondent_email = EXCLUDED.respondent_email,
				completed_at = EXCLUDED.completed_at,
				created_at = EXCLUDED.created_at
			RETURNING (xmax = 0)
		`,
			resp.ID,
			resp.SurveyID,
			answersJSON,
			resp.TotalScore,
			path,
			nullString(resp.RespondentName),
			nullString(resp.RespondentEmail),
			resp.CompletedAt,
			resp.CreatedAt,
		).Scan(&inserted)
		if err != nil {
			return fmt.Errorf("upsert response: %w", err)
		}
		if !inserted {
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO survey_stats (survey_id, response_count) VALUES ($1, 1)
			ON CONFLICT (survey_id) DO UPDATE SET response_count = survey_stats.response_count + 1
		`, resp.SurveyID)
		if err != nil {
			return fmt.Errorf("increment count: %w", err)
		}
		return nil
	})
}

// Get returns one response.
func (r *ResponseRepo) Get(ctx context.Context, surveyID, responseID string) (*domain.Response, error) {
	query := `
		SELECT id, survey_id, answers, total_score, path,
		       respondent_name, respondent_email, completed_at, created_at
		FROM responses
		WHERE survey_id = $1 AND id = $2
	`
	resp, err := scanResponse(r.pool.QueryRow(ctx, query, surveyID, responseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrResponseNotFound, responseID)
	}
	return resp, err
}

// List returns responses of a survey, newest first.
func (r *ResponseRepo) List(ctx context.Context, surveyID string, limit, offset int) ([]*domain.Response, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, survey_id, answers, total_score, path,
		       respondent_name, respondent_email, completed_at, created_at
		FROM responses
		WHERE survey_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, surveyID, limitArg, offset)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Response, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return out, nil
}

// Delete removes a response and decrements the survey's response count.
func (r *ResponseRepo) Delete(ctx context.Context, surveyID, responseID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM responses WHERE survey_id = $1 AND id = $2`, surveyID, responseID)
		if err != nil {
			return fmt.Errorf("delete response: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrResponseNotFound, responseID)
		}

		_, err = tx.Exec(ctx, `
			UPDATE survey_stats SET response_count = GREATEST(response_count - 1, 0)
			WHERE survey_id = $1
		`, surveyID)
		if err != nil {
			return fmt.Errorf("decrement count: %w", err)
		}
		return nil
	})
}

// Count returns the stored response count, zero for unknown surveys.
func (r *ResponseRepo) Count(ctx context.Context, surveyID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT response_count FROM survey_stats WHERE survey_id = $1`, surveyID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func scanResponse(row pgx.Row) (*domain.Response, error) {
	var (
		resp        domain.Response
		answersJSON []byte
		name, email *string
	)
	err := row.Scan(
		&resp.ID,
		&resp.SurveyID,
		&answersJSON,
		&resp.TotalScore,
		&resp.Path,
		&name,
		&email,
		&resp.CompletedAt,
		&resp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan response: %w", err)
	}

	if err := json.Unmarshal(answersJSON, &resp.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	if name != nil {
		resp.RespondentName = *name
	}
	if email != nil {
		resp.RespondentEmail = *email
	}
	return &resp, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
