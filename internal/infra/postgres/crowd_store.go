package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"zuynch-quiz-service/internal/domain"
)

const crowdColumns = `id, question_text, author, status, upvotes, created_at`

// CrowdStore is the Postgres implementation of app.CrowdQuestionStore.
type CrowdStore struct {
	pool *pgxpool.Pool
}

func NewCrowdStore(pool *pgxpool.Pool) *CrowdStore {
	return &CrowdStore{pool: pool}
}

func (s *CrowdStore) ListPending(ctx context.Context) ([]domain.CrowdQuestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+crowdColumns+` FROM crowd_questions WHERE status=$1 ORDER BY created_at DESC`,
		string(domain.CrowdPending))
	if err != nil {
		return nil, fmt.Errorf("list pending questions: %w", err)
	}
	return scanCrowdQuestions(rows)
}

func (s *CrowdStore) ListApproved(ctx context.Context) ([]domain.CrowdQuestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+crowdColumns+` FROM crowd_questions WHERE status=$1 ORDER BY upvotes DESC, created_at DESC`,
		string(domain.CrowdApproved))
	if err != nil {
		return nil, fmt.Errorf("list approved questions: %w", err)
	}
	return scanCrowdQuestions(rows)
}

func (s *CrowdStore) Insert(ctx context.Context, text, author string) (domain.CrowdQuestion, error) {
	var q domain.CrowdQuestion
	err := s.pool.QueryRow(ctx,
		`INSERT INTO crowd_questions (question_text, author, status) VALUES ($1, $2, $3)
		 RETURNING `+crowdColumns,
		text, author, string(domain.CrowdPending)).
		Scan(&q.ID, &q.Text, &q.Author, &q.Status, &q.Upvotes, &q.CreatedAt)
	if err != nil {
		return domain.CrowdQuestion{}, fmt.Errorf("insert crowd question: %w", err)
	}
	return q, nil
}

func (s *CrowdStore) Upvote(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE crowd_questions SET upvotes = upvotes + 1 WHERE id=$1`, id); err != nil {
		return fmt.Errorf("upvote crowd question: %w", err)
	}
	return nil
}

func (s *CrowdStore) SetStatus(ctx context.Context, id int64, status domain.CrowdStatus) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE crowd_questions SET status=$1 WHERE id=$2`, string(status), id); err != nil {
		return fmt.Errorf("set crowd question status: %w", err)
	}
	return nil
}

func scanCrowdQuestions(rows pgx.Rows) ([]domain.CrowdQuestion, error) {
	defer rows.Close()
	var questions []domain.CrowdQuestion
	for rows.Next() {
		var q domain.CrowdQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.Author, &q.Status, &q.Upvotes, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan crowd question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read crowd questions: %w", err)
	}
	return questions, nil
}
