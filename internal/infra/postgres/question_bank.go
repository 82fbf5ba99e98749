package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"zuynch-quiz-service/internal/domain"
)

const questionColumns = `id, question_text, option_a, option_b, option_c, option_d, correct_option, time_limit_sec`

// QuestionBank is the Postgres implementation of app.QuestionBank.
type QuestionBank struct {
	pool     *pgxpool.Pool
	drawSize int // fallback random draw for rooms without a dedicated set
}

func NewQuestionBank(pool *pgxpool.Pool, drawSize int) *QuestionBank {
	if drawSize <= 0 {
		drawSize = 10
	}
	return &QuestionBank{pool: pool, drawSize: drawSize}
}

func (b *QuestionBank) FetchRandom(ctx context.Context, n int) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE room_pin IS NULL ORDER BY random() LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("fetch random questions: %w", err)
	}
	return scanQuestions(rows)
}

// FetchForRoom returns the room's dedicated set, ordered as imported, or a
// random draw from the shared pool when the room has none.
func (b *QuestionBank) FetchForRoom(ctx context.Context, pin string) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE room_pin=$1 ORDER BY id`, pin)
	if err != nil {
		return nil, fmt.Errorf("fetch room questions: %w", err)
	}
	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return b.FetchRandom(ctx, b.drawSize)
	}
	return questions, nil
}

func (b *QuestionBank) Insert(ctx context.Context, q domain.Question) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO questions (question_text, option_a, option_b, option_c, option_d, correct_option, time_limit_sec)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
		string(domain.NormalizeOption(string(q.Correct))), timeLimitOrDefault(q))
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// BulkReplaceForRoom drops the room's stored set and writes the new rows in
// one batch round trip. The delete and inserts are deliberately not wrapped
// in a transaction; room imports are independent single-writer operations.
func (b *QuestionBank) BulkReplaceForRoom(ctx context.Context, pin string, questions []domain.Question) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM questions WHERE room_pin=$1`, pin); err != nil {
		return fmt.Errorf("clear room questions: %w", err)
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(
			`INSERT INTO questions (room_pin, question_text, option_a, option_b, option_c, option_d, correct_option, time_limit_sec)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			pin, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
			string(domain.NormalizeOption(string(q.Correct))), timeLimitOrDefault(q))
	}
	results := b.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range questions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert room question: %w", err)
		}
	}
	return nil
}

func (b *QuestionBank) RecordRanking(ctx context.Context, entries []domain.RankingEntry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO ranking_history (username, score, recorded_at) VALUES ($1, $2, $3)`,
			e.Username, e.Score, e.RecordedAt)
	}
	results := b.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("record ranking: %w", err)
		}
	}
	return nil
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	defer rows.Close()
	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var correct string
		if err := rows.Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &correct, &q.TimeLimitSec); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Correct = domain.NormalizeOption(correct)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}

func timeLimitOrDefault(q domain.Question) int {
	if q.TimeLimitSec <= 0 {
		return domain.DefaultTimeLimitSec
	}
	return q.TimeLimitSec
}
