package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizly/internal/quiz"
)

const quizzesTable = "quizzes"

// quizRepo implements QuizRepo. Questions and answers are stored as JSON.
type quizRepo struct {
	db *sql.DB
}

func (r *quizRepo) SaveQuiz(ctx context.Context, q *quiz.Quiz) error {
	if q == nil || q.ID == "" {
		return fmt.Errorf("save quiz: missing quiz id")
	}

	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	now := time.Now().UnixMilli()
	query, args := builder().Insert(quizzesTable).
		Columns("id", "topic", "questions", "created_at", "updated_at").
		Values(q.ID, q.Topic, string(questions), now, now).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("topic")
				u.SetExcluded("questions")
				u.SetExcluded("updated_at")
			}),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save quiz %q: %w", q.ID, err)
	}
	return nil
}

var quizColumns = []string{"id", "topic", "questions", "answers", "created_at", "updated_at"}

func (r *quizRepo) GetQuiz(ctx context.Context, id string) (*QuizRecord, error) {
	query, args := builder().
		Select(quizColumns...).
		From(entsql.Table(quizzesTable)).
		Where(entsql.EQ("id", id)).
		Query()

	rec, err := scanQuiz(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quiz %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz %q: %w", id, err)
	}
	return rec, nil
}

func (r *quizRepo) ListQuizzes(ctx context.Context, topic string) ([]QuizRecord, error) {
	sel := builder().
		Select(quizColumns...).
		From(entsql.Table(quizzesTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("id"))
	if topic != "" {
		sel.Where(entsql.EQ("topic", topic))
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []QuizRecord
	for rows.Next() {
		rec, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("list quizzes: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *quizRepo) DeleteQuiz(ctx context.Context, id string) error {
	query, args := builder().Delete(quizzesTable).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete quiz %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("quiz %q: %w", id, ErrNotFound)
	}
	return nil
}

func scanQuiz(row rowScanner) (*QuizRecord, error) {
	var (
		rec       QuizRecord
		questions string
		answers   sql.NullString
		created   int64
		updated   int64
	)
	if err := row.Scan(&rec.Quiz.ID, &rec.Quiz.Topic, &questions, &answers, &created, &updated); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(questions), &rec.Quiz.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if answers.Valid {
		if err := json.Unmarshal([]byte(answers.String), &rec.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	return &rec, nil
}

func (r *quizRepo) UpdateAnswers(ctx context.Context, id string, answers []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().
		Select("questions").
		From(entsql.Table(quizzesTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var raw string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("quiz %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load quiz %q: %w", id, err)
	}

	var questions []quiz.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return fmt.Errorf("decode questions: %w", err)
	}
	if len(answers) != len(questions) {
		return fmt.Errorf("%w: got %d, want %d", ErrAnswerCount, len(answers), len(questions))
	}

	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	query, args = builder().Update(quizzesTable).
		Set("answers", string(encoded)).
		Set("updated_at", time.Now().UnixMilli()).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update answers %q: %w", id, err)
	}

	return tx.Commit()
}
