package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulink/edulink-api/internal/models"
)

// QuizRepository manages persistence for quizzes, questions and results.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs the repository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// FindByID returns a quiz by ID.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	const query = `SELECT id, class_id, title, description, time_limit, created_at FROM quizzes WHERE id = $1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Create persists a quiz together with its questions in one transaction.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz, questions []models.QuizQuestion) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create quiz: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const quizQuery = `INSERT INTO quizzes (id, class_id, title, description, time_limit, created_at)
        VALUES (:id, :class_id, :title, :description, :time_limit, :created_at)`
	if _, err := tx.NamedExecContext(ctx, quizQuery, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}

	const questionQuery = `INSERT INTO quiz_questions (id, quiz_id, prompt, options, correct_index, position)
        VALUES (:id, :quiz_id, :prompt, :options, :correct_index, :position)`
	for i := range questions {
		questions[i].QuizID = quiz.ID
		questions[i].Position = i
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, questionQuery, &questions[i]); err != nil {
			return fmt.Errorf("create quiz question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create quiz: %w", err)
	}
	return nil
}

// ListByClass returns the quizzes of a class, newest first.
func (r *QuizRepository) ListByClass(ctx context.Context, classID string) ([]models.Quiz, error) {
	const query = `SELECT id, class_id, title, description, time_limit, created_at
        FROM quizzes WHERE class_id = $1 ORDER BY created_at DESC`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, classID); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// ListQuestions returns the questions of a quiz in display order.
func (r *QuizRepository) ListQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	const query = `SELECT id, quiz_id, prompt, options, correct_index, position
        FROM quiz_questions WHERE quiz_id = $1 ORDER BY position ASC`
	var questions []models.QuizQuestion
	if err := r.db.SelectContext(ctx, &questions, query, quizID); err != nil {
		return nil, fmt.Errorf("list quiz questions: %w", err)
	}
	return questions, nil
}

// CreateResult persists a completed attempt's result.
func (r *QuizRepository) CreateResult(ctx context.Context, result *models.QuizResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now().UTC()
	}

	const query = `INSERT INTO quiz_results (id, quiz_id, student_id, score, total, completed_at)
        VALUES (:id, :quiz_id, :student_id, :score, :total, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create quiz result: %w", err)
	}
	return nil
}

// ListResultsByStudent returns a student's results on a quiz, newest first.
func (r *QuizRepository) ListResultsByStudent(ctx context.Context, quizID, studentID string) ([]models.QuizResult, error) {
	const query = `SELECT id, quiz_id, student_id, score, total, completed_at
        FROM quiz_results WHERE quiz_id = $1 AND student_id = $2 ORDER BY completed_at DESC`
	var results []models.QuizResult
	if err := r.db.SelectContext(ctx, &results, query, quizID, studentID); err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	return results, nil
}
