package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulink/edulink-api/internal/models"
)

// HomeworkRepository manages persistence for homework and submissions.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository constructs the repository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// FindByID returns a homework item by ID.
func (r *HomeworkRepository) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	const query = `SELECT id, class_id, title, description, deadline, created_at FROM homework WHERE id = $1`
	var homework models.Homework
	if err := r.db.GetContext(ctx, &homework, query, id); err != nil {
		return nil, err
	}
	return &homework, nil
}

// Create persists a homework item.
func (r *HomeworkRepository) Create(ctx context.Context, homework *models.Homework) error {
	if homework.ID == "" {
		homework.ID = uuid.NewString()
	}
	if homework.CreatedAt.IsZero() {
		homework.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO homework (id, class_id, title, description, deadline, created_at)
        VALUES (:id, :class_id, :title, :description, :deadline, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, homework); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

// ListByClass returns homework for a class, newest first.
func (r *HomeworkRepository) ListByClass(ctx context.Context, classID string) ([]models.Homework, error) {
	const query = `SELECT id, class_id, title, description, deadline, created_at
        FROM homework WHERE class_id = $1 ORDER BY created_at DESC`
	var homework []models.Homework
	if err := r.db.SelectContext(ctx, &homework, query, classID); err != nil {
		return nil, fmt.Errorf("list homework: %w", err)
	}
	return homework, nil
}

// CreateSubmission persists a student submission.
func (r *HomeworkRepository) CreateSubmission(ctx context.Context, submission *models.HomeworkSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}

	const query = `INSERT INTO homework_submissions (id, homework_id, student_id, content, file_url, submitted_at)
        VALUES (:id, :homework_id, :student_id, :content, :file_url, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		if mapped := mapUniqueViolation(err, map[string]error{
			"homework_submissions_homework_id_student_id_key": ErrDuplicatePair,
		}); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// ListSubmissions returns submissions for a homework item. When
// studentID is non-empty only that student's submissions are returned.
func (r *HomeworkRepository) ListSubmissions(ctx context.Context, homeworkID, studentID string) ([]models.HomeworkSubmission, error) {
	query := `SELECT id, homework_id, student_id, content, file_url, submitted_at
        FROM homework_submissions WHERE homework_id = $1`
	args := []interface{}{homeworkID}
	if studentID != "" {
		query += ` AND student_id = $2`
		args = append(args, studentID)
	}
	query += ` ORDER BY submitted_at DESC`

	var submissions []models.HomeworkSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}
