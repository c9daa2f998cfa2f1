package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulink/edulink-api/internal/models"
)

// EnrollmentRepository handles persistence of class memberships.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Exists reports whether the student is enrolled in the class.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, classID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 LIMIT 1`, studentID, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists an enrollment. The (student_id, class_id) pair is
// unique; a constraint violation maps to ErrDuplicatePair.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO enrollments (id, student_id, class_id, created_at)
        VALUES (:id, :student_id, :class_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if mapped := mapUniqueViolation(err, map[string]error{
			"enrollments_student_id_class_id_key": ErrDuplicatePair,
		}); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ListClassesByStudent returns the classes a student belongs to with
// the owning teacher's name, for parent dashboards.
func (r *EnrollmentRepository) ListClassesByStudent(ctx context.Context, studentID string) ([]models.ChildClass, error) {
	const query = `SELECT c.id, c.name, c.grade, u.name AS teacher_name
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        JOIN users u ON u.id = c.teacher_id
        WHERE e.student_id = $1
        ORDER BY e.created_at ASC`
	var classes []models.ChildClass
	if err := r.db.SelectContext(ctx, &classes, query, studentID); err != nil {
		return nil, fmt.Errorf("list student classes: %w", err)
	}
	return classes, nil
}
