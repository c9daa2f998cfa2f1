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

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, name, grade, class_code, teacher_id, created_at, updated_at`

const classSummaryColumns = `c.id, c.name, c.grade, c.class_code, c.teacher_id, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id) AS student_count,
        (SELECT COUNT(*) FROM lessons l WHERE l.class_id = c.id) AS lesson_count,
        (SELECT COUNT(*) FROM homework h WHERE h.class_id = c.id) AS homework_count,
        (SELECT COUNT(*) FROM quizzes q WHERE q.class_id = c.id) AS quiz_count,
        (SELECT COUNT(*) FROM announcements a WHERE a.class_id = c.id) AS announcement_count`

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE id = $1`, classColumns)
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindByCode returns the class owning a class code.
func (r *ClassRepository) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	var class models.Class
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE class_code = $1`, classColumns)
	if err := r.db.GetContext(ctx, &class, query, code); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class with its owning teacher and counts.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.name AS teacher_name, u.email AS teacher_email
        FROM classes c
        JOIN users u ON u.id = c.teacher_id
        WHERE c.id = $1`, classSummaryColumns)
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByTeacher returns all classes owned by a teacher, newest first.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes c WHERE c.teacher_id = $1 ORDER BY c.created_at DESC`, classSummaryColumns)
	var classes []models.ClassSummary
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ExistsByCode checks whether a class code is already assigned.
func (r *ClassRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM classes WHERE class_code = $1 LIMIT 1`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class code: %w", err)
	}
	return true, nil
}

// Create persists a class. A unique violation on the code column is
// mapped to ErrDuplicateCode so the caller can regenerate and retry.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, grade, class_code, teacher_id, created_at, updated_at)
        VALUES (:id, :name, :grade, :class_code, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		if mapped := mapUniqueViolation(err, map[string]error{
			"classes_class_code_key": ErrDuplicateCode,
		}); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Roster returns the enrolled students of a class, oldest enrollment first.
func (r *ClassRepository) Roster(ctx context.Context, classID string) ([]models.RosterEntry, error) {
	const query = `SELECT u.id AS student_id, u.name, u.email, u.parent_code, e.created_at AS joined_at
        FROM enrollments e
        JOIN users u ON u.id = e.student_id
        WHERE e.class_id = $1
        ORDER BY e.created_at ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, classID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return roster, nil
}

// DeleteCascade removes a class and every class-scoped child record in
// one transaction so a mid-cascade failure leaves no orphans.
func (r *ClassRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cascade delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		`DELETE FROM quiz_results WHERE quiz_id IN (SELECT id FROM quizzes WHERE class_id = $1)`,
		`DELETE FROM quiz_questions WHERE quiz_id IN (SELECT id FROM quizzes WHERE class_id = $1)`,
		`DELETE FROM quizzes WHERE class_id = $1`,
		`DELETE FROM homework_submissions WHERE homework_id IN (SELECT id FROM homework WHERE class_id = $1)`,
		`DELETE FROM homework WHERE class_id = $1`,
		`DELETE FROM lessons WHERE class_id = $1`,
		`DELETE FROM announcements WHERE class_id = $1`,
		`DELETE FROM enrollments WHERE class_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete class children: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cascade delete: %w", err)
	}
	return nil
}
