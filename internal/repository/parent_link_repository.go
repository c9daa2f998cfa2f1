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

// ParentLinkRepository handles persistence of parent-student links.
type ParentLinkRepository struct {
	db *sqlx.DB
}

// NewParentLinkRepository constructs the repository.
func NewParentLinkRepository(db *sqlx.DB) *ParentLinkRepository {
	return &ParentLinkRepository{db: db}
}

// IsLinked reports whether an approved link exists for the pair.
func (r *ParentLinkRepository) IsLinked(ctx context.Context, parentID, studentID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM parent_links WHERE parent_id = $1 AND student_id = $2 AND approved = TRUE LIMIT 1`, parentID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check parent link: %w", err)
	}
	return true, nil
}

// Create persists a link. Links are approved at creation; redeeming the
// parent code is the whole authorization. The (parent_id, student_id)
// pair is unique and a constraint violation maps to ErrDuplicatePair.
func (r *ParentLinkRepository) Create(ctx context.Context, link *models.ParentLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	link.Approved = true

	const query = `INSERT INTO parent_links (id, parent_id, student_id, approved, created_at)
        VALUES (:id, :parent_id, :student_id, :approved, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		if mapped := mapUniqueViolation(err, map[string]error{
			"parent_links_parent_id_student_id_key": ErrDuplicatePair,
		}); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create parent link: %w", err)
	}
	return nil
}

// ListChildren returns the approved linked students for a parent,
// oldest link first. Class memberships are attached by the caller.
func (r *ParentLinkRepository) ListChildren(ctx context.Context, parentID string) ([]models.ChildSummary, error) {
	const query = `SELECT u.id, u.name, u.email, pl.created_at AS linked_at
        FROM parent_links pl
        JOIN users u ON u.id = pl.student_id
        WHERE pl.parent_id = $1 AND pl.approved = TRUE
        ORDER BY pl.created_at ASC`
	var children []models.ChildSummary
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}
