package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink/edulink-api/internal/models"
)

func TestAuditCreateBindsRequestOrigin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	userID := "t1"
	resourceID := "c1"
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     "class.create",
		Resource:   "class",
		ResourceID: &resourceID,
		Detail:     []byte(`{"status":201}`),
		IPAddress:  "203.0.113.7",
		UserAgent:  "curl/8.5",
	}

	mock.ExpectExec(`INSERT INTO audit_logs \(id, user_id, action, resource, resource_id, detail, ip_address, user_agent, created_at\)`).
		WithArgs(sqlmock.AnyArg(), userID, "class.create", "class", resourceID, []byte(`{"status":201}`), "203.0.113.7", "curl/8.5", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
