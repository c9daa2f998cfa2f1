package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulink/edulink-api/internal/authz"
	"github.com/edulink/edulink-api/internal/models"
	"github.com/edulink/edulink-api/internal/repository"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
)

type parentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindStudentByParentCode(ctx context.Context, code string) (*models.User, error)
}

type parentLinkRepository interface {
	IsLinked(ctx context.Context, parentID, studentID string) (bool, error)
	Create(ctx context.Context, link *models.ParentLink) error
	ListChildren(ctx context.Context, parentID string) ([]models.ChildSummary, error)
}

type parentEnrollmentRepository interface {
	ListClassesByStudent(ctx context.Context, studentID string) ([]models.ChildClass, error)
}

type childrenCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AddChildRequest carries the parent code being redeemed.
type AddChildRequest struct {
	ParentCode string `json:"parent_code" validate:"required"`
}

// ParentService provides parent-student linking use cases.
type ParentService struct {
	users       parentUserRepository
	links       parentLinkRepository
	enrollments parentEnrollmentRepository
	cache       childrenCache
	cacheTTL    time.Duration
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewParentService constructs a ParentService instance. metrics may be nil.
func NewParentService(users parentUserRepository, links parentLinkRepository, enrollments parentEnrollmentRepository, cache childrenCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ParentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ParentService{
		users:       users,
		links:       links,
		enrollments: enrollments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

func childrenCacheKey(parentID string) string {
	return fmt.Sprintf("parent:children:%s", parentID)
}

// AddChild redeems a parent code and links the child to the calling
// parent. The caller's role is re-read from the database here rather
// than trusted from the token, since linking grants durable visibility
// into the child's enrollment.
func (s *ParentService) AddChild(ctx context.Context, caller authz.Caller, req AddChildRequest) (*models.ChildSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}

	caller, err := s.refreshCaller(ctx, caller)
	if err != nil {
		return nil, err
	}

	facts := authz.Facts{}
	student, err := s.users.FindStudentByParentCode(ctx, strings.ToUpper(strings.TrimSpace(req.ParentCode)))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve parent code")
		}
	} else {
		facts.StudentExists = true
		linked, err := s.links.IsLinked(ctx, caller.UserID, student.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check link")
		}
		facts.AlreadyLinked = linked
	}

	if decision := authz.Authorize(caller, authz.ActionLinkChild, facts); !decision.Allowed {
		switch decision.Reason {
		case authz.ReasonNotFound:
			return nil, appErrors.Clone(appErrors.ErrInvalidCode, "invalid parent code")
		case authz.ReasonConflict:
			return nil, appErrors.Clone(appErrors.ErrAlreadyLinked, "")
		case authz.ReasonWrongRole:
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents can link children")
		default:
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
	}

	link := &models.ParentLink{ParentID: caller.UserID, StudentID: student.ID}
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyLinked, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create link")
	}

	if err := s.cache.DeleteByPattern(ctx, childrenCacheKey(caller.UserID)); err != nil {
		s.logger.Warn("failed to invalidate children cache", zap.Error(err))
	}

	s.logger.Info("child linked",
		zap.String("parent_id", caller.UserID),
		zap.String("student_id", student.ID))

	summary := models.ChildSummary{
		ID:       student.ID,
		Name:     student.Name,
		Email:    student.Email,
		LinkedAt: link.CreatedAt,
	}
	classes, err := s.enrollments.ListClassesByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child classes")
	}
	summary.Classes = classes
	return &summary, nil
}

// Children returns the caller's linked children with their class
// memberships, served from cache when fresh.
func (s *ParentService) Children(ctx context.Context, caller authz.Caller) ([]models.ChildSummary, error) {
	caller, err := s.refreshCaller(ctx, caller)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(caller, authz.ActionReadChildren, authz.Facts{}); !decision.Allowed {
		if decision.Reason == authz.ReasonWrongRole {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents can list children")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}

	key := childrenCacheKey(caller.UserID)
	var cached []models.ChildSummary
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("children cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheOperation(false)

	children, err := s.links.ListChildren(ctx, caller.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	for i := range children {
		classes, err := s.enrollments.ListClassesByStudent(ctx, children[i].ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child classes")
		}
		children[i].Classes = classes
	}
	if children == nil {
		children = []models.ChildSummary{}
	}

	if err := s.cache.Set(ctx, key, children, s.cacheTTL); err != nil {
		s.logger.Warn("children cache write failed", zap.Error(err))
	}
	return children, nil
}

// refreshCaller swaps the token role for the persisted one.
func (s *ParentService) refreshCaller(ctx context.Context, caller authz.Caller) (authz.Caller, error) {
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return caller, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return caller, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	caller.Role = user.Role
	return caller, nil
}
