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
	"github.com/edulink/edulink-api/internal/codes"
	"github.com/edulink/edulink-api/internal/models"
	"github.com/edulink/edulink-api/internal/repository"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
	"github.com/edulink/edulink-api/pkg/export"
)

type classRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByCode(ctx context.Context, code string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Roster(ctx context.Context, classID string) ([]models.RosterEntry, error)
	DeleteCascade(ctx context.Context, id string) error
}

type classEnrollmentRepository interface {
	Exists(ctx context.Context, studentID, classID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type rosterExporter interface {
	Render(table export.Table) ([]byte, error)
}

// CreateClassRequest is the class creation payload.
type CreateClassRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Grade string `json:"grade" validate:"required"`
}

// JoinClassRequest carries the class code a student redeems.
type JoinClassRequest struct {
	ClassCode string `json:"class_code" validate:"required"`
}

// RosterExport is a rendered roster file ready to stream to the client.
type RosterExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ClassService provides class lifecycle and membership use cases.
type ClassService struct {
	classes     classRepository
	enrollments classEnrollmentRepository
	codes       *codes.Generator
	metrics     *MetricsService
	csv         rosterExporter
	pdf         rosterExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs a ClassService instance. metrics may be nil.
func NewClassService(classes classRepository, enrollments classEnrollmentRepository, generator *codes.Generator, metrics *MetricsService, csv, pdf rosterExporter, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if generator == nil {
		generator = codes.NewGenerator(0)
	}
	return &ClassService{
		classes:     classes,
		enrollments: enrollments,
		codes:       generator,
		metrics:     metrics,
		csv:         csv,
		pdf:         pdf,
		validator:   validate,
		logger:      logger,
	}
}

// classAccessError maps a denial on a class-scoped action to its HTTP
// error. Missing classes and foreign classes answer identically so a
// caller cannot probe which class IDs exist.
func classAccessError(d authz.Decision) error {
	switch d.Reason {
	case authz.ReasonUnauthenticated:
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	case authz.ReasonWrongRole:
		return appErrors.Clone(appErrors.ErrForbidden, "")
	case authz.ReasonConflict:
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	default:
		return appErrors.Clone(appErrors.ErrNotFound, "class not found or access denied")
	}
}

// Create provisions a class with a freshly generated class code.
func (s *ClassService) Create(ctx context.Context, caller authz.Caller, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if decision := authz.Authorize(caller, authz.ActionCreateClass, authz.Facts{}); !decision.Allowed {
		return nil, classAccessError(decision)
	}

	var class *models.Class
	for attempt := 0; ; attempt++ {
		code, err := s.codes.Generate(ctx, codes.PrefixClass, s.classes.ExistsByCode)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate class code")
		}

		class = &models.Class{
			Name:      req.Name,
			Grade:     req.Grade,
			ClassCode: code,
			TeacherID: caller.UserID,
		}
		err = s.classes.Create(ctx, class)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) && attempt < createRetries {
			s.logger.Warn("class code collided on insert, regenerating", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.metrics.IncCodeIssued("class")
	s.logger.Info("class created",
		zap.String("class_id", class.ID),
		zap.String("teacher_id", caller.UserID))
	return class, nil
}

// ListMine returns the classes owned by the calling teacher.
func (s *ClassService) ListMine(ctx context.Context, caller authz.Caller) ([]models.ClassSummary, error) {
	if decision := authz.Authorize(caller, authz.ActionCreateClass, authz.Facts{}); !decision.Allowed {
		return nil, classAccessError(decision)
	}
	classes, err := s.classes.ListByTeacher(ctx, caller.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Detail returns a class with counts, teacher info and, for the owning
// teacher, the roster.
func (s *ClassService) Detail(ctx context.Context, caller authz.Caller, classID string) (*models.ClassDetail, error) {
	facts, err := s.classFacts(ctx, caller, classID)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(caller, authz.ActionReadClass, facts); !decision.Allowed {
		return nil, classAccessError(decision)
	}

	detail, err := s.classes.FindDetailByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found or access denied")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	// Rosters carry parent codes, so only the owning teacher sees them.
	if caller.Role == models.RoleTeacher {
		roster, err := s.classes.Roster(ctx, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		detail.Students = roster
	}
	return detail, nil
}

// Delete removes a class and everything scoped under it.
func (s *ClassService) Delete(ctx context.Context, caller authz.Caller, classID string) error {
	facts, err := s.classFacts(ctx, caller, classID)
	if err != nil {
		return err
	}
	if decision := authz.Authorize(caller, authz.ActionDeleteClass, facts); !decision.Allowed {
		return classAccessError(decision)
	}

	if err := s.classes.DeleteCascade(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found or access denied")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	s.logger.Info("class deleted",
		zap.String("class_id", classID),
		zap.String("teacher_id", caller.UserID))
	return nil
}

// Join redeems a class code for the calling student. Unknown codes
// answer not found, never which codes are close to existing ones.
func (s *ClassService) Join(ctx context.Context, caller authz.Caller, req JoinClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid join payload")
	}

	class, err := s.classes.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(req.ClassCode)))
	facts := authz.Facts{}
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class code")
		}
	} else {
		facts.ClassExists = true
		facts.ClassTeacherID = class.TeacherID
		enrolled, err := s.enrollments.Exists(ctx, caller.UserID, class.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		facts.AlreadyEnrolled = enrolled
	}

	if decision := authz.Authorize(caller, authz.ActionJoinClass, facts); !decision.Allowed {
		if decision.Reason == authz.ReasonNotFound {
			return nil, appErrors.Clone(appErrors.ErrInvalidCode, "invalid class code")
		}
		return nil, classAccessError(decision)
	}

	err = s.enrollments.Create(ctx, &models.Enrollment{StudentID: caller.UserID, ClassID: class.ID})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}

	s.logger.Info("student joined class",
		zap.String("class_id", class.ID),
		zap.String("student_id", caller.UserID))
	return class, nil
}

// Roster returns the enrolled students of a class for the owning teacher.
func (s *ClassService) Roster(ctx context.Context, caller authz.Caller, classID string) ([]models.RosterEntry, error) {
	facts, err := s.classFacts(ctx, caller, classID)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(caller, authz.ActionReadRoster, facts); !decision.Allowed {
		return nil, classAccessError(decision)
	}

	roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// ExportRoster renders the roster as a downloadable CSV or PDF file.
func (s *ClassService) ExportRoster(ctx context.Context, caller authz.Caller, classID, format string) (*RosterExport, error) {
	facts, err := s.classFacts(ctx, caller, classID)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(caller, authz.ActionReadRoster, facts); !decision.Allowed {
		return nil, classAccessError(decision)
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	table := export.Table{
		Title:   fmt.Sprintf("%s (grade %s) roster", class.Name, class.Grade),
		Columns: []string{"Name", "Email", "Parent Code", "Joined"},
	}
	for _, entry := range roster {
		code := ""
		if entry.ParentCode != nil {
			code = *entry.ParentCode
		}
		table.Rows = append(table.Rows, []string{
			entry.Name,
			entry.Email,
			code,
			entry.JoinedAt.Format(time.DateOnly),
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &RosterExport{
			FileName:    fmt.Sprintf("roster-%s.csv", class.ClassCode),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &RosterExport{
			FileName:    fmt.Sprintf("roster-%s.pdf", class.ClassCode),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// classFacts resolves a class by ID into authorization facts, including
// the caller's enrollment when the caller is a student. A missing class
// yields empty facts rather than an error so the decision layer can
// answer with the uniform not found response.
func (s *ClassService) classFacts(ctx context.Context, caller authz.Caller, classID string) (authz.Facts, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authz.Facts{}, nil
		}
		return authz.Facts{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	facts := authz.Facts{ClassExists: true, ClassTeacherID: class.TeacherID}
	if caller.Role == models.RoleStudent {
		enrolled, err := s.enrollments.Exists(ctx, caller.UserID, classID)
		if err != nil {
			return authz.Facts{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		facts.Enrolled = enrolled
	}
	return facts, nil
}
