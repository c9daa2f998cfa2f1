package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink/edulink-api/internal/authz"
	"github.com/edulink/edulink-api/internal/models"
	"github.com/edulink/edulink-api/internal/repository"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
	"github.com/edulink/edulink-api/pkg/export"
)

type mockClassRepo struct {
	classes    map[string]*models.Class
	roster     map[string][]models.RosterEntry
	createErrs []error
	deleted    []string
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	for _, c := range m.classes {
		if c.ClassCode == code {
			return c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if c, ok := m.classes[id]; ok {
		return &models.ClassDetail{ClassSummary: models.ClassSummary{Class: *c}}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error) {
	var out []models.ClassSummary
	for _, c := range m.classes {
		if c.TeacherID == teacherID {
			out = append(out, models.ClassSummary{Class: *c})
		}
	}
	return out, nil
}

func (m *mockClassRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := m.FindByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if m.classes == nil {
		m.classes = make(map[string]*models.Class)
	}
	class.ID = "class-" + class.ClassCode
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) Roster(ctx context.Context, classID string) ([]models.RosterEntry, error) {
	return m.roster[classID], nil
}

func (m *mockClassRepo) DeleteCascade(ctx context.Context, id string) error {
	if _, ok := m.classes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.classes, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockEnrollments struct {
	pairs      map[string]bool
	createErrs []error
	created    []*models.Enrollment
}

func (m *mockEnrollments) key(studentID, classID string) string {
	return studentID + "/" + classID
}

func (m *mockEnrollments) Exists(ctx context.Context, studentID, classID string) (bool, error) {
	return m.pairs[m.key(studentID, classID)], nil
}

func (m *mockEnrollments) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if m.pairs == nil {
		m.pairs = make(map[string]bool)
	}
	m.pairs[m.key(enrollment.StudentID, enrollment.ClassID)] = true
	m.created = append(m.created, enrollment)
	return nil
}

func (m *mockEnrollments) ListClassesByStudent(ctx context.Context, studentID string) ([]models.ChildClass, error) {
	return nil, nil
}

func newClassService(classes *mockClassRepo, enrollments *mockEnrollments) *ClassService {
	return NewClassService(classes, enrollments, nil, nil, export.NewCSVExporter(), export.NewPDFExporter(), nil, nil)
}

func TestCreateClassAssignsCode(t *testing.T) {
	classes := &mockClassRepo{}
	svc := newClassService(classes, &mockEnrollments{})

	class, err := svc.Create(context.Background(), authz.Caller{UserID: "t1", Role: models.RoleTeacher}, CreateClassRequest{Name: "Math 7A", Grade: "7"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(class.ClassCode, "CLASS-"))
	assert.Equal(t, "t1", class.TeacherID)
}

func TestCreateClassStudentForbidden(t *testing.T) {
	svc := newClassService(&mockClassRepo{}, &mockEnrollments{})

	_, err := svc.Create(context.Background(), authz.Caller{UserID: "s1", Role: models.RoleStudent}, CreateClassRequest{Name: "Math 7A", Grade: "7"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCreateClassRetriesOnCodeCollision(t *testing.T) {
	classes := &mockClassRepo{createErrs: []error{repository.ErrDuplicateCode}}
	svc := newClassService(classes, &mockEnrollments{})

	class, err := svc.Create(context.Background(), authz.Caller{UserID: "t1", Role: models.RoleTeacher}, CreateClassRequest{Name: "Math 7A", Grade: "7"})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ClassCode)
}

func TestJoinClassByCode(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", Name: "Math 7A", ClassCode: "CLASS-AB12CD", TeacherID: "t1"},
	}}
	enrollments := &mockEnrollments{}
	svc := newClassService(classes, enrollments)

	class, err := svc.Join(context.Background(), authz.Caller{UserID: "s1", Role: models.RoleStudent}, JoinClassRequest{ClassCode: "class-ab12cd"})
	require.NoError(t, err)
	assert.Equal(t, "c1", class.ID)
	require.Len(t, enrollments.created, 1)
	assert.Equal(t, "s1", enrollments.created[0].StudentID)
}

func TestJoinClassUnknownCode(t *testing.T) {
	svc := newClassService(&mockClassRepo{}, &mockEnrollments{})

	_, err := svc.Join(context.Background(), authz.Caller{UserID: "s1", Role: models.RoleStudent}, JoinClassRequest{ClassCode: "CLASS-NOPE42"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCode.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestJoinClassAlreadyEnrolled(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", ClassCode: "CLASS-AB12CD", TeacherID: "t1"},
	}}
	enrollments := &mockEnrollments{pairs: map[string]bool{"s1/c1": true}}
	svc := newClassService(classes, enrollments)

	_, err := svc.Join(context.Background(), authz.Caller{UserID: "s1", Role: models.RoleStudent}, JoinClassRequest{ClassCode: "CLASS-AB12CD"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestJoinClassLostInsertRace(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", ClassCode: "CLASS-AB12CD", TeacherID: "t1"},
	}}
	enrollments := &mockEnrollments{createErrs: []error{repository.ErrDuplicatePair}}
	svc := newClassService(classes, enrollments)

	_, err := svc.Join(context.Background(), authz.Caller{UserID: "s1", Role: models.RoleStudent}, JoinClassRequest{ClassCode: "CLASS-AB12CD"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestJoinClassTeacherForbidden(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", ClassCode: "CLASS-AB12CD", TeacherID: "t1"},
	}}
	svc := newClassService(classes, &mockEnrollments{})

	_, err := svc.Join(context.Background(), authz.Caller{UserID: "t1", Role: models.RoleTeacher}, JoinClassRequest{ClassCode: "CLASS-AB12CD"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestClassDetailHidesForeignClass(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1"},
	}}
	svc := newClassService(classes, &mockEnrollments{})

	// Another teacher gets the same answer as for a missing class.
	_, err := svc.Detail(context.Background(), authz.Caller{UserID: "t2", Role: models.RoleTeacher}, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Detail(context.Background(), authz.Caller{UserID: "t2", Role: models.RoleTeacher}, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassDetailEnrolledStudent(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1"},
	}}
	enrollments := &mockEnrollments{pairs: map[string]bool{"s1/c1": true}}
	svc := newClassService(classes, enrollments)

	detail, err := svc.Detail(context.Background(), authz.Caller{UserID: "s1", Role: models.RoleStudent}, "c1")
	require.NoError(t, err)
	// Students never see the roster with its parent codes.
	assert.Nil(t, detail.Students)
}

func TestDeleteClassCascades(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1"},
	}}
	svc := newClassService(classes, &mockEnrollments{})

	err := svc.Delete(context.Background(), authz.Caller{UserID: "t1", Role: models.RoleTeacher}, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, classes.deleted)
}

func TestExportRosterCSV(t *testing.T) {
	code := "PARENT-AB12CD"
	classes := &mockClassRepo{
		classes: map[string]*models.Class{
			"c1": {ID: "c1", Name: "Math 7A", Grade: "7", ClassCode: "CLASS-AB12CD", TeacherID: "t1"},
		},
		roster: map[string][]models.RosterEntry{
			"c1": {{StudentID: "s1", Name: "Student One", Email: "s1@example.com", ParentCode: &code}},
		},
	}
	svc := newClassService(classes, &mockEnrollments{})

	file, err := svc.ExportRoster(context.Background(), authz.Caller{UserID: "t1", Role: models.RoleTeacher}, "c1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, string(file.Content), "Student One")
	assert.Contains(t, string(file.Content), code)
}

func TestExportRosterUnknownFormat(t *testing.T) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1"},
	}}
	svc := newClassService(classes, &mockEnrollments{})

	_, err := svc.ExportRoster(context.Background(), authz.Caller{UserID: "t1", Role: models.RoleTeacher}, "c1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
