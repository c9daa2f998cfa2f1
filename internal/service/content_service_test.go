package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink/edulink-api/internal/authz"
	"github.com/edulink/edulink-api/internal/models"
	"github.com/edulink/edulink-api/internal/repository"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
)

type mockLessons struct {
	byClass map[string][]models.Lesson
	created []*models.Lesson
}

func (m *mockLessons) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = "lesson-1"
	m.created = append(m.created, lesson)
	return nil
}

func (m *mockLessons) ListByClass(ctx context.Context, classID string) ([]models.Lesson, error) {
	return m.byClass[classID], nil
}

type mockHomework struct {
	items       map[string]*models.Homework
	submissions map[string][]models.HomeworkSubmission
	submitErrs  []error
	submitted   []*models.HomeworkSubmission
}

func (m *mockHomework) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	if hw, ok := m.items[id]; ok {
		return hw, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHomework) Create(ctx context.Context, homework *models.Homework) error {
	if m.items == nil {
		m.items = make(map[string]*models.Homework)
	}
	homework.ID = "hw-1"
	m.items[homework.ID] = homework
	return nil
}

func (m *mockHomework) ListByClass(ctx context.Context, classID string) ([]models.Homework, error) {
	var out []models.Homework
	for _, hw := range m.items {
		if hw.ClassID == classID {
			out = append(out, *hw)
		}
	}
	return out, nil
}

func (m *mockHomework) CreateSubmission(ctx context.Context, submission *models.HomeworkSubmission) error {
	if len(m.submitErrs) > 0 {
		err := m.submitErrs[0]
		m.submitErrs = m.submitErrs[1:]
		if err != nil {
			return err
		}
	}
	submission.ID = "sub-1"
	m.submitted = append(m.submitted, submission)
	return nil
}

func (m *mockHomework) ListSubmissions(ctx context.Context, homeworkID, studentID string) ([]models.HomeworkSubmission, error) {
	var out []models.HomeworkSubmission
	for _, s := range m.submissions[homeworkID] {
		if studentID == "" || s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockQuizzes struct {
	items     map[string]*models.Quiz
	questions map[string][]models.QuizQuestion
	results   []*models.QuizResult
}

func (m *mockQuizzes) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	if q, ok := m.items[id]; ok {
		return q, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuizzes) Create(ctx context.Context, quiz *models.Quiz, questions []models.QuizQuestion) error {
	if m.items == nil {
		m.items = make(map[string]*models.Quiz)
		m.questions = make(map[string][]models.QuizQuestion)
	}
	quiz.ID = "quiz-1"
	m.items[quiz.ID] = quiz
	m.questions[quiz.ID] = questions
	return nil
}

func (m *mockQuizzes) ListByClass(ctx context.Context, classID string) ([]models.Quiz, error) {
	var out []models.Quiz
	for _, q := range m.items {
		if q.ClassID == classID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (m *mockQuizzes) ListQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	return m.questions[quizID], nil
}

func (m *mockQuizzes) CreateResult(ctx context.Context, result *models.QuizResult) error {
	result.ID = "result-1"
	result.CompletedAt = time.Now()
	m.results = append(m.results, result)
	return nil
}

func (m *mockQuizzes) ListResultsByStudent(ctx context.Context, quizID, studentID string) ([]models.QuizResult, error) {
	var out []models.QuizResult
	for _, r := range m.results {
		if r.QuizID == quizID && r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type mockAnnouncements struct {
	byClass map[string][]models.Announcement
	created []*models.Announcement
}

func (m *mockAnnouncements) Create(ctx context.Context, announcement *models.Announcement) error {
	announcement.ID = "ann-1"
	m.created = append(m.created, announcement)
	return nil
}

func (m *mockAnnouncements) ListByClass(ctx context.Context, classID string) ([]models.Announcement, error) {
	return m.byClass[classID], nil
}

type contentFixture struct {
	classes       *mockClassRepo
	enrollments   *mockEnrollments
	lessons       *mockLessons
	homework      *mockHomework
	quizzes       *mockQuizzes
	announcements *mockAnnouncements
	svc           *ContentService
}

func newContentFixture() *contentFixture {
	f := &contentFixture{
		classes: &mockClassRepo{classes: map[string]*models.Class{
			"c1": {ID: "c1", Name: "Math 7A", TeacherID: "t1"},
		}},
		enrollments:   &mockEnrollments{pairs: map[string]bool{"s1/c1": true}},
		lessons:       &mockLessons{},
		homework:      &mockHomework{},
		quizzes:       &mockQuizzes{},
		announcements: &mockAnnouncements{},
	}
	f.svc = NewContentService(f.classes, f.enrollments, f.lessons, f.homework, f.quizzes, f.announcements, nil, nil)
	return f
}

var (
	owner    = authz.Caller{UserID: "t1", Role: models.RoleTeacher}
	intruder = authz.Caller{UserID: "t2", Role: models.RoleTeacher}
	pupil    = authz.Caller{UserID: "s1", Role: models.RoleStudent}
	outsider = authz.Caller{UserID: "s2", Role: models.RoleStudent}
)

func TestCreateLessonOwnerOnly(t *testing.T) {
	f := newContentFixture()

	lesson, err := f.svc.CreateLesson(context.Background(), owner, "c1", CreateLessonRequest{Title: "Fractions"})
	require.NoError(t, err)
	assert.Equal(t, models.LessonFileText, lesson.FileType)

	_, err = f.svc.CreateLesson(context.Background(), intruder, "c1", CreateLessonRequest{Title: "Fractions"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.svc.CreateLesson(context.Background(), pupil, "c1", CreateLessonRequest{Title: "Fractions"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListLessonsRequiresEnrollment(t *testing.T) {
	f := newContentFixture()
	f.lessons.byClass = map[string][]models.Lesson{"c1": {{ID: "l1", ClassID: "c1", Title: "Fractions"}}}

	lessons, err := f.svc.ListLessons(context.Background(), pupil, "c1")
	require.NoError(t, err)
	assert.Len(t, lessons, 1)

	_, err = f.svc.ListLessons(context.Background(), outsider, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmitHomework(t *testing.T) {
	f := newContentFixture()
	f.homework.items = map[string]*models.Homework{
		"hw-1": {ID: "hw-1", ClassID: "c1", Title: "Worksheet"},
	}

	content := "my answers"
	submission, err := f.svc.SubmitHomework(context.Background(), pupil, "c1", "hw-1", SubmitHomeworkRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "s1", submission.StudentID)

	// Teachers cannot submit.
	_, err = f.svc.SubmitHomework(context.Background(), owner, "c1", "hw-1", SubmitHomeworkRequest{Content: &content})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitHomeworkTwiceConflicts(t *testing.T) {
	f := newContentFixture()
	f.homework.items = map[string]*models.Homework{
		"hw-1": {ID: "hw-1", ClassID: "c1"},
	}
	f.homework.submitErrs = []error{repository.ErrDuplicatePair}

	content := "my answers"
	_, err := f.svc.SubmitHomework(context.Background(), pupil, "c1", "hw-1", SubmitHomeworkRequest{Content: &content})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubmitHomeworkWrongClass(t *testing.T) {
	f := newContentFixture()
	f.classes.classes["c2"] = &models.Class{ID: "c2", TeacherID: "t1"}
	f.enrollments.pairs["s1/c2"] = true
	f.homework.items = map[string]*models.Homework{
		"hw-1": {ID: "hw-1", ClassID: "c1"},
	}

	content := "my answers"
	_, err := f.svc.SubmitHomework(context.Background(), pupil, "c2", "hw-1", SubmitHomeworkRequest{Content: &content})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListHomeworkScopesSubmissions(t *testing.T) {
	f := newContentFixture()
	f.homework.items = map[string]*models.Homework{
		"hw-1": {ID: "hw-1", ClassID: "c1"},
	}
	f.homework.submissions = map[string][]models.HomeworkSubmission{
		"hw-1": {
			{ID: "sub-1", HomeworkID: "hw-1", StudentID: "s1"},
			{ID: "sub-2", HomeworkID: "hw-1", StudentID: "s9"},
		},
	}

	asTeacher, err := f.svc.ListHomework(context.Background(), owner, "c1")
	require.NoError(t, err)
	require.Len(t, asTeacher, 1)
	assert.Len(t, asTeacher[0].Submissions, 2)

	asStudent, err := f.svc.ListHomework(context.Background(), pupil, "c1")
	require.NoError(t, err)
	require.Len(t, asStudent, 1)
	require.Len(t, asStudent[0].Submissions, 1)
	assert.Equal(t, "s1", asStudent[0].Submissions[0].StudentID)
}

func TestCreateQuizValidatesCorrectIndex(t *testing.T) {
	f := newContentFixture()

	_, err := f.svc.CreateQuiz(context.Background(), owner, "c1", CreateQuizRequest{
		Title: "Quiz 1",
		Questions: []QuizQuestionInput{
			{Prompt: "2+2?", Options: []string{"3", "4"}, CorrectIndex: 5},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttemptQuizScoring(t *testing.T) {
	f := newContentFixture()
	f.quizzes.items = map[string]*models.Quiz{
		"quiz-1": {ID: "quiz-1", ClassID: "c1", Title: "Quiz 1"},
	}
	f.quizzes.questions = map[string][]models.QuizQuestion{
		"quiz-1": {
			{ID: "q1", QuizID: "quiz-1", Options: pq.StringArray{"a", "b"}, CorrectIndex: 0, Position: 0},
			{ID: "q2", QuizID: "quiz-1", Options: pq.StringArray{"a", "b"}, CorrectIndex: 1, Position: 1},
			{ID: "q3", QuizID: "quiz-1", Options: pq.StringArray{"a", "b"}, CorrectIndex: 1, Position: 2},
		},
	}

	result, err := f.svc.AttemptQuiz(context.Background(), pupil, "c1", "quiz-1", AttemptQuizRequest{Answers: []int{0, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.Total)

	// Unanswered questions count as wrong.
	result, err = f.svc.AttemptQuiz(context.Background(), pupil, "c1", "quiz-1", AttemptQuizRequest{Answers: []int{0}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.Total)

	_, err = f.svc.AttemptQuiz(context.Background(), pupil, "c1", "quiz-1", AttemptQuizRequest{Answers: []int{0, 1, 1, 0}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestQuizDetailIncludesStudentResults(t *testing.T) {
	f := newContentFixture()
	f.quizzes.items = map[string]*models.Quiz{
		"quiz-1": {ID: "quiz-1", ClassID: "c1"},
	}
	f.quizzes.questions = map[string][]models.QuizQuestion{
		"quiz-1": {{ID: "q1", QuizID: "quiz-1", Options: pq.StringArray{"a", "b"}, CorrectIndex: 0}},
	}
	f.quizzes.results = []*models.QuizResult{
		{ID: "r1", QuizID: "quiz-1", StudentID: "s1", Score: 1, Total: 1},
	}

	detail, err := f.svc.QuizDetail(context.Background(), pupil, "c1", "quiz-1")
	require.NoError(t, err)
	require.Len(t, detail.Questions, 1)
	require.Len(t, detail.Results, 1)

	asTeacher, err := f.svc.QuizDetail(context.Background(), owner, "c1", "quiz-1")
	require.NoError(t, err)
	assert.Empty(t, asTeacher.Results)
}

func TestAnnouncementsRoundTrip(t *testing.T) {
	f := newContentFixture()

	_, err := f.svc.CreateAnnouncement(context.Background(), owner, "c1", CreateAnnouncementRequest{Title: "Exam", Content: "Friday"})
	require.NoError(t, err)
	require.Len(t, f.announcements.created, 1)

	_, err = f.svc.CreateAnnouncement(context.Background(), pupil, "c1", CreateAnnouncementRequest{Title: "Exam", Content: "Friday"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
