package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edulink/edulink-api/internal/authz"
	"github.com/edulink/edulink-api/internal/models"
	"github.com/edulink/edulink-api/internal/repository"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
)

type contentClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type contentEnrollmentRepository interface {
	Exists(ctx context.Context, studentID, classID string) (bool, error)
}

type lessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	ListByClass(ctx context.Context, classID string) ([]models.Lesson, error)
}

type homeworkRepository interface {
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	Create(ctx context.Context, homework *models.Homework) error
	ListByClass(ctx context.Context, classID string) ([]models.Homework, error)
	CreateSubmission(ctx context.Context, submission *models.HomeworkSubmission) error
	ListSubmissions(ctx context.Context, homeworkID, studentID string) ([]models.HomeworkSubmission, error)
}

type quizRepository interface {
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz, questions []models.QuizQuestion) error
	ListByClass(ctx context.Context, classID string) ([]models.Quiz, error)
	ListQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error)
	CreateResult(ctx context.Context, result *models.QuizResult) error
	ListResultsByStudent(ctx context.Context, quizID, studentID string) ([]models.QuizResult, error)
}

type announcementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	ListByClass(ctx context.Context, classID string) ([]models.Announcement, error)
}

// CreateLessonRequest is the lesson creation payload.
type CreateLessonRequest struct {
	Title    string                `json:"title" validate:"required,min=2"`
	Content  *string               `json:"content,omitempty"`
	FileType models.LessonFileType `json:"file_type" validate:"omitempty,oneof=text pdf video"`
	FileURL  *string               `json:"file_url,omitempty" validate:"omitempty,url"`
}

// CreateHomeworkRequest is the homework creation payload.
type CreateHomeworkRequest struct {
	Title       string    `json:"title" validate:"required,min=2"`
	Description string    `json:"description" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

// SubmitHomeworkRequest is a student's homework answer.
type SubmitHomeworkRequest struct {
	Content *string `json:"content,omitempty"`
	FileURL *string `json:"file_url,omitempty" validate:"omitempty,url"`
}

// QuizQuestionInput is one question inside a quiz creation payload.
type QuizQuestionInput struct {
	Prompt       string   `json:"prompt" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectIndex int      `json:"correct_index" validate:"gte=0"`
}

// CreateQuizRequest is the quiz creation payload.
type CreateQuizRequest struct {
	Title       string              `json:"title" validate:"required,min=2"`
	Description *string             `json:"description,omitempty"`
	TimeLimit   *int                `json:"time_limit,omitempty" validate:"omitempty,gt=0"`
	Questions   []QuizQuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// AttemptQuizRequest carries a student's answers by question position.
type AttemptQuizRequest struct {
	Answers []int `json:"answers" validate:"required,min=1"`
}

// CreateAnnouncementRequest is the announcement creation payload.
type CreateAnnouncementRequest struct {
	Title   string `json:"title" validate:"required,min=2"`
	Content string `json:"content" validate:"required"`
}

// ContentService provides class-scoped content use cases for lessons,
// homework, quizzes and announcements. All access goes through the same
// class ownership and enrollment rules.
type ContentService struct {
	classes       contentClassRepository
	enrollments   contentEnrollmentRepository
	lessons       lessonRepository
	homework      homeworkRepository
	quizzes       quizRepository
	announcements announcementRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewContentService constructs a ContentService instance.
func NewContentService(classes contentClassRepository, enrollments contentEnrollmentRepository, lessons lessonRepository, homework homeworkRepository, quizzes quizRepository, announcements announcementRepository, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ContentService{
		classes:       classes,
		enrollments:   enrollments,
		lessons:       lessons,
		homework:      homework,
		quizzes:       quizzes,
		announcements: announcements,
		validator:     validate,
		logger:        logger,
	}
}

// CreateLesson publishes a lesson to a class the caller owns.
func (s *ContentService) CreateLesson(ctx context.Context, caller authz.Caller, classID string, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if err := s.authorize(ctx, caller, authz.ActionCreateContent, classID); err != nil {
		return nil, err
	}

	fileType := req.FileType
	if fileType == "" {
		fileType = models.LessonFileText
	}
	lesson := &models.Lesson{
		ClassID:  classID,
		Title:    req.Title,
		Content:  req.Content,
		FileType: fileType,
		FileURL:  req.FileURL,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	return lesson, nil
}

// ListLessons returns the lessons of a class the caller may read.
func (s *ContentService) ListLessons(ctx context.Context, caller authz.Caller, classID string) ([]models.Lesson, error) {
	if err := s.authorize(ctx, caller, authz.ActionReadContent, classID); err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, nil
}

// CreateHomework publishes a homework assignment to a class the caller owns.
func (s *ContentService) CreateHomework(ctx context.Context, caller authz.Caller, classID string, req CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}
	if err := s.authorize(ctx, caller, authz.ActionCreateContent, classID); err != nil {
		return nil, err
	}

	homework := &models.Homework{
		ClassID:     classID,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	}
	if err := s.homework.Create(ctx, homework); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}
	return homework, nil
}

// ListHomework returns the homework of a class with submissions. The
// owning teacher sees every submission, a student only their own.
func (s *ContentService) ListHomework(ctx context.Context, caller authz.Caller, classID string) ([]models.HomeworkWithSubmissions, error) {
	if err := s.authorize(ctx, caller, authz.ActionReadContent, classID); err != nil {
		return nil, err
	}

	items, err := s.homework.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homework")
	}

	submissionScope := ""
	if caller.Role == models.RoleStudent {
		submissionScope = caller.UserID
	}

	result := make([]models.HomeworkWithSubmissions, 0, len(items))
	for _, hw := range items {
		submissions, err := s.homework.ListSubmissions(ctx, hw.ID, submissionScope)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
		}
		result = append(result, models.HomeworkWithSubmissions{Homework: hw, Submissions: submissions})
	}
	return result, nil
}

// SubmitHomework records a student's answer to a homework item. Each
// student submits once per item.
func (s *ContentService) SubmitHomework(ctx context.Context, caller authz.Caller, classID, homeworkID string, req SubmitHomeworkRequest) (*models.HomeworkSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if req.Content == nil && req.FileURL == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission needs content or a file")
	}
	if err := s.authorize(ctx, caller, authz.ActionSubmitWork, classID); err != nil {
		return nil, err
	}

	hw, err := s.homework.FindByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if hw.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
	}

	submission := &models.HomeworkSubmission{
		HomeworkID: homeworkID,
		StudentID:  caller.UserID,
		Content:    req.Content,
		FileURL:    req.FileURL,
	}
	if err := s.homework.CreateSubmission(ctx, submission); err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "homework already submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit homework")
	}
	return submission, nil
}

// CreateQuiz publishes a quiz with its questions to a class the caller owns.
func (s *ContentService) CreateQuiz(ctx context.Context, caller authz.Caller, classID string, req CreateQuizRequest) (*models.QuizWithQuestions, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	for _, q := range req.Questions {
		if q.CorrectIndex >= len(q.Options) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "correct_index out of range")
		}
	}
	if err := s.authorize(ctx, caller, authz.ActionCreateContent, classID); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		ClassID:     classID,
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   req.TimeLimit,
	}
	questions := make([]models.QuizQuestion, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, models.QuizQuestion{
			Prompt:       q.Prompt,
			Options:      pq.StringArray(q.Options),
			CorrectIndex: q.CorrectIndex,
		})
	}
	if err := s.quizzes.Create(ctx, quiz, questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	return &models.QuizWithQuestions{Quiz: *quiz, Questions: questions}, nil
}

// ListQuizzes returns the quizzes of a class the caller may read.
func (s *ContentService) ListQuizzes(ctx context.Context, caller authz.Caller, classID string) ([]models.Quiz, error) {
	if err := s.authorize(ctx, caller, authz.ActionReadContent, classID); err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	return quizzes, nil
}

// QuizDetail returns a quiz with its questions, plus the caller's
// previous results when the caller is a student.
func (s *ContentService) QuizDetail(ctx context.Context, caller authz.Caller, classID, quizID string) (*models.QuizWithQuestions, error) {
	if err := s.authorize(ctx, caller, authz.ActionReadContent, classID); err != nil {
		return nil, err
	}

	quiz, err := s.loadClassQuiz(ctx, classID, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}

	detail := &models.QuizWithQuestions{Quiz: *quiz, Questions: questions}
	if caller.Role == models.RoleStudent {
		results, err := s.quizzes.ListResultsByStudent(ctx, quizID, caller.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
		}
		detail.Results = results
	}
	return detail, nil
}

// AttemptQuiz scores a student's answers against the stored questions.
// The score counts answers matching the correct option by position.
func (s *ContentService) AttemptQuiz(ctx context.Context, caller authz.Caller, classID, quizID string, req AttemptQuizRequest) (*models.QuizResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}
	if err := s.authorize(ctx, caller, authz.ActionSubmitWork, classID); err != nil {
		return nil, err
	}

	if _, err := s.loadClassQuiz(ctx, classID, quizID); err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	if len(req.Answers) > len(questions) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "more answers than questions")
	}

	score := 0
	for i, question := range questions {
		if i < len(req.Answers) && req.Answers[i] == question.CorrectIndex {
			score++
		}
	}

	result := &models.QuizResult{
		QuizID:    quizID,
		StudentID: caller.UserID,
		Score:     score,
		Total:     len(questions),
	}
	if err := s.quizzes.CreateResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record result")
	}

	s.logger.Info("quiz attempted",
		zap.String("quiz_id", quizID),
		zap.String("student_id", caller.UserID),
		zap.Int("score", score),
		zap.Int("total", len(questions)))
	return result, nil
}

// CreateAnnouncement publishes a notice to a class the caller owns.
func (s *ContentService) CreateAnnouncement(ctx context.Context, caller authz.Caller, classID string, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if err := s.authorize(ctx, caller, authz.ActionCreateContent, classID); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		ClassID: classID,
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return announcement, nil
}

// ListAnnouncements returns the announcements of a class the caller may read.
func (s *ContentService) ListAnnouncements(ctx context.Context, caller authz.Caller, classID string) ([]models.Announcement, error) {
	if err := s.authorize(ctx, caller, authz.ActionReadContent, classID); err != nil {
		return nil, err
	}
	announcements, err := s.announcements.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

func (s *ContentService) authorize(ctx context.Context, caller authz.Caller, action authz.Action, classID string) error {
	facts := authz.Facts{}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	} else {
		facts.ClassExists = true
		facts.ClassTeacherID = class.TeacherID
		if caller.Role == models.RoleStudent {
			enrolled, err := s.enrollments.Exists(ctx, caller.UserID, classID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
			}
			facts.Enrolled = enrolled
		}
	}

	if decision := authz.Authorize(caller, action, facts); !decision.Allowed {
		return classAccessError(decision)
	}
	return nil
}

// loadClassQuiz fetches a quiz and verifies it belongs to the class in
// the request path.
func (s *ContentService) loadClassQuiz(ctx context.Context, classID, quizID string) (*models.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	if quiz.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
	}
	return quiz, nil
}
