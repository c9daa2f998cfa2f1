package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink/edulink-api/internal/middleware"
	"github.com/edulink/edulink-api/internal/service"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
	"github.com/edulink/edulink-api/pkg/response"
)

// ContentHandler wires class-scoped content endpoints to the content service.
type ContentHandler struct {
	service *service.ContentService
}

// NewContentHandler creates a new handler.
func NewContentHandler(svc *service.ContentService) *ContentHandler {
	return &ContentHandler{service: svc}
}

// CreateLesson godoc
// @Summary Publish a lesson
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/lessons [post]
func (h *ContentHandler) CreateLesson(c *gin.Context) {
	var req service.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}

	lesson, err := h.service.CreateLesson(c.Request.Context(), middleware.Caller(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, lesson, "lesson created")
}

// ListLessons godoc
// @Summary List class lessons
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/lessons [get]
func (h *ContentHandler) ListLessons(c *gin.Context) {
	lessons, err := h.service.ListLessons(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, lessons, "")
}

// CreateHomework godoc
// @Summary Publish homework
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/homework [post]
func (h *ContentHandler) CreateHomework(c *gin.Context) {
	var req service.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid homework payload"))
		return
	}

	homework, err := h.service.CreateHomework(c.Request.Context(), middleware.Caller(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, homework, "homework created")
}

// ListHomework godoc
// @Summary List class homework
// @Description Homework with submissions: all of them for the teacher, own for a student.
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/homework [get]
func (h *ContentHandler) ListHomework(c *gin.Context) {
	homework, err := h.service.ListHomework(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, homework, "")
}

// SubmitHomework godoc
// @Summary Submit homework
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param homeworkId path string true "Homework ID"
// @Param payload body service.SubmitHomeworkRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id}/homework/{homeworkId}/submissions [post]
func (h *ContentHandler) SubmitHomework(c *gin.Context) {
	var req service.SubmitHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	submission, err := h.service.SubmitHomework(c.Request.Context(), middleware.Caller(c), c.Param("id"), c.Param("homeworkId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, submission, "homework submitted")
}

// CreateQuiz godoc
// @Summary Publish a quiz
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/quizzes [post]
func (h *ContentHandler) CreateQuiz(c *gin.Context) {
	var req service.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}

	quiz, err := h.service.CreateQuiz(c.Request.Context(), middleware.Caller(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, quiz, "quiz created")
}

// ListQuizzes godoc
// @Summary List class quizzes
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/quizzes [get]
func (h *ContentHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.service.ListQuizzes(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, quizzes, "")
}

// QuizDetail godoc
// @Summary Quiz with questions
// @Description Questions never include the correct answers. Students also get their results.
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/quizzes/{quizId} [get]
func (h *ContentHandler) QuizDetail(c *gin.Context) {
	quiz, err := h.service.QuizDetail(c.Request.Context(), middleware.Caller(c), c.Param("id"), c.Param("quizId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, quiz, "")
}

// AttemptQuiz godoc
// @Summary Submit quiz answers
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param quizId path string true "Quiz ID"
// @Param payload body service.AttemptQuizRequest true "Answers payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/quizzes/{quizId}/attempts [post]
func (h *ContentHandler) AttemptQuiz(c *gin.Context) {
	var req service.AttemptQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attempt payload"))
		return
	}

	result, err := h.service.AttemptQuiz(c.Request.Context(), middleware.Caller(c), c.Param("id"), c.Param("quizId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result, "quiz scored")
}

// CreateAnnouncement godoc
// @Summary Publish an announcement
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/announcements [post]
func (h *ContentHandler) CreateAnnouncement(c *gin.Context) {
	var req service.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}

	announcement, err := h.service.CreateAnnouncement(c.Request.Context(), middleware.Caller(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, announcement, "announcement created")
}

// ListAnnouncements godoc
// @Summary List class announcements
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/announcements [get]
func (h *ContentHandler) ListAnnouncements(c *gin.Context) {
	announcements, err := h.service.ListAnnouncements(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, announcements, "")
}
