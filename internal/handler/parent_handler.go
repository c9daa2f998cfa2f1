package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink/edulink-api/internal/middleware"
	"github.com/edulink/edulink-api/internal/service"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
	"github.com/edulink/edulink-api/pkg/response"
)

// ParentHandler wires HTTP endpoints to the parent service.
type ParentHandler struct {
	service *service.ParentService
}

// NewParentHandler creates a new handler.
func NewParentHandler(svc *service.ParentService) *ParentHandler {
	return &ParentHandler{service: svc}
}

// AddChild godoc
// @Summary Link a child by parent code
// @Description Redeem a parent code and link the student to the calling parent.
// @Tags Parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AddChildRequest true "Link payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /parent/children [post]
func (h *ParentHandler) AddChild(c *gin.Context) {
	var req service.AddChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid link payload"))
		return
	}

	child, err := h.service.AddChild(c.Request.Context(), middleware.Caller(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, child, "child linked")
}

// Children godoc
// @Summary List linked children
// @Description Linked children with their class memberships.
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /parent/children [get]
func (h *ParentHandler) Children(c *gin.Context) {
	children, err := h.service.Children(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, children, "")
}
