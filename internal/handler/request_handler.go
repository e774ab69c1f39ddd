package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alumniportal/internal/dto"
	"alumniportal/internal/middleware"
	"alumniportal/internal/model"
	"alumniportal/internal/service"
	"alumniportal/pkg/apperror"
	"alumniportal/pkg/response"
)

type RequestHandler struct {
	requests service.RequestService
}

func NewRequestHandler(requests service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

func (h *RequestHandler) SubmitContact(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SubmitContactRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.requests.SubmitContactRequest(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

func (h *RequestHandler) SubmitJob(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SubmitJobRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.requests.SubmitJobRequest(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

func (h *RequestHandler) Approve(c *gin.Context) {
	h.decide(c, "approve")
}

func (h *RequestHandler) Reject(c *gin.Context) {
	h.decide(c, "reject")
}

func (h *RequestHandler) decide(c *gin.Context, outcome string) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		response.ResponseError(c, apperror.ErrUnauthorized)
		return
	}

	// The reason body is optional on approval.
	var input dto.DecideRequestInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
	}

	req, err := h.requests.Decide(c.Request.Context(), id, actor, outcome, input.Reason)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) ListSent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var filter dto.RequestFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	requests, total, err := h.requests.ListSent(c.Request.Context(), userID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	filter.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"data": requests,
		"meta": dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	})
}

func (h *RequestHandler) ListReceived(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		response.ResponseError(c, apperror.ErrUnauthorized)
		return
	}

	var filter dto.RequestFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	requests, total, err := h.requests.ListReceived(c.Request.Context(), actor, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	filter.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"data": requests,
		"meta": dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	})
}

// ListRegistrations serves the admin review queue of membership applications.
func (h *RequestHandler) ListRegistrations(c *gin.Context) {
	var filter dto.RequestFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}
	if filter.Status == "" {
		filter.Status = string(model.RequestPending)
	}

	requests, total, err := h.requests.ListRegistrations(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	filter.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"data": requests,
		"meta": dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	})
}

// ContactStatus answers "can I contact this member, and where do we stand".
func (h *RequestHandler) ContactStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	otherID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	status, err := h.requests.ContactStatus(c.Request.Context(), userID, otherID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
