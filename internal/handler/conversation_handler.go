package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alumniportal/internal/dto"
	"alumniportal/internal/service"
	"alumniportal/pkg/response"
)

type ConversationHandler struct {
	conversations service.ConversationService
}

func NewConversationHandler(conversations service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	conversations, total, err := h.conversations.ListConversations(c.Request.Context(), userID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"data": conversations,
		"meta": dto.NewPaginationMeta(page.Page, page.Limit, total),
	})
}

func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	messages, total, err := h.conversations.ListMessages(c.Request.Context(), conversationID, userID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"data": messages,
		"meta": dto.NewPaginationMeta(page.Page, page.Limit, total),
	})
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input dto.SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	msg, err := h.conversations.SendMessage(c.Request.Context(), conversationID, userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}
