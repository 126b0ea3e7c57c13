package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/pkg/response"
)

type sendMessageRequest struct {
	Subject string `json:"subject" binding:"required,max=512"`
	Body    string `json:"body"`
}

type templateRequest struct {
	Subject string `json:"subject" binding:"required,max=512"`
	Body    string `json:"body" binding:"required"`
}

type createTemplateRequest struct {
	Type model.MessageType `json:"type" binding:"required,oneof=StoredQueryResult ColidEntrySubscriptionUpdate ColidEntrySubscriptionDelete"`
	templateRequest
}

// ListMessages 用户消息
// @Summary 消息列表
// @Tags messages
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]model.Message}
// @Router /api/v3/users/{id}/messages [get]
func (h *Handler) ListMessages(c *gin.Context) {
	list, err := h.messages.List(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// SendMessage 按用户消息配置直接写入一条消息
// @Summary 发送消息
// @Tags messages
// @Accept json
// @Param id path string true "用户ID"
// @Param request body sendMessageRequest true "消息"
// @Success 201 {object} response.Response{data=model.Message}
// @Router /api/v3/users/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.messages.Send(ctx(c), c.Param("id"), req.Subject, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

// MarkMessageRead 标记已读
// @Summary 标记已读
// @Tags messages
// @Param id path string true "用户ID"
// @Param messageId path int true "消息ID"
// @Success 200 {object} response.Response{data=model.Message}
// @Router /api/v3/users/{id}/messages/{messageId}/read [put]
func (h *Handler) MarkMessageRead(c *gin.Context) {
	id, ok := uintParam(c, "messageId")
	if !ok {
		return
	}
	m, err := h.messages.MarkRead(ctx(c), c.Param("id"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, m)
}

// DeleteMessage 删除消息
// @Summary 删除消息
// @Tags messages
// @Param id path string true "用户ID"
// @Param messageId path int true "消息ID"
// @Success 204
// @Router /api/v3/users/{id}/messages/{messageId} [delete]
func (h *Handler) DeleteMessage(c *gin.Context) {
	id, ok := uintParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.messages.Delete(ctx(c), c.Param("id"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListDueMessages 待投递消息，供邮件投递方拉取
// @Summary 待投递消息
// @Tags messages
// @Param limit query int false "条数上限" default(1000)
// @Success 200 {object} response.Response{data=[]model.Message}
// @Router /api/v3/messages/due [get]
func (h *Handler) ListDueMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	list, err := h.messages.ListDueToSend(ctx(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// MarkMessageSent 投递方确认已发送
// @Summary 标记已发送
// @Tags messages
// @Param messageId path int true "消息ID"
// @Success 204
// @Router /api/v3/messages/{messageId}/sent [put]
func (h *Handler) MarkMessageSent(c *gin.Context) {
	id, ok := uintParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.messages.MarkSent(ctx(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMessageTemplates 全部模板
// @Summary 模板列表
// @Tags messageTemplates
// @Success 200 {object} response.Response{data=[]model.MessageTemplate}
// @Router /api/v3/messageTemplates [get]
func (h *Handler) ListMessageTemplates(c *gin.Context) {
	list, err := h.templates.List(ctx(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetMessageTemplate 按类型查询模板
// @Summary 查询模板
// @Tags messageTemplates
// @Param type path string true "模板类型"
// @Success 200 {object} response.Response{data=model.MessageTemplate}
// @Failure 404 {object} response.Response
// @Router /api/v3/messageTemplates/{type} [get]
func (h *Handler) GetMessageTemplate(c *gin.Context) {
	t, err := h.templates.Get(ctx(c), model.MessageType(c.Param("type")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// CreateMessageTemplate 新建模板，每种类型一个
// @Summary 新建模板
// @Tags messageTemplates
// @Accept json
// @Param request body createTemplateRequest true "模板"
// @Success 201 {object} response.Response{data=model.MessageTemplate}
// @Failure 409 {object} response.Response
// @Router /api/v3/messageTemplates [post]
func (h *Handler) CreateMessageTemplate(c *gin.Context) {
	var req createTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.templates.Create(ctx(c), req.Type, req.Subject, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateMessageTemplate 修改模板
// @Summary 修改模板
// @Tags messageTemplates
// @Accept json
// @Param type path string true "模板类型"
// @Param request body templateRequest true "模板"
// @Success 200 {object} response.Response{data=model.MessageTemplate}
// @Router /api/v3/messageTemplates/{type} [put]
func (h *Handler) UpdateMessageTemplate(c *gin.Context) {
	var req templateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.templates.Update(ctx(c), model.MessageType(c.Param("type")), req.Subject, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// DeleteMessageTemplate 删除后回退到内置默认模板
// @Summary 删除模板
// @Tags messageTemplates
// @Param type path string true "模板类型"
// @Success 204
// @Router /api/v3/messageTemplates/{type} [delete]
func (h *Handler) DeleteMessageTemplate(c *gin.Context) {
	if err := h.templates.Delete(ctx(c), model.MessageType(c.Param("type"))); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
