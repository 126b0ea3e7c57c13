package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/internal/metrics"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/pkg/response"
)

type subscriptionRequest struct {
	ColidPidURI string `json:"colid_pid_uri" binding:"required,absuri"`
	Note        string `json:"note"`
}

type entryEventRequest struct {
	ColidPidURI string `json:"colid_pid_uri" binding:"required,absuri"`
	Label       string `json:"label"`
}

// ListSubscriptions 用户订阅
// @Summary 订阅列表
// @Tags subscriptions
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]model.ColidEntrySubscription}
// @Router /api/v3/users/{id}/colidEntrySubscriptions [get]
func (h *Handler) ListSubscriptions(c *gin.Context) {
	list, err := h.subscriptions.List(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Subscribe 订阅目录条目
// @Summary 订阅
// @Tags subscriptions
// @Accept json
// @Param id path string true "用户ID"
// @Param request body subscriptionRequest true "条目"
// @Success 201 {object} response.Response{data=model.ColidEntrySubscription}
// @Failure 409 {object} response.Response
// @Router /api/v3/users/{id}/colidEntrySubscriptions [post]
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptions.Subscribe(ctx(c), c.Param("id"), req.ColidPidURI, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Unsubscribe 取消订阅；条目 URI 通过请求体传递
// @Summary 取消订阅
// @Tags subscriptions
// @Accept json
// @Param id path string true "用户ID"
// @Param request body subscriptionRequest true "条目"
// @Success 204
// @Failure 404 {object} response.Response
// @Router /api/v3/users/{id}/colidEntrySubscriptions [delete]
func (h *Handler) Unsubscribe(c *gin.Context) {
	var req subscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.subscriptions.Unsubscribe(ctx(c), c.Param("id"), req.ColidPidURI); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CountSubscribers 条目订阅数
// @Summary 订阅数
// @Tags subscriptions
// @Param pid_uri query string true "条目 URI"
// @Success 200 {object} response.Response
// @Router /api/v3/colidEntrySubscriptions/subscribers [get]
func (h *Handler) CountSubscribers(c *gin.Context) {
	uri := c.Query("pid_uri")
	n, err := h.subscriptions.CountSubscribers(ctx(c), uri)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"pid_uri": uri, "subscribers": n})
}

// NotifyEntryUpdated 条目更新，给订阅者写消息
// @Summary 条目更新通知
// @Tags subscriptions
// @Accept json
// @Param request body entryEventRequest true "条目"
// @Success 200 {object} response.Response
// @Router /api/v3/colidEntrySubscriptions/notifyUpdated [post]
func (h *Handler) NotifyEntryUpdated(c *gin.Context) {
	var req entryEventRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.notifier.NotifyEntryUpdated(ctx(c), req.ColidPidURI, req.Label)
	metrics.RecordDispatched(string(model.MessageTypeColidEntrySubscriptionUpdate), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"messages": n})
}

// NotifyEntryDeleted 条目删除，通知后移除全部订阅
// @Summary 条目删除通知
// @Tags subscriptions
// @Accept json
// @Param request body entryEventRequest true "条目"
// @Success 200 {object} response.Response
// @Router /api/v3/colidEntrySubscriptions/notifyDeleted [post]
func (h *Handler) NotifyEntryDeleted(c *gin.Context) {
	var req entryEventRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.notifier.NotifyEntryDeleted(ctx(c), req.ColidPidURI, req.Label)
	metrics.RecordDispatched(string(model.MessageTypeColidEntrySubscriptionDelete), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"messages": n})
}
