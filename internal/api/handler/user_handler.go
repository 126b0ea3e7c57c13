package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/service"
	"github.com/d60-Lab/appdata-service/pkg/response"
)

type createUserRequest struct {
	ID           string `json:"id" binding:"omitempty,uuid"`
	EmailAddress string `json:"email_address" binding:"required,email,max=320"`
	Department   string `json:"department" binding:"max=255"`
}

type emailRequest struct {
	EmailAddress string `json:"email_address" binding:"required,email,max=320"`
}

type departmentRequest struct {
	Department string `json:"department" binding:"max=255"`
}

// timeRequest At 为空时使用当前时间
type timeRequest struct {
	At *time.Time `json:"at"`
}

type consumerGroupRefRequest struct {
	ConsumerGroupID uint `json:"consumer_group_id" binding:"required"`
}

type messageConfigRequest struct {
	SendInterval   interval.Interval `json:"send_interval" binding:"required,interval"`
	DeleteInterval interval.Interval `json:"delete_interval" binding:"required,interval"`
}

// ListUsers 用户列表
// @Summary 用户列表
// @Tags users
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(50)
// @Success 200 {object} response.Response{data=[]model.User}
// @Router /api/v3/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	list, err := h.users.List(ctx(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetUser 查询用户
// @Summary 查询用户
// @Tags users
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 404 {object} response.Response
// @Router /api/v3/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.users.Get(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// CreateUser 创建用户，同时创建默认消息配置
// @Summary 创建用户
// @Tags users
// @Accept json
// @Produce json
// @Param request body createUserRequest true "用户"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v3/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Create(ctx(c), service.CreateUserInput{
		ID:           req.ID,
		EmailAddress: req.EmailAddress,
		Department:   req.Department,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}

// DeleteUser 删除用户及其全部从属数据
// @Summary 删除用户
// @Tags users
// @Param id path string true "用户ID"
// @Success 204
// @Failure 404 {object} response.Response
// @Router /api/v3/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(ctx(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateEmail 修改邮箱
// @Summary 修改邮箱
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "用户ID"
// @Param request body emailRequest true "邮箱"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v3/users/{id}/emailAddress [put]
func (h *Handler) UpdateEmail(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.UpdateEmail(ctx(c), c.Param("id"), req.EmailAddress)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// UpdateDepartment 修改部门
// @Summary 修改部门
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "用户ID"
// @Param request body departmentRequest true "部门"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v3/users/{id}/department [put]
func (h *Handler) UpdateDepartment(c *gin.Context) {
	var req departmentRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.UpdateDepartment(ctx(c), c.Param("id"), req.Department)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// UpdateLastLoginDataMarketplace 记录数据市场登录时间
// @Summary 记录数据市场登录时间
// @Tags users
// @Accept json
// @Param id path string true "用户ID"
// @Param request body timeRequest false "时间，缺省为当前时间"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v3/users/{id}/lastLoginDataMarketplace [put]
func (h *Handler) UpdateLastLoginDataMarketplace(c *gin.Context) {
	h.updateLastLogin(c, service.AppDataMarketplace)
}

// UpdateLastLoginEditor 记录编辑器登录时间
// @Summary 记录编辑器登录时间
// @Tags users
// @Accept json
// @Param id path string true "用户ID"
// @Param request body timeRequest false "时间，缺省为当前时间"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v3/users/{id}/lastLoginEditor [put]
func (h *Handler) UpdateLastLoginEditor(c *gin.Context) {
	h.updateLastLogin(c, service.AppEditor)
}

func (h *Handler) updateLastLogin(c *gin.Context, app service.Application) {
	at, ok := optionalTime(c)
	if !ok {
		return
	}
	u, err := h.users.UpdateLastLogin(ctx(c), c.Param("id"), app, at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// UpdateLastTimeChecked 记录用户最后查看时间
// @Summary 记录最后查看时间
// @Tags users
// @Accept json
// @Param id path string true "用户ID"
// @Param request body timeRequest false "时间，缺省为当前时间"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v3/users/{id}/lastTimeChecked [put]
func (h *Handler) UpdateLastTimeChecked(c *gin.Context) {
	at, ok := optionalTime(c)
	if !ok {
		return
	}
	u, err := h.users.UpdateLastTimeChecked(ctx(c), c.Param("id"), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// optionalTime 允许空请求体
func optionalTime(c *gin.Context) (*time.Time, bool) {
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	var req timeRequest
	if !bindJSON(c, &req) {
		return nil, false
	}
	return req.At, true
}

// GetDefaultConsumerGroup 查询默认消费组
// @Summary 查询默认消费组
// @Tags users
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.ConsumerGroup}
// @Failure 404 {object} response.Response
// @Router /api/v3/users/{id}/defaultConsumerGroup [get]
func (h *Handler) GetDefaultConsumerGroup(c *gin.Context) {
	g, err := h.users.GetDefaultConsumerGroup(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, g)
}

// SetDefaultConsumerGroup 设置默认消费组
// @Summary 设置默认消费组
// @Tags users
// @Accept json
// @Param id path string true "用户ID"
// @Param request body consumerGroupRefRequest true "消费组"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v3/users/{id}/defaultConsumerGroup [put]
func (h *Handler) SetDefaultConsumerGroup(c *gin.Context) {
	var req consumerGroupRefRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.SetDefaultConsumerGroup(ctx(c), c.Param("id"), req.ConsumerGroupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// RemoveDefaultConsumerGroup 清除默认消费组
// @Summary 清除默认消费组
// @Tags users
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v3/users/{id}/defaultConsumerGroup [delete]
func (h *Handler) RemoveDefaultConsumerGroup(c *gin.Context) {
	u, err := h.users.RemoveDefaultConsumerGroup(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// GetSearchFilterEditor 查询编辑器过滤条件
// @Summary 查询编辑器过滤条件
// @Tags users
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.SearchFilterEditor}
// @Router /api/v3/users/{id}/searchFilterEditor [get]
func (h *Handler) GetSearchFilterEditor(c *gin.Context) {
	f, err := h.users.GetSearchFilterEditor(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, f)
}

// SetSearchFilterEditor 请求体即过滤条件 JSON，原样保存
// @Summary 保存编辑器过滤条件
// @Tags users
// @Accept json
// @Param id path string true "用户ID"
// @Param request body object true "过滤条件"
// @Success 200 {object} response.Response{data=model.SearchFilterEditor}
// @Router /api/v3/users/{id}/searchFilterEditor [put]
func (h *Handler) SetSearchFilterEditor(c *gin.Context) {
	var raw json.RawMessage
	if !bindJSON(c, &raw) {
		return
	}
	f, err := h.users.SetSearchFilterEditor(ctx(c), c.Param("id"), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, f)
}

// RemoveSearchFilterEditor 删除编辑器过滤条件
// @Summary 删除编辑器过滤条件
// @Tags users
// @Param id path string true "用户ID"
// @Success 204
// @Router /api/v3/users/{id}/searchFilterEditor [delete]
func (h *Handler) RemoveSearchFilterEditor(c *gin.Context) {
	if err := h.users.RemoveSearchFilterEditor(ctx(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetMessageConfig 查询消息配置
// @Summary 查询消息配置
// @Tags messages
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.MessageConfig}
// @Router /api/v3/users/{id}/messageConfig [get]
func (h *Handler) GetMessageConfig(c *gin.Context) {
	cfg, err := h.users.GetMessageConfig(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}

// UpdateMessageConfig 修改消息发送/删除间隔
// @Summary 修改消息配置
// @Tags messages
// @Accept json
// @Param id path string true "用户ID"
// @Param request body messageConfigRequest true "间隔"
// @Success 200 {object} response.Response{data=model.MessageConfig}
// @Failure 400 {object} response.Response
// @Router /api/v3/users/{id}/messageConfig [put]
func (h *Handler) UpdateMessageConfig(c *gin.Context) {
	var req messageConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.users.UpdateMessageConfig(ctx(c), c.Param("id"), req.SendInterval, req.DeleteInterval)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}
