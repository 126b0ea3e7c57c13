package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/pkg/response"
)

type consumerGroupRequest struct {
	URI string `json:"uri" binding:"required,absuri,max=2048"`
}

// ListConsumerGroups 全部消费组
// @Summary 消费组列表
// @Tags consumerGroups
// @Success 200 {object} response.Response{data=[]model.ConsumerGroup}
// @Router /api/v3/consumerGroups [get]
func (h *Handler) ListConsumerGroups(c *gin.Context) {
	list, err := h.consumerGroups.List(ctx(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetConsumerGroup 查询消费组
// @Summary 查询消费组
// @Tags consumerGroups
// @Param groupId path int true "消费组ID"
// @Success 200 {object} response.Response{data=model.ConsumerGroup}
// @Router /api/v3/consumerGroups/{groupId} [get]
func (h *Handler) GetConsumerGroup(c *gin.Context) {
	id, ok := uintParam(c, "groupId")
	if !ok {
		return
	}
	g, err := h.consumerGroups.Get(ctx(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, g)
}

// CreateConsumerGroup 新建消费组，URI 唯一
// @Summary 新建消费组
// @Tags consumerGroups
// @Accept json
// @Param request body consumerGroupRequest true "消费组"
// @Success 201 {object} response.Response{data=model.ConsumerGroup}
// @Failure 409 {object} response.Response
// @Router /api/v3/consumerGroups [post]
func (h *Handler) CreateConsumerGroup(c *gin.Context) {
	var req consumerGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.consumerGroups.Create(ctx(c), req.URI)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, g)
}

// UpdateConsumerGroup 修改 URI
// @Summary 修改消费组
// @Tags consumerGroups
// @Accept json
// @Param groupId path int true "消费组ID"
// @Param request body consumerGroupRequest true "消费组"
// @Success 200 {object} response.Response{data=model.ConsumerGroup}
// @Router /api/v3/consumerGroups/{groupId} [put]
func (h *Handler) UpdateConsumerGroup(c *gin.Context) {
	id, ok := uintParam(c, "groupId")
	if !ok {
		return
	}
	var req consumerGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.consumerGroups.Update(ctx(c), id, req.URI)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, g)
}

// DeleteConsumerGroup 删除消费组
// @Summary 删除消费组
// @Tags consumerGroups
// @Param groupId path int true "消费组ID"
// @Success 204
// @Router /api/v3/consumerGroups/{groupId} [delete]
func (h *Handler) DeleteConsumerGroup(c *gin.Context) {
	id, ok := uintParam(c, "groupId")
	if !ok {
		return
	}
	if err := h.consumerGroups.Delete(ctx(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
