package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/validation"
	"github.com/d60-Lab/appdata-service/pkg/response"
)

var errDirectoryDisabled = apperr.Upstream("directory", errors.New("not configured"))

// GetDirectoryUser 按 id 或邮箱查询目录用户
// @Summary 目录用户
// @Tags activeDirectory
// @Param id path string true "用户 id 或邮箱"
// @Success 200 {object} response.Response{data=directory.User}
// @Failure 404 {object} response.Response
// @Router /api/v3/activeDirectory/users/{id} [get]
func (h *Handler) GetDirectoryUser(c *gin.Context) {
	if h.directory == nil {
		response.Error(c, errDirectoryDisabled)
		return
	}
	u, err := h.directory.GetUser(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// SearchDirectory 按前缀检索用户与组
// @Summary 目录检索
// @Tags activeDirectory
// @Param q query string true "检索词"
// @Success 200 {object} response.Response{data=[]directory.Entity}
// @Router /api/v3/activeDirectory/search [get]
func (h *Handler) SearchDirectory(c *gin.Context) {
	if h.directory == nil {
		response.Error(c, errDirectoryDisabled)
		return
	}
	q := c.Query("q")
	if err := validation.Var("q", q, "required,min=2"); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.directory.Search(ctx(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
