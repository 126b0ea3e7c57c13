package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/pkg/response"
)

type favoritesListRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type favoritesEntryRequest struct {
	PidURI       string `json:"pid_uri" binding:"required,absuri"`
	PersonalNote string `json:"personal_note"`
}

// ListFavorites 收藏夹及条目
// @Summary 收藏夹列表
// @Tags favorites
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]model.FavoritesListWithEntries}
// @Router /api/v3/users/{id}/favoritesLists [get]
func (h *Handler) ListFavorites(c *gin.Context) {
	list, err := h.favorites.List(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// CreateFavoritesList 新建收藏夹
// @Summary 新建收藏夹
// @Tags favorites
// @Accept json
// @Param id path string true "用户ID"
// @Param request body favoritesListRequest true "名称"
// @Success 201 {object} response.Response{data=model.FavoritesListWithEntries}
// @Router /api/v3/users/{id}/favoritesLists [post]
func (h *Handler) CreateFavoritesList(c *gin.Context) {
	var req favoritesListRequest
	if !bindJSON(c, &req) {
		return
	}
	l, err := h.favorites.Create(ctx(c), c.Param("id"), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, l)
}

// RenameFavoritesList 重命名
// @Summary 重命名收藏夹
// @Tags favorites
// @Accept json
// @Param id path string true "用户ID"
// @Param listId path int true "收藏夹ID"
// @Param request body favoritesListRequest true "名称"
// @Success 200 {object} response.Response{data=model.FavoritesListWithEntries}
// @Router /api/v3/users/{id}/favoritesLists/{listId} [put]
func (h *Handler) RenameFavoritesList(c *gin.Context) {
	id, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	var req favoritesListRequest
	if !bindJSON(c, &req) {
		return
	}
	l, err := h.favorites.Rename(ctx(c), c.Param("id"), id, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, l)
}

// DeleteFavoritesList 删除收藏夹及条目
// @Summary 删除收藏夹
// @Tags favorites
// @Param id path string true "用户ID"
// @Param listId path int true "收藏夹ID"
// @Success 204
// @Router /api/v3/users/{id}/favoritesLists/{listId} [delete]
func (h *Handler) DeleteFavoritesList(c *gin.Context) {
	id, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	if err := h.favorites.Delete(ctx(c), c.Param("id"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddFavoritesEntry 添加条目
// @Summary 添加收藏条目
// @Tags favorites
// @Accept json
// @Param id path string true "用户ID"
// @Param listId path int true "收藏夹ID"
// @Param request body favoritesEntryRequest true "条目"
// @Success 201 {object} response.Response{data=model.FavoritesListWithEntries}
// @Failure 409 {object} response.Response
// @Router /api/v3/users/{id}/favoritesLists/{listId}/entries [post]
func (h *Handler) AddFavoritesEntry(c *gin.Context) {
	id, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	var req favoritesEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	l, err := h.favorites.AddEntry(ctx(c), c.Param("id"), id, req.PidURI, req.PersonalNote)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, l)
}

// RemoveFavoritesEntry 移除条目，条目 URI 通过查询参数传递
// @Summary 移除收藏条目
// @Tags favorites
// @Param id path string true "用户ID"
// @Param listId path int true "收藏夹ID"
// @Param pid_uri query string true "条目 URI"
// @Success 204
// @Router /api/v3/users/{id}/favoritesLists/{listId}/entries [delete]
func (h *Handler) RemoveFavoritesEntry(c *gin.Context) {
	id, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	if err := h.favorites.RemoveEntry(ctx(c), c.Param("id"), id, c.Query("pid_uri")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
