package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/service"
	"github.com/d60-Lab/appdata-service/pkg/response"
)

type createSearchFilterRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	SearchTerm  string          `json:"search_term"`
	FilterJSON  json.RawMessage `json:"filter_json"`
	RegisterPID bool            `json:"register_pid"`
}

type storedQueryRequest struct {
	SearchFilterID    uint              `json:"search_filter_id" binding:"required"`
	ExecutionInterval interval.Interval `json:"execution_interval" binding:"required,interval"`
}

// ListSearchFilters 用户保存的检索
// @Summary 保存的检索列表
// @Tags searchFilters
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]model.SearchFilterDataMarketplace}
// @Router /api/v3/users/{id}/searchFiltersDataMarketplace [get]
func (h *Handler) ListSearchFilters(c *gin.Context) {
	list, err := h.searchFilters.List(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetSearchFilter 查询单个保存的检索
// @Summary 查询保存的检索
// @Tags searchFilters
// @Param id path string true "用户ID"
// @Param filterId path int true "检索ID"
// @Success 200 {object} response.Response{data=model.SearchFilterDataMarketplace}
// @Failure 404 {object} response.Response
// @Router /api/v3/users/{id}/searchFiltersDataMarketplace/{filterId} [get]
func (h *Handler) GetSearchFilter(c *gin.Context) {
	id, ok := uintParam(c, "filterId")
	if !ok {
		return
	}
	f, err := h.searchFilters.Get(ctx(c), c.Param("id"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, f)
}

// CreateSearchFilter 保存检索，register_pid 为 true 时申请 PID
// @Summary 保存检索
// @Tags searchFilters
// @Accept json
// @Param id path string true "用户ID"
// @Param request body createSearchFilterRequest true "检索"
// @Success 201 {object} response.Response{data=model.SearchFilterDataMarketplace}
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v3/users/{id}/searchFiltersDataMarketplace [post]
func (h *Handler) CreateSearchFilter(c *gin.Context) {
	var req createSearchFilterRequest
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.searchFilters.Create(ctx(c), c.Param("id"), service.CreateSearchFilterInput{
		Name:        req.Name,
		SearchTerm:  req.SearchTerm,
		FilterJSON:  req.FilterJSON,
		RegisterPID: req.RegisterPID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, f)
}

// DeleteSearchFilter 删除检索及其存储查询
// @Summary 删除保存的检索
// @Tags searchFilters
// @Param id path string true "用户ID"
// @Param filterId path int true "检索ID"
// @Success 204
// @Router /api/v3/users/{id}/searchFiltersDataMarketplace/{filterId} [delete]
func (h *Handler) DeleteSearchFilter(c *gin.Context) {
	id, ok := uintParam(c, "filterId")
	if !ok {
		return
	}
	if err := h.searchFilters.Delete(ctx(c), c.Param("id"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSearchFilterPidURIs 用户已注册 PID 的检索
// @Summary 检索 PID 列表
// @Tags searchFilters
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]string}
// @Router /api/v3/users/{id}/searchFiltersDataMarketplace/pidUris [get]
func (h *Handler) ListSearchFilterPidURIs(c *gin.Context) {
	uris, err := h.searchFilters.ListPidURIs(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, uris)
}

// ListStoredQueries 用户的存储查询
// @Summary 存储查询列表
// @Tags storedQueries
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response
// @Router /api/v3/users/{id}/storedQueries [get]
func (h *Handler) ListStoredQueries(c *gin.Context) {
	list, err := h.searchFilters.ListStoredQueries(ctx(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, sq := range list {
		out = append(out, gin.H{"stored_query": sq.Query, "search_filter": sq.Filter})
	}
	response.Success(c, out)
}

// AddStoredQuery 为检索挂上存储查询
// @Summary 添加存储查询
// @Tags storedQueries
// @Accept json
// @Param id path string true "用户ID"
// @Param request body storedQueryRequest true "检索与间隔"
// @Success 201 {object} response.Response{data=model.StoredQuery}
// @Failure 409 {object} response.Response
// @Router /api/v3/users/{id}/storedQueries [post]
func (h *Handler) AddStoredQuery(c *gin.Context) {
	var req storedQueryRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.searchFilters.AddStoredQuery(ctx(c), c.Param("id"), req.SearchFilterID, req.ExecutionInterval)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, q)
}

// RemoveStoredQuery 移除检索上的存储查询
// @Summary 移除存储查询
// @Tags storedQueries
// @Param id path string true "用户ID"
// @Param filterId path int true "检索ID"
// @Success 204
// @Router /api/v3/users/{id}/storedQueries/{filterId} [delete]
func (h *Handler) RemoveStoredQuery(c *gin.Context) {
	id, ok := uintParam(c, "filterId")
	if !ok {
		return
	}
	if err := h.searchFilters.RemoveStoredQuery(ctx(c), c.Param("id"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExecuteStoredQueries 立即扫描全部存储查询（只处理到期的）
// @Summary 手动执行存储查询
// @Tags storedQueries
// @Success 200 {object} response.Response{data=service.SweepResult}
// @Router /api/v3/storedQueries/execute [post]
func (h *Handler) ExecuteStoredQueries(c *gin.Context) {
	res, err := h.sweeper.Sweep(ctx(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
