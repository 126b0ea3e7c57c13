package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client/registration"
	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

// Registrar 为保存的检索申请/注销 PID
type Registrar interface {
	Register(ctx context.Context, f registration.Filter) (string, error)
	Unregister(ctx context.Context, pidURI string) error
}

type CreateSearchFilterInput struct {
	Name       string
	SearchTerm string
	FilterJSON json.RawMessage
	// RegisterPID 为 true 时向注册服务申请 PID
	RegisterPID bool
}

type SearchFilterService interface {
	List(ctx context.Context, userID string) ([]*model.SearchFilterDataMarketplace, error)
	Get(ctx context.Context, userID string, id uint) (*model.SearchFilterDataMarketplace, error)
	Create(ctx context.Context, userID string, in CreateSearchFilterInput) (*model.SearchFilterDataMarketplace, error)
	// Delete 同时删除存储查询，并注销 PID（注销失败只记日志）
	Delete(ctx context.Context, userID string, id uint) error
	ListPidURIs(ctx context.Context, userID string) ([]string, error)

	ListStoredQueries(ctx context.Context, userID string) ([]model.StoredQueryWithFilter, error)
	AddStoredQuery(ctx context.Context, userID string, filterID uint, iv interval.Interval) (*model.StoredQuery, error)
	RemoveStoredQuery(ctx context.Context, userID string, filterID uint) error
}

type searchFilterService struct {
	users     repository.UserRepository
	filters   repository.SearchFilterRepository
	registrar Registrar
}

// NewSearchFilterService registrar 为 nil 时不支持申请 PID
func NewSearchFilterService(users repository.UserRepository, filters repository.SearchFilterRepository, registrar Registrar) SearchFilterService {
	return &searchFilterService{users: users, filters: filters, registrar: registrar}
}

func (s *searchFilterService) requireUser(ctx context.Context, userID string) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user", userID)
	}
	return nil
}

func (s *searchFilterService) List(ctx context.Context, userID string) ([]*model.SearchFilterDataMarketplace, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.filters.ListByUser(ctx, userID)
}

func (s *searchFilterService) Get(ctx context.Context, userID string, id uint) (*model.SearchFilterDataMarketplace, error) {
	return s.filters.GetByID(ctx, userID, id)
}

func (s *searchFilterService) Create(ctx context.Context, userID string, in CreateSearchFilterInput) (*model.SearchFilterDataMarketplace, error) {
	if in.Name == "" {
		return nil, apperr.NewValidationError("name", "is required")
	}
	if len(in.FilterJSON) == 0 {
		in.FilterJSON = json.RawMessage(`{}`)
	}
	if !json.Valid(in.FilterJSON) {
		return nil, apperr.NewValidationError("filter_json", "must be valid JSON")
	}
	if in.RegisterPID && s.registrar == nil {
		return nil, apperr.NewValidationError("register_pid", "registration service is not configured")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	f := &model.SearchFilterDataMarketplace{
		UserID:     userID,
		Name:       in.Name,
		SearchTerm: in.SearchTerm,
		FilterJSON: datatypes.JSON(in.FilterJSON),
	}
	if err := s.filters.Create(ctx, f); err != nil {
		return nil, err
	}
	if !in.RegisterPID {
		return f, nil
	}

	pid, err := s.registrar.Register(ctx, registration.Filter{
		Name:       f.Name,
		SearchTerm: f.SearchTerm,
		FilterJSON: f.FilterJSON,
		Owner:      userID,
	})
	if err == nil {
		err = s.filters.UpdatePidURI(ctx, f.ID, pid)
	}
	if err != nil {
		// 没拿到 PID 的过滤器不保留
		if _, delErr := s.filters.Delete(ctx, userID, f.ID); delErr != nil {
			logger.Error("rollback search filter failed", zap.Uint("filter_id", f.ID), zap.Error(delErr))
		}
		return nil, err
	}
	f.PidURI = &pid
	return f, nil
}

func (s *searchFilterService) Delete(ctx context.Context, userID string, id uint) error {
	f, err := s.filters.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if f.PidURI != nil && s.registrar != nil {
		if err := s.registrar.Unregister(ctx, *f.PidURI); err != nil {
			logger.Warn("unregister search filter pid failed", zap.String("pid_uri", *f.PidURI), zap.Error(err))
		}
	}
	return nil
}

func (s *searchFilterService) ListPidURIs(ctx context.Context, userID string) ([]string, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.filters.ListPidURIsByUser(ctx, userID)
}

func (s *searchFilterService) ListStoredQueries(ctx context.Context, userID string) ([]model.StoredQueryWithFilter, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	res, err := s.filters.ListStoredQueriesByUser(ctx, userID)
	if res == nil && err == nil {
		res = []model.StoredQueryWithFilter{}
	}
	return res, err
}

// AddStoredQuery 新查询尚未执行，首次扫描即到期
func (s *searchFilterService) AddStoredQuery(ctx context.Context, userID string, filterID uint, iv interval.Interval) (*model.StoredQuery, error) {
	if !iv.IsValid() {
		return nil, apperr.NewValidationError("execution_interval", "unknown interval")
	}
	q := &model.StoredQuery{ExecutionInterval: iv}
	if err := s.filters.AttachStoredQuery(ctx, userID, filterID, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *searchFilterService) RemoveStoredQuery(ctx context.Context, userID string, filterID uint) error {
	return s.filters.DetachStoredQuery(ctx, userID, filterID)
}
