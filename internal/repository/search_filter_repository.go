package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/model"
)

// SearchFilterRepository 数据市场检索过滤器及其存储查询
type SearchFilterRepository interface {
	Create(ctx context.Context, f *model.SearchFilterDataMarketplace) error
	GetByID(ctx context.Context, userID string, id uint) (*model.SearchFilterDataMarketplace, error)
	ListByUser(ctx context.Context, userID string) ([]*model.SearchFilterDataMarketplace, error)
	UpdatePidURI(ctx context.Context, id uint, pidURI string) error
	// Delete 删除过滤器及其存储查询，返回被删除的过滤器
	Delete(ctx context.Context, userID string, id uint) (*model.SearchFilterDataMarketplace, error)
	// ListPidURIsByUser 返回用户所有已登记的持久化标识
	ListPidURIsByUser(ctx context.Context, userID string) ([]string, error)

	AttachStoredQuery(ctx context.Context, userID string, filterID uint, q *model.StoredQuery) error
	DetachStoredQuery(ctx context.Context, userID string, filterID uint) error
	ListStoredQueriesByUser(ctx context.Context, userID string) ([]model.StoredQueryWithFilter, error)
	ListStoredQueryIDs(ctx context.Context) ([]uint, error)
	GetStoredQuery(ctx context.Context, queryID uint) (*model.StoredQueryWithFilter, error)
}

type searchFilterRepository struct {
	db *gorm.DB
}

func NewSearchFilterRepository(db *gorm.DB) SearchFilterRepository {
	return &searchFilterRepository{db: db}
}

func (r *searchFilterRepository) Create(ctx context.Context, f *model.SearchFilterDataMarketplace) error {
	return translate(r.db.WithContext(ctx).Create(f).Error, "search filter", f.Name)
}

func (r *searchFilterRepository) GetByID(ctx context.Context, userID string, id uint) (*model.SearchFilterDataMarketplace, error) {
	return getFilter(r.db.WithContext(ctx), userID, id)
}

func getFilter(db *gorm.DB, userID string, id uint) (*model.SearchFilterDataMarketplace, error) {
	var f model.SearchFilterDataMarketplace
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&f).Error; err != nil {
		return nil, translate(err, "search filter", id)
	}
	return &f, nil
}

func (r *searchFilterRepository) ListByUser(ctx context.Context, userID string) ([]*model.SearchFilterDataMarketplace, error) {
	var res []*model.SearchFilterDataMarketplace
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&res).Error
	return res, err
}

func (r *searchFilterRepository) UpdatePidURI(ctx context.Context, id uint, pidURI string) error {
	res := r.db.WithContext(ctx).Model(&model.SearchFilterDataMarketplace{}).Where("id = ?", id).Update("pid_uri", pidURI)
	return requireAffected(res, "search filter", id)
}

func (r *searchFilterRepository) Delete(ctx context.Context, userID string, id uint) (*model.SearchFilterDataMarketplace, error) {
	var deleted *model.SearchFilterDataMarketplace
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := getFilter(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&model.SearchFilterDataMarketplace{}, f.ID).Error; err != nil {
			return err
		}
		if f.StoredQueryID != nil {
			if err := tx.Delete(&model.StoredQuery{}, *f.StoredQueryID).Error; err != nil {
				return err
			}
		}
		deleted = f
		return nil
	})
	return deleted, err
}

func (r *searchFilterRepository) ListPidURIsByUser(ctx context.Context, userID string) ([]string, error) {
	var uris []string
	err := r.db.WithContext(ctx).Model(&model.SearchFilterDataMarketplace{}).
		Where("user_id = ? AND pid_uri IS NOT NULL", userID).
		Pluck("pid_uri", &uris).Error
	return uris, err
}

// AttachStoredQuery 过滤器已有存储查询时返回 ErrConflict
func (r *searchFilterRepository) AttachStoredQuery(ctx context.Context, userID string, filterID uint, q *model.StoredQuery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := getFilter(tx, userID, filterID)
		if err != nil {
			return err
		}
		if f.StoredQueryID != nil {
			return apperr.Conflict("search filter %d already has a stored query", filterID)
		}
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		return tx.Model(&model.SearchFilterDataMarketplace{}).Where("id = ?", f.ID).Update("stored_query_id", q.ID).Error
	})
}

func (r *searchFilterRepository) DetachStoredQuery(ctx context.Context, userID string, filterID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := getFilter(tx, userID, filterID)
		if err != nil {
			return err
		}
		if f.StoredQueryID == nil {
			return apperr.NotFound("stored query of search filter", filterID)
		}
		if err := tx.Model(&model.SearchFilterDataMarketplace{}).Where("id = ?", f.ID).Update("stored_query_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.StoredQuery{}, *f.StoredQueryID).Error
	})
}

func (r *searchFilterRepository) ListStoredQueriesByUser(ctx context.Context, userID string) ([]model.StoredQueryWithFilter, error) {
	var filters []model.SearchFilterDataMarketplace
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND stored_query_id IS NOT NULL", userID).
		Order("id").
		Find(&filters).Error; err != nil {
		return nil, err
	}
	return r.joinQueries(ctx, filters)
}

func (r *searchFilterRepository) ListStoredQueryIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.StoredQuery{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *searchFilterRepository) GetStoredQuery(ctx context.Context, queryID uint) (*model.StoredQueryWithFilter, error) {
	var q model.StoredQuery
	if err := r.db.WithContext(ctx).First(&q, queryID).Error; err != nil {
		return nil, translate(err, "stored query", queryID)
	}
	var f model.SearchFilterDataMarketplace
	if err := r.db.WithContext(ctx).Where("stored_query_id = ?", queryID).First(&f).Error; err != nil {
		return nil, translate(err, "search filter of stored query", queryID)
	}
	return &model.StoredQueryWithFilter{Query: q, Filter: f}, nil
}

func (r *searchFilterRepository) joinQueries(ctx context.Context, filters []model.SearchFilterDataMarketplace) ([]model.StoredQueryWithFilter, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(filters))
	for _, f := range filters {
		ids = append(ids, *f.StoredQueryID)
	}
	var queries []model.StoredQuery
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&queries).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.StoredQuery, len(queries))
	for _, q := range queries {
		byID[q.ID] = q
	}
	res := make([]model.StoredQueryWithFilter, 0, len(filters))
	for _, f := range filters {
		if q, ok := byID[*f.StoredQueryID]; ok {
			res = append(res, model.StoredQueryWithFilter{Query: q, Filter: f})
		}
	}
	return res, nil
}
