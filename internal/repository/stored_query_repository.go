package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/model"
)

// StoredQueryRepository 存储查询评估结果的落地
type StoredQueryRepository interface {
	// SaveEvaluation 在一个事务内更新查询状态并写入（可选的）通知消息。
	// 仅当库中的 latest_execution_date 仍等于 prior 时才更新；已被并发评估抢先时
	// 返回 false 且不写消息。查询不存在返回 ErrNotFound。
	SaveEvaluation(ctx context.Context, q *model.StoredQuery, prior *time.Time, msg *model.Message) (bool, error)
}

type storedQueryRepository struct {
	db *gorm.DB
}

func NewStoredQueryRepository(db *gorm.DB) StoredQueryRepository {
	return &storedQueryRepository{db: db}
}

func (r *storedQueryRepository) SaveEvaluation(ctx context.Context, q *model.StoredQuery, prior *time.Time, msg *model.Message) (bool, error) {
	saved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt := tx.Model(&model.StoredQuery{}).Where("id = ?", q.ID)
		if prior == nil {
			stmt = stmt.Where("latest_execution_date IS NULL")
		} else {
			stmt = stmt.Where("latest_execution_date = ?", *prior)
		}
		res := stmt.Updates(map[string]any{
			"number_search_results": q.NumberSearchResults,
			"search_result_hash":    q.SearchResultHash,
			"latest_execution_date": q.LatestExecutionDate,
		})
		if res.Error != nil {
			return translate(res.Error, "stored query", q.ID)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&model.StoredQuery{}).Where("id = ?", q.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return apperr.NotFound("stored query", q.ID)
			}
			return nil
		}
		if msg != nil {
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}
		saved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}
