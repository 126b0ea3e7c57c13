package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/apperr"
)

// translate 把 gorm/驱动错误映射为 apperr 分类
func translate(err error, entity string, key any) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity, key)
	case isDuplicate(err):
		return apperr.Conflict("%s %v already exists", entity, key)
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// requireAffected 更新/删除未命中任何行时返回 NotFound
func requireAffected(res *gorm.DB, entity string, key any) error {
	if res.Error != nil {
		return translate(res.Error, entity, key)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(entity, key)
	}
	return nil
}
