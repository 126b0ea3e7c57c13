package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/d60-Lab/appdata-service/internal/interval"
)

// SearchFilterEditor 编辑器端保存的默认过滤条件（不透明 JSON）
type SearchFilterEditor struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	FilterJSON datatypes.JSON `json:"filter_json"`
	Auditable
}

func (SearchFilterEditor) TableName() string { return "search_filter_editors" }

// SearchFilterDataMarketplace 用户保存的检索；可选挂一个 StoredQuery（1:1）
type SearchFilterDataMarketplace struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        string         `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null"`
	SearchTerm    string         `json:"search_term" gorm:"type:text"`
	FilterJSON    datatypes.JSON `json:"filter_json"`
	PidURI        *string        `json:"pid_uri" gorm:"type:varchar(2048)"`
	StoredQueryID *uint          `json:"stored_query_id" gorm:"uniqueIndex"`
	Auditable
}

func (SearchFilterDataMarketplace) TableName() string { return "search_filters_data_marketplace" }

// StoredQuery 周期性重新执行的检索状态。LatestExecutionDate 为空表示尚未执行过。
type StoredQuery struct {
	ID                  uint              `json:"id" gorm:"primaryKey"`
	ExecutionInterval   interval.Interval `json:"execution_interval" gorm:"type:varchar(16);not null"`
	NumberSearchResults int               `json:"number_search_results"`
	SearchResultHash    string            `json:"search_result_hash" gorm:"type:varchar(64)"`
	LatestExecutionDate *time.Time        `json:"latest_execution_date"`
	Auditable
}

func (StoredQuery) TableName() string { return "stored_queries" }

// StoredQueryWithFilter 查询扫描时按需 join 出的存储查询及其所属过滤器
type StoredQueryWithFilter struct {
	Query  StoredQuery
	Filter SearchFilterDataMarketplace
}
