package model

import "time"

// Auditable 创建/修改时间，由 gorm 自动维护；各实体以嵌入方式复用
type Auditable struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
