package model

import "time"

// User 聚合根：消息、消息配置、搜索过滤器（含存储查询）、订阅、收藏夹都通过 user_id 归属于它。
// 默认消费组与编辑器过滤器是弱引用，被引用对象删除时置空。
type User struct {
	ID                       string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EmailAddress             string     `json:"email_address" gorm:"type:varchar(320);index"`
	Department               string     `json:"department" gorm:"type:varchar(255)"`
	LastLoginDataMarketplace *time.Time `json:"last_login_data_marketplace"`
	LastLoginEditor          *time.Time `json:"last_login_editor"`
	LastTimeChecked          *time.Time `json:"last_time_checked"`
	DefaultConsumerGroupID   *uint      `json:"default_consumer_group_id" gorm:"index"`
	SearchFilterEditorID     *uint      `json:"search_filter_editor_id"`
	Auditable
}

func (User) TableName() string { return "users" }

// ConsumerGroup 消费组，以 URI 标识
type ConsumerGroup struct {
	ID  uint   `json:"id" gorm:"primaryKey"`
	URI string `json:"uri" gorm:"type:varchar(2048);uniqueIndex;not null"`
	Auditable
}

func (ConsumerGroup) TableName() string { return "consumer_groups" }
