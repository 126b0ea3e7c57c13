package model

// ColidEntrySubscription 用户对目录条目的订阅，(user_id, colid_pid_uri) 唯一
type ColidEntrySubscription struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	UserID      string `json:"user_id" gorm:"type:varchar(36);not null;index:idx_subscription_pair,unique"`
	ColidPidURI string `json:"colid_pid_uri" gorm:"type:varchar(2048);not null;index:idx_subscription_pair,unique;index:idx_subscription_uri"`
	Note        string `json:"note" gorm:"type:text"`
	Auditable
}

func (ColidEntrySubscription) TableName() string { return "colid_entry_subscriptions" }
