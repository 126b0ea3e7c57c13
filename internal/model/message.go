package model

import (
	"time"

	"github.com/d60-Lab/appdata-service/internal/interval"
)

// Message 用户站内消息。ReadOn 为空、SendOn 非空且已到期时待发送；DeleteOn 之后由清理任务删除。
type Message struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         string     `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Subject        string     `json:"subject" gorm:"type:varchar(512)"`
	Body           string     `json:"body" gorm:"type:text"`
	AdditionalInfo string     `json:"additional_info" gorm:"type:text"`
	SendOn         *time.Time `json:"send_on" gorm:"index"`
	ReadOn         *time.Time `json:"read_on"`
	DeleteOn       *time.Time `json:"delete_on" gorm:"index"`
	Auditable
}

func (Message) TableName() string { return "messages" }

// IsDueToSend 判断消息在 now 时刻是否需要投递
func (m *Message) IsDueToSend(now time.Time) bool {
	return m.ReadOn == nil && m.SendOn != nil && !m.SendOn.After(now)
}

// MessageConfig 用户的消息发送/删除间隔（1:1）
type MessageConfig struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	UserID         string            `json:"user_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	SendInterval   interval.Interval `json:"send_interval" gorm:"type:varchar(16);not null"`
	DeleteInterval interval.Interval `json:"delete_interval" gorm:"type:varchar(16);not null"`
	Auditable
}

func (MessageConfig) TableName() string { return "message_configs" }

// DefaultMessageConfig 新用户的默认消息配置
func DefaultMessageConfig(userID string) MessageConfig {
	return MessageConfig{UserID: userID, SendInterval: interval.Weekly, DeleteInterval: interval.Monthly}
}

// MessageType 消息模板类型
type MessageType string

const (
	MessageTypeStoredQueryResult            MessageType = "StoredQueryResult"
	MessageTypeColidEntrySubscriptionUpdate MessageType = "ColidEntrySubscriptionUpdate"
	MessageTypeColidEntrySubscriptionDelete MessageType = "ColidEntrySubscriptionDelete"
)

func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeStoredQueryResult, MessageTypeColidEntrySubscriptionUpdate, MessageTypeColidEntrySubscriptionDelete:
		return true
	}
	return false
}

// MessageTemplate 消息主题/正文模板，正文使用 %s 占位
type MessageTemplate struct {
	ID      uint        `json:"id" gorm:"primaryKey"`
	Type    MessageType `json:"type" gorm:"type:varchar(64);uniqueIndex;not null"`
	Subject string      `json:"subject" gorm:"type:varchar(512)"`
	Body    string      `json:"body" gorm:"type:text"`
	Auditable
}

func (MessageTemplate) TableName() string { return "message_templates" }
