package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/validation"
)

// Application 记录最近登录时间的前端应用
type Application string

const (
	AppDataMarketplace Application = "DataMarketplace"
	AppEditor          Application = "Editor"
)

type CreateUserInput struct {
	ID           string
	EmailAddress string
	Department   string
}

// UserService 用户及其一对一附属数据
type UserService interface {
	List(ctx context.Context, page, pageSize int) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, in CreateUserInput) (*model.User, error)
	Delete(ctx context.Context, id string) error
	UpdateEmail(ctx context.Context, id, email string) (*model.User, error)
	UpdateDepartment(ctx context.Context, id, department string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id string, app Application, at *time.Time) (*model.User, error)
	UpdateLastTimeChecked(ctx context.Context, id string, at *time.Time) (*model.User, error)

	GetDefaultConsumerGroup(ctx context.Context, id string) (*model.ConsumerGroup, error)
	SetDefaultConsumerGroup(ctx context.Context, id string, groupID uint) (*model.User, error)
	RemoveDefaultConsumerGroup(ctx context.Context, id string) (*model.User, error)

	GetSearchFilterEditor(ctx context.Context, id string) (*model.SearchFilterEditor, error)
	SetSearchFilterEditor(ctx context.Context, id string, filter json.RawMessage) (*model.SearchFilterEditor, error)
	RemoveSearchFilterEditor(ctx context.Context, id string) error

	GetMessageConfig(ctx context.Context, id string) (*model.MessageConfig, error)
	UpdateMessageConfig(ctx context.Context, id string, send, del interval.Interval) (*model.MessageConfig, error)
}

type userService struct {
	users   repository.UserRepository
	groups  repository.ConsumerGroupRepository
	editors repository.SearchFilterEditorRepository
	configs repository.MessageConfigRepository
	now     func() time.Time
}

func NewUserService(users repository.UserRepository, groups repository.ConsumerGroupRepository,
	editors repository.SearchFilterEditorRepository, configs repository.MessageConfigRepository) UserService {
	return &userService{users: users, groups: groups, editors: editors, configs: configs, now: utcNow}
}

func (s *userService) List(ctx context.Context, page, pageSize int) ([]*model.User, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.users.List(ctx, (page-1)*pageSize, pageSize)
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create 新建用户，同时写入默认消息配置。ID 为空时生成 uuid。
func (s *userService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	} else if _, err := uuid.Parse(in.ID); err != nil {
		return nil, apperr.NewValidationError("id", "must be a uuid")
	}
	if err := validation.Var("email_address", in.EmailAddress, "required,email"); err != nil {
		return nil, err
	}
	u := &model.User{ID: in.ID, EmailAddress: in.EmailAddress, Department: in.Department}
	cfg := model.DefaultMessageConfig(u.ID)
	if err := s.users.Create(ctx, u, &cfg); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

func (s *userService) update(ctx context.Context, id string, fields map[string]any) (*model.User, error) {
	if err := s.users.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *userService) UpdateEmail(ctx context.Context, id, email string) (*model.User, error) {
	if err := validation.Var("email_address", email, "required,email"); err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]any{"email_address": email})
}

func (s *userService) UpdateDepartment(ctx context.Context, id, department string) (*model.User, error) {
	if err := validation.Var("department", department, "max=255"); err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]any{"department": department})
}

// UpdateLastLogin at 为空时取当前时间
func (s *userService) UpdateLastLogin(ctx context.Context, id string, app Application, at *time.Time) (*model.User, error) {
	var column string
	switch app {
	case AppDataMarketplace:
		column = "last_login_data_marketplace"
	case AppEditor:
		column = "last_login_editor"
	default:
		return nil, apperr.NewValidationError("application", "must be DataMarketplace or Editor")
	}
	return s.update(ctx, id, map[string]any{column: s.stamp(at)})
}

func (s *userService) UpdateLastTimeChecked(ctx context.Context, id string, at *time.Time) (*model.User, error) {
	return s.update(ctx, id, map[string]any{"last_time_checked": s.stamp(at)})
}

func (s *userService) stamp(at *time.Time) time.Time {
	if at != nil {
		return interval.Truncate(at.UTC())
	}
	return interval.Truncate(s.now())
}

func (s *userService) GetDefaultConsumerGroup(ctx context.Context, id string) (*model.ConsumerGroup, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.DefaultConsumerGroupID == nil {
		return nil, apperr.NotFound("default consumer group of user", id)
	}
	return s.groups.GetByID(ctx, *u.DefaultConsumerGroupID)
}

func (s *userService) SetDefaultConsumerGroup(ctx context.Context, id string, groupID uint) (*model.User, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]any{"default_consumer_group_id": groupID})
}

func (s *userService) RemoveDefaultConsumerGroup(ctx context.Context, id string) (*model.User, error) {
	return s.update(ctx, id, map[string]any{"default_consumer_group_id": nil})
}

func (s *userService) GetSearchFilterEditor(ctx context.Context, id string) (*model.SearchFilterEditor, error) {
	return s.editors.GetForUser(ctx, id)
}

func (s *userService) SetSearchFilterEditor(ctx context.Context, id string, filter json.RawMessage) (*model.SearchFilterEditor, error) {
	if !json.Valid(filter) {
		return nil, apperr.NewValidationError("filter_json", "must be valid JSON")
	}
	return s.editors.SetForUser(ctx, id, datatypes.JSON(filter))
}

func (s *userService) RemoveSearchFilterEditor(ctx context.Context, id string) error {
	return s.editors.RemoveForUser(ctx, id)
}

func (s *userService) GetMessageConfig(ctx context.Context, id string) (*model.MessageConfig, error) {
	return s.configs.GetByUserID(ctx, id)
}

func (s *userService) UpdateMessageConfig(ctx context.Context, id string, send, del interval.Interval) (*model.MessageConfig, error) {
	if !send.IsValid() {
		return nil, apperr.NewValidationError("send_interval", "unknown interval")
	}
	if !del.IsValid() {
		return nil, apperr.NewValidationError("delete_interval", "unknown interval")
	}
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user", id)
	}
	if err := s.configs.Upsert(ctx, &model.MessageConfig{UserID: id, SendInterval: send, DeleteInterval: del}); err != nil {
		return nil, err
	}
	return s.configs.GetByUserID(ctx, id)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 500 {
		pageSize = 500
	}
	return page, pageSize
}
