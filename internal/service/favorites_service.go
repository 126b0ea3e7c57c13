package service

import (
	"context"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/validation"
)

type FavoritesService interface {
	List(ctx context.Context, userID string) ([]*model.FavoritesListWithEntries, error)
	Create(ctx context.Context, userID, name string) (*model.FavoritesListWithEntries, error)
	Rename(ctx context.Context, userID string, id uint, name string) (*model.FavoritesListWithEntries, error)
	Delete(ctx context.Context, userID string, id uint) error
	AddEntry(ctx context.Context, userID string, listID uint, pidURI, note string) (*model.FavoritesListWithEntries, error)
	RemoveEntry(ctx context.Context, userID string, listID uint, pidURI string) error
}

type favoritesService struct {
	users repository.UserRepository
	repo  repository.FavoritesRepository
}

func NewFavoritesService(users repository.UserRepository, repo repository.FavoritesRepository) FavoritesService {
	return &favoritesService{users: users, repo: repo}
}

func (s *favoritesService) List(ctx context.Context, userID string) ([]*model.FavoritesListWithEntries, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *favoritesService) Create(ctx context.Context, userID, name string) (*model.FavoritesListWithEntries, error) {
	if err := validation.Var("name", name, "required,max=255"); err != nil {
		return nil, err
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	l := &model.FavoritesList{UserID: userID, Name: name}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return nil, err
	}
	return &model.FavoritesListWithEntries{FavoritesList: *l, Entries: []model.FavoritesListEntry{}}, nil
}

func (s *favoritesService) Rename(ctx context.Context, userID string, id uint, name string) (*model.FavoritesListWithEntries, error) {
	if err := validation.Var("name", name, "required,max=255"); err != nil {
		return nil, err
	}
	if err := s.repo.RenameList(ctx, userID, id, name); err != nil {
		return nil, err
	}
	return s.repo.GetList(ctx, userID, id)
}

func (s *favoritesService) Delete(ctx context.Context, userID string, id uint) error {
	return s.repo.DeleteList(ctx, userID, id)
}

func (s *favoritesService) AddEntry(ctx context.Context, userID string, listID uint, pidURI, note string) (*model.FavoritesListWithEntries, error) {
	if err := validation.Var("pid_uri", pidURI, "required,absuri"); err != nil {
		return nil, err
	}
	entry := &model.FavoritesListEntry{FavoritesListID: listID, PidURI: pidURI, PersonalNote: note}
	if err := s.repo.AddEntry(ctx, userID, entry); err != nil {
		return nil, err
	}
	return s.repo.GetList(ctx, userID, listID)
}

func (s *favoritesService) RemoveEntry(ctx context.Context, userID string, listID uint, pidURI string) error {
	return s.repo.RemoveEntry(ctx, userID, listID, pidURI)
}
