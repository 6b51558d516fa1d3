package services

import (
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"
)

// GroupService manages post groups.
type GroupService struct {
	store *repositories.Store
}

func NewGroupService(store *repositories.Store) *GroupService {
	return &GroupService{store: store}
}

func (s *GroupService) Create(group *models.Group) error {
	if err := group.Validate(); err != nil {
		return err
	}
	if err := s.store.Groups.Create(group); err != nil {
		return fmt.Errorf("create group %q: %w", group.Slug, err)
	}
	return nil
}

func (s *GroupService) Get(id int) (*models.Group, error) {
	return s.store.Groups.GetByID(id)
}

func (s *GroupService) GetBySlug(slug string) (*models.Group, error) {
	return s.store.Groups.GetBySlug(slug)
}

func (s *GroupService) List() ([]*models.Group, error) {
	return s.store.Groups.List()
}

// Delete removes the group; its posts remain without a group.
func (s *GroupService) Delete(slug string) error {
	group, err := s.store.Groups.GetBySlug(slug)
	if err != nil {
		return err
	}
	return s.store.Groups.Delete(group.ID)
}
