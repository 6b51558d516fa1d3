package sqlstore

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"gorm.io/gorm"
)

// GroupRepository implements repositories.GroupRepository with GORM.
type GroupRepository struct {
	db *gorm.DB
}

func (r *GroupRepository) Create(group *models.Group) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Group{}).Where("slug = ?", group.Slug).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return repositories.ErrConflict
		}
		return tx.Create(group).Error
	}))
}

func (r *GroupRepository) GetByID(id int) (*models.Group, error) {
	var group models.Group
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (r *GroupRepository) GetBySlug(slug string) (*models.Group, error) {
	var group models.Group
	if err := r.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (r *GroupRepository) List() ([]*models.Group, error) {
	groups := []*models.Group{}
	if err := r.db.Order("id").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Delete removes the group; the posts.group_id foreign key nulls references.
func (r *GroupRepository) Delete(id int) error {
	res := r.db.Delete(&models.Group{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
