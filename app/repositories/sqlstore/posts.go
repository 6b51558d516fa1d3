package sqlstore

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository implements repositories.PostRepository with GORM.
type PostRepository struct {
	db *gorm.DB
}

func (r *PostRepository) Create(post *models.Post) error {
	post.StampCreated()
	return translate(r.db.Omit(clause.Associations).Create(post).Error)
}

func (r *PostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostRepository) scoped(filter repositories.PostFilter) *gorm.DB {
	q := r.db.Model(&models.Post{})
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.GroupID != 0 {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	if filter.FollowedBy != 0 {
		followed := r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", filter.FollowedBy)
		q = q.Where("author_id IN (?)", followed)
	}
	return q
}

func (r *PostRepository) Count(filter repositories.PostFilter) (int, error) {
	var n int64
	if err := r.scoped(filter).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *PostRepository) List(filter repositories.PostFilter, limit, offset int) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.scoped(filter).
		Order("pub_date DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Update saves text, group and image; the publication date is kept.
func (r *PostRepository) Update(post *models.Post) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		if err := tx.First(&existing, post.ID).Error; err != nil {
			return err
		}
		post.PubDate = existing.PubDate
		return tx.Omit(clause.Associations).Save(post).Error
	}))
}

func (r *PostRepository) Delete(id int) error {
	res := r.db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
