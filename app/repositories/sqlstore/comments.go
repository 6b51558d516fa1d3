package sqlstore

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository implements repositories.CommentRepository with GORM.
type CommentRepository struct {
	db *gorm.DB
}

func (r *CommentRepository) Create(comment *models.Comment) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Post{}, comment.PostID)
		if err != nil {
			return err
		}
		if !ok {
			return repositories.ErrNotFound
		}
		comment.StampCreated()
		return tx.Omit(clause.Associations).Create(comment).Error
	}))
}

func (r *CommentRepository) GetByID(id int) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (r *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	if err := r.db.Where("post_id = ?", postID).Order("id").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Update changes only the comment text.
func (r *CommentRepository) Update(comment *models.Comment) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Comment
		if err := tx.First(&existing, comment.ID).Error; err != nil {
			return err
		}
		comment.PostID = existing.PostID
		comment.AuthorID = existing.AuthorID
		comment.Created = existing.Created
		return tx.Model(&existing).Update("text", comment.Text).Error
	}))
}

func (r *CommentRepository) Delete(id int) error {
	res := r.db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
