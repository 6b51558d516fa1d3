package sqlstore

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"gorm.io/gorm"
)

// FollowRepository implements repositories.FollowRepository on the follows
// junction table; idx_follow_pair keeps one row per (user, author).
type FollowRepository struct {
	db *gorm.DB
}

func (r *FollowRepository) Add(userID, authorID int) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range []int{userID, authorID} {
			ok, err := exists(tx, &models.User{}, id)
			if err != nil {
				return err
			}
			if !ok {
				return repositories.ErrNotFound
			}
		}

		var n int64
		if err := tx.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := tx.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, translate(err)
}

func (r *FollowRepository) Remove(userID, authorID int) (bool, error) {
	res := r.db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *FollowRepository) Exists(userID, authorID int) (bool, error) {
	var n int64
	err := r.db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&n).Error
	return n > 0, err
}

func (r *FollowRepository) ListAuthors(userID int) ([]int, error) {
	authors := []int{}
	err := r.db.Model(&models.Follow{}).Where("user_id = ?", userID).Order("author_id").Pluck("author_id", &authors).Error
	return authors, err
}
