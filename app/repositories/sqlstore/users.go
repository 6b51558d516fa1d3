package sqlstore

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository implements repositories.UserRepository with GORM.
type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) usernameTaken(tx *gorm.DB, username string, exceptID int) (bool, error) {
	var n int64
	err := tx.Model(&models.User{}).Where("username = ? AND id <> ?", username, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) Create(user *models.User) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		taken, err := r.usernameTaken(tx, user.Username, 0)
		if err != nil {
			return err
		}
		if taken {
			return repositories.ErrConflict
		}
		user.StampCreated()
		return tx.Omit(clause.Associations).Create(user).Error
	}))
}

func (r *UserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByToken(token string) (*models.User, error) {
	if token == "" {
		return nil, repositories.ErrNotFound
	}
	var user models.User
	if err := r.db.Where("token = ?", token).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) Update(user *models.User) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.First(&existing, user.ID).Error; err != nil {
			return err
		}
		taken, err := r.usernameTaken(tx, user.Username, user.ID)
		if err != nil {
			return err
		}
		if taken {
			return repositories.ErrConflict
		}
		user.DateJoined = existing.DateJoined
		return tx.Omit(clause.Associations).Save(user).Error
	}))
}

// Delete removes the user; foreign keys cascade to posts, comments and follows.
func (r *UserRepository) Delete(id int) error {
	res := r.db.Delete(&models.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
