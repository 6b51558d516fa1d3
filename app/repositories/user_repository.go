package repositories

import (
	"fmt"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// userRecord persists the credential fields that models.User hides from JSON.
type userRecord struct {
	models.User
	PasswordHash string `json:"password_hash"`
	Token        string `json:"token,omitempty"`
}

func toRecord(u *models.User) userRecord {
	return userRecord{User: *u, PasswordHash: u.PasswordHash, Token: u.Token}
}

func (rec userRecord) user() *models.User {
	u := rec.User
	u.PasswordHash = rec.PasswordHash
	u.Token = rec.Token
	return &u
}

// BadgerUserRepository implements UserRepository using BadgerDB.
// username:<name> and token:<token> index the unique columns.
type BadgerUserRepository struct {
	db  *badger.DB
	ids *sequence
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db, ids: newSequence(db, UserSeqKey)}
}

// Create stores a user; a taken username yields ErrConflict
func (r *BadgerUserRepository) Create(user *models.User) error {
	id, err := r.ids.next()
	if err != nil {
		return err
	}

	return update(r.db, func(txn *badger.Txn) error {
		nameKey := []byte(UsernameKeyPrefix + user.Username)
		if _, err := txn.Get(nameKey); err == nil {
			return ErrConflict
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		user.ID = id
		user.StampCreated()

		if err := setEntity(txn, entityKey(UserKeyPrefix, id), toRecord(user)); err != nil {
			return err
		}
		if user.Token != "" {
			if err := setIndex(txn, []byte(TokenKeyPrefix+user.Token), id); err != nil {
				return err
			}
		}
		return setIndex(txn, nameKey, id)
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id int) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, err
}

// GetByUsername retrieves a user by username
func (r *BadgerUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.byIndex([]byte(UsernameKeyPrefix + username))
}

// GetByToken retrieves the owner of an API token
func (r *BadgerUserRepository) GetByToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.byIndex([]byte(TokenKeyPrefix + token))
}

func (r *BadgerUserRepository) byIndex(key []byte) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getIndex(txn, key)
		if err != nil {
			return err
		}
		user, err = getUser(txn, id)
		return err
	})
	return user, err
}

func getUser(txn *badger.Txn, id int) (*models.User, error) {
	var rec userRecord
	if err := getEntity(txn, entityKey(UserKeyPrefix, id), &rec); err != nil {
		return nil, err
	}
	return rec.user(), nil
}

// Update rewrites a user and keeps the username and token indexes in step
func (r *BadgerUserRepository) Update(user *models.User) error {
	return update(r.db, func(txn *badger.Txn) error {
		existing, err := getUser(txn, user.ID)
		if err != nil {
			return err
		}

		if existing.Username != user.Username {
			nameKey := []byte(UsernameKeyPrefix + user.Username)
			if _, err := txn.Get(nameKey); err == nil {
				return ErrConflict
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Delete([]byte(UsernameKeyPrefix + existing.Username)); err != nil {
				return err
			}
			if err := setIndex(txn, nameKey, user.ID); err != nil {
				return err
			}
		}

		if existing.Token != user.Token {
			if existing.Token != "" {
				if err := txn.Delete([]byte(TokenKeyPrefix + existing.Token)); err != nil {
					return err
				}
			}
			if user.Token != "" {
				if err := setIndex(txn, []byte(TokenKeyPrefix+user.Token), user.ID); err != nil {
					return err
				}
			}
		}

		user.DateJoined = existing.DateJoined
		return setEntity(txn, entityKey(UserKeyPrefix, user.ID), toRecord(user))
	})
}

// Delete removes a user with everything they own: posts (and the comments
// on them), comments on other posts, and follow edges in both directions.
func (r *BadgerUserRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		user, err := getUser(txn, id)
		if err != nil {
			return err
		}

		var postIDs []int
		err = scanPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var post models.Post
			if err := unmarshalEntity(val, &post); err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			if post.AuthorID == id {
				postIDs = append(postIDs, post.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, postID := range postIDs {
			if err := deletePost(txn, postID); err != nil {
				return err
			}
		}

		var commentKeys [][]byte
		err = scanPrefix(txn, []byte(CommentKeyPrefix), func(key, val []byte) error {
			var comment models.Comment
			if err := unmarshalEntity(val, &comment); err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			if comment.AuthorID == id {
				commentKeys = append(commentKeys, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := deleteKeys(txn, commentKeys); err != nil {
			return err
		}

		if err := deleteFollowEdges(txn, id); err != nil {
			return err
		}

		if user.Token != "" {
			if err := txn.Delete([]byte(TokenKeyPrefix + user.Token)); err != nil {
				return err
			}
		}
		if err := txn.Delete([]byte(UsernameKeyPrefix + user.Username)); err != nil {
			return err
		}
		return txn.Delete(entityKey(UserKeyPrefix, id))
	})
}
