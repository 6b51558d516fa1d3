package repositories

import (
	"fmt"
	"sort"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments live under comment:<postID>:<id> so a post's comments share a prefix.
type BadgerCommentRepository struct {
	db  *badger.DB
	ids *sequence
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db, ids: newSequence(db, CommentSeqKey)}
}

func commentPostPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", CommentKeyPrefix, postID))
}

func commentKey(postID, id int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", CommentKeyPrefix, postID, id))
}

// Create creates a new comment on an existing post
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	id, err := r.ids.next()
	if err != nil {
		return err
	}

	return update(r.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(entityKey(PostKeyPrefix, comment.PostID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		comment.ID = id
		comment.StampCreated()

		return setEntity(txn, commentKey(comment.PostID, comment.ID), comment)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(id int) (*models.Comment, error) {
	var found *models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, _, err = findComment(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListByPost retrieves all comments for a post in creation order
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, commentPostPrefix(postID), func(_, val []byte) error {
			var comment models.Comment
			if err := unmarshalEntity(val, &comment); err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			comments = append(comments, &comment)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

// Update updates the text of an existing comment
func (r *BadgerCommentRepository) Update(comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		existing, key, err := findComment(txn, comment.ID)
		if err != nil {
			return err
		}
		comment.PostID = existing.PostID
		comment.AuthorID = existing.AuthorID
		comment.Created = existing.Created

		return setEntity(txn, key, comment)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		_, key, err := findComment(txn, id)
		if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// findComment scans every post's comments for id.
func findComment(txn *badger.Txn, id int) (*models.Comment, []byte, error) {
	var found *models.Comment
	var foundKey []byte
	err := scanPrefix(txn, []byte(CommentKeyPrefix), func(key, val []byte) error {
		if found != nil {
			return nil
		}
		var comment models.Comment
		if err := unmarshalEntity(val, &comment); err != nil {
			return fmt.Errorf("failed to unmarshal comment: %w", err)
		}
		if comment.ID == id {
			found = &comment
			foundKey = key
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if found == nil {
		return nil, nil, ErrNotFound
	}
	return found, foundKey, nil
}
