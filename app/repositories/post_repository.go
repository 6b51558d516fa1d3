package repositories

import (
	"fmt"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db  *badger.DB
	ids *sequence
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db, ids: newSequence(db, PostSeqKey)}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(post *models.Post) error {
	id, err := r.ids.next()
	if err != nil {
		return err
	}
	post.ID = id
	post.StampCreated()

	return update(r.db, func(txn *badger.Txn) error {
		return setEntity(txn, entityKey(PostKeyPrefix, post.ID), post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(PostKeyPrefix, id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Count returns the number of posts selected by filter
func (r *BadgerPostRepository) Count(filter PostFilter) (int, error) {
	posts, err := r.selectPosts(filter)
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}

// List retrieves a window of the posts selected by filter, newest first
func (r *BadgerPostRepository) List(filter PostFilter, limit, offset int) ([]*models.Post, error) {
	posts, err := r.selectPosts(filter)
	if err != nil {
		return nil, err
	}

	if offset >= len(posts) {
		return []*models.Post{}, nil
	}
	end := offset + limit
	if limit < 0 || end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end], nil
}

func (r *BadgerPostRepository) selectPosts(filter PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var followed map[int]bool
		if filter.FollowedBy != 0 {
			authors, err := listFollowedAuthors(txn, filter.FollowedBy)
			if err != nil {
				return err
			}
			followed = make(map[int]bool, len(authors))
			for _, id := range authors {
				followed[id] = true
			}
		}

		return scanPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var post models.Post
			if err := unmarshalEntity(val, &post); err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			if filter.Matches(&post, followed) {
				posts = append(posts, &post)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	SortPosts(posts)
	return posts, nil
}

// Update updates an existing post. The publication date is never changed.
func (r *BadgerPostRepository) Update(post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := entityKey(PostKeyPrefix, post.ID)

		var existing models.Post
		if err := getEntity(txn, key, &existing); err != nil {
			return err
		}
		updated := *post
		updated.PubDate = existing.PubDate
		if err := setEntity(txn, key, &updated); err != nil {
			return err
		}
		post.PubDate = existing.PubDate
		return nil
	})
}

// Delete deletes a post by ID together with its comments
func (r *BadgerPostRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := entityKey(PostKeyPrefix, id)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return deletePost(txn, id)
	})
}

// deletePost removes a post and the comments stored under it.
func deletePost(txn *badger.Txn, id int) error {
	comments := scanKeys(txn, commentPostPrefix(id))
	if err := deleteKeys(txn, comments); err != nil {
		return err
	}
	return txn.Delete(entityKey(PostKeyPrefix, id))
}
