package repositories

import (
	"fmt"
	"sort"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGroupRepository implements GroupRepository using BadgerDB.
// groupslug:<slug> indexes the unique slug.
type BadgerGroupRepository struct {
	db  *badger.DB
	ids *sequence
}

// NewBadgerGroupRepository creates a new BadgerGroupRepository
func NewBadgerGroupRepository(db *badger.DB) *BadgerGroupRepository {
	return &BadgerGroupRepository{db: db, ids: newSequence(db, GroupSeqKey)}
}

// Create stores a group; a taken slug yields ErrConflict
func (r *BadgerGroupRepository) Create(group *models.Group) error {
	id, err := r.ids.next()
	if err != nil {
		return err
	}

	return update(r.db, func(txn *badger.Txn) error {
		slugKey := []byte(GroupSlugPrefix + group.Slug)
		if _, err := txn.Get(slugKey); err == nil {
			return ErrConflict
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		group.ID = id

		if err := setEntity(txn, entityKey(GroupKeyPrefix, id), group); err != nil {
			return err
		}
		return setIndex(txn, slugKey, id)
	})
}

// GetByID retrieves a group by ID
func (r *BadgerGroupRepository) GetByID(id int) (*models.Group, error) {
	var group models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(GroupKeyPrefix, id), &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetBySlug retrieves a group by its slug
func (r *BadgerGroupRepository) GetBySlug(slug string) (*models.Group, error) {
	var group models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getIndex(txn, []byte(GroupSlugPrefix+slug))
		if err != nil {
			return err
		}
		return getEntity(txn, entityKey(GroupKeyPrefix, id), &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns all groups ordered by ID
func (r *BadgerGroupRepository) List() ([]*models.Group, error) {
	groups := []*models.Group{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(GroupKeyPrefix), func(_, val []byte) error {
			var group models.Group
			if err := unmarshalEntity(val, &group); err != nil {
				return fmt.Errorf("failed to unmarshal group: %w", err)
			}
			groups = append(groups, &group)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

// Delete removes a group and detaches its posts, which are kept
func (r *BadgerGroupRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		var group models.Group
		if err := getEntity(txn, entityKey(GroupKeyPrefix, id), &group); err != nil {
			return err
		}

		var detached []*models.Post
		err := scanPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var post models.Post
			if err := unmarshalEntity(val, &post); err != nil {
				return err
			}
			if post.GroupID != nil && *post.GroupID == id {
				post.GroupID = nil
				detached = append(detached, &post)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, post := range detached {
			if err := setEntity(txn, entityKey(PostKeyPrefix, post.ID), post); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(GroupSlugPrefix + group.Slug)); err != nil {
			return err
		}
		return txn.Delete(entityKey(GroupKeyPrefix, id))
	})
}
