package repositories

import (
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// BadgerFollowRepository implements FollowRepository using BadgerDB.
// Each edge is an empty value under follow:<userID>:<authorID>, so the key
// itself enforces at most one edge per pair.
type BadgerFollowRepository struct {
	db *badger.DB
}

// NewBadgerFollowRepository creates a new BadgerFollowRepository
func NewBadgerFollowRepository(db *badger.DB) *BadgerFollowRepository {
	return &BadgerFollowRepository{db: db}
}

func followKey(userID, authorID int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", FollowKeyPrefix, userID, authorID))
}

func followUserPrefix(userID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", FollowKeyPrefix, userID))
}

// Add creates the edge if it is absent
func (r *BadgerFollowRepository) Add(userID, authorID int) (bool, error) {
	created := false
	err := update(r.db, func(txn *badger.Txn) error {
		created = false
		for _, id := range []int{userID, authorID} {
			if _, err := txn.Get(entityKey(UserKeyPrefix, id)); err == badger.ErrKeyNotFound {
				return ErrNotFound
			} else if err != nil {
				return err
			}
		}

		key := followKey(userID, authorID)
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		created = true
		return txn.Set(key, []byte{})
	})
	return created, err
}

// Remove deletes the edge if it is present
func (r *BadgerFollowRepository) Remove(userID, authorID int) (bool, error) {
	removed := false
	err := update(r.db, func(txn *badger.Txn) error {
		removed = false
		key := followKey(userID, authorID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		removed = true
		return txn.Delete(key)
	})
	return removed, err
}

// Exists reports whether userID follows authorID
func (r *BadgerFollowRepository) Exists(userID, authorID int) (bool, error) {
	exists := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(followKey(userID, authorID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// ListAuthors returns the ids followed by userID in ascending order
func (r *BadgerFollowRepository) ListAuthors(userID int) ([]int, error) {
	var authors []int
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		authors, err = listFollowedAuthors(txn, userID)
		return err
	})
	return authors, err
}

func listFollowedAuthors(txn *badger.Txn, userID int) ([]int, error) {
	prefix := followUserPrefix(userID)
	authors := []int{}
	for _, key := range scanKeys(txn, prefix) {
		var authorID int
		if _, err := fmt.Sscanf(string(key[len(prefix):]), "%d", &authorID); err != nil {
			return nil, fmt.Errorf("malformed follow key %q: %w", key, err)
		}
		authors = append(authors, authorID)
	}
	sort.Ints(authors)
	return authors, nil
}

// deleteFollowEdges removes every edge that starts or ends at userID.
func deleteFollowEdges(txn *badger.Txn, userID int) error {
	var doomed [][]byte
	for _, key := range scanKeys(txn, []byte(FollowKeyPrefix)) {
		var from, to int
		if _, err := fmt.Sscanf(string(key), FollowKeyPrefix+"%d:%d", &from, &to); err != nil {
			return fmt.Errorf("malformed follow key %q: %w", key, err)
		}
		if from == userID || to == userID {
			doomed = append(doomed, key)
		}
	}
	return deleteKeys(txn, doomed)
}
