package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for the different entity types
const (
	UserKeyPrefix     = "user:"
	UsernameKeyPrefix = "username:"
	TokenKeyPrefix    = "token:"
	GroupKeyPrefix    = "group:"
	GroupSlugPrefix   = "groupslug:"
	PostKeyPrefix     = "post:"
	CommentKeyPrefix  = "comment:"
	FollowKeyPrefix   = "follow:"

	// Sequence keys for auto-incrementing IDs
	UserSeqKey    = "seq:user"
	GroupSeqKey   = "seq:group"
	PostSeqKey    = "seq:post"
	CommentSeqKey = "seq:comment"
)

// OpenBadger opens the database at path, or an in-memory one when path is empty.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

// NewBadgerStore wires every Badger repository to db. Closing the store
// releases the id sequences and closes db.
func NewBadgerStore(db *badger.DB) *Store {
	users := NewBadgerUserRepository(db)
	groups := NewBadgerGroupRepository(db)
	posts := NewBadgerPostRepository(db)
	comments := NewBadgerCommentRepository(db)
	return NewStore(users, groups, posts, comments, NewBadgerFollowRepository(db), func() error {
		var errs []error
		for _, seq := range []*sequence{users.ids, groups.ids, posts.ids, comments.ids} {
			errs = append(errs, seq.release())
		}
		errs = append(errs, db.Close())
		return errors.Join(errs...)
	})
}

const (
	// seqBandwidth is how many ids one sequence lease reserves.
	seqBandwidth = 100
	// maxTxnAttempts bounds the retries of a conflicting write.
	maxTxnAttempts = 50
)

// sequence hands out ids from a leased Badger sequence, starting at 1.
// Allocation never touches the transaction that stores the entity.
type sequence struct {
	mu  sync.Mutex
	db  *badger.DB
	key string
	seq *badger.Sequence
}

func newSequence(db *badger.DB, key string) *sequence {
	return &sequence{db: db, key: key}
}

func (s *sequence) next() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		seq, err := s.db.GetSequence([]byte(s.key), seqBandwidth)
		if err != nil {
			return 0, fmt.Errorf("failed to lease sequence %s: %w", s.key, err)
		}
		s.seq = seq
	}
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence %s: %w", s.key, err)
	}
	return int(n) + 1, nil
}

// release returns the unused part of the lease so ids stay dense across restarts.
func (s *sequence) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		return nil
	}
	err := s.seq.Release()
	s.seq = nil
	return err
}

// update runs fn in a read-write transaction and reruns it while Badger
// reports a conflict with a concurrent commit. fn must reset any state it
// captures, since it may run more than once.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(rand.Intn(attempt+1)+1) * 100 * time.Microsecond)
	}
	return fmt.Errorf("transaction gave up after %d attempts: %w", maxTxnAttempts, err)
}

func entityKey(prefix string, id int) []byte {
	return []byte(prefix + strconv.Itoa(id))
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// getEntity loads key into entity, mapping a missing key to ErrNotFound.
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// setEntity marshals entity and stores it under key.
func setEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// getIndex resolves a secondary index key to the id it points at.
func getIndex(txn *badger.Txn, key []byte) (int, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	var id int
	err = item.Value(func(val []byte) error {
		id, err = strconv.Atoi(string(val))
		return err
	})
	return id, err
}

func setIndex(txn *badger.Txn, key []byte, id int) error {
	return txn.Set(key, []byte(strconv.Itoa(id)))
}

// scanPrefix calls fn with a copy of every key under prefix and its value.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		err := item.Value(func(val []byte) error {
			return fn(key, val)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// scanKeys collects every key under prefix without reading values.
func scanKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func deleteKeys(txn *badger.Txn, keys [][]byte) error {
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
