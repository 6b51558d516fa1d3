// Package mock provides in-memory repositories for service and controller tests.
package mock

import (
	"sort"
	"sync"

	"yatube/app/models"
	"yatube/app/repositories"
)

// db is the shared state behind one mock store, so cascades can cross entities.
type db struct {
	mutex    sync.RWMutex
	users    map[int]*models.User
	groups   map[int]*models.Group
	posts    map[int]*models.Post
	comments map[int]*models.Comment
	follows  map[[2]int]bool
	nextID   map[string]int
}

func (d *db) next(kind string) int {
	d.nextID[kind]++
	return d.nextID[kind]
}

// NewStore returns a Store whose repositories share one in-memory database.
func NewStore() *repositories.Store {
	d := &db{
		users:    make(map[int]*models.User),
		groups:   make(map[int]*models.Group),
		posts:    make(map[int]*models.Post),
		comments: make(map[int]*models.Comment),
		follows:  make(map[[2]int]bool),
		nextID:   make(map[string]int),
	}
	return repositories.NewStore(
		&UserRepository{d},
		&GroupRepository{d},
		&PostRepository{d},
		&CommentRepository{d},
		&FollowRepository{d},
		nil,
	)
}

type UserRepository struct{ d *db }
type GroupRepository struct{ d *db }
type PostRepository struct{ d *db }
type CommentRepository struct{ d *db }
type FollowRepository struct{ d *db }

// UserRepository implementation
func (m *UserRepository) Create(user *models.User) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	for _, u := range m.d.users {
		if u.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	user.ID = m.d.next("user")
	user.StampCreated()
	copied := *user
	m.d.users[user.ID] = &copied
	return nil
}

func (m *UserRepository) GetByID(id int) (*models.User, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	u, ok := m.d.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	for _, u := range m.d.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) GetByUsername(username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *UserRepository) GetByToken(token string) (*models.User, error) {
	if token == "" {
		return nil, repositories.ErrNotFound
	}
	return m.find(func(u *models.User) bool { return u.Token == token })
}

func (m *UserRepository) Update(user *models.User) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	existing, ok := m.d.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.DateJoined = existing.DateJoined
	copied := *user
	m.d.users[user.ID] = &copied
	return nil
}

func (m *UserRepository) Delete(id int) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, ok := m.d.users[id]; !ok {
		return repositories.ErrNotFound
	}
	for postID, p := range m.d.posts {
		if p.AuthorID == id {
			m.d.deletePost(postID)
		}
	}
	for commentID, c := range m.d.comments {
		if c.AuthorID == id {
			delete(m.d.comments, commentID)
		}
	}
	for edge := range m.d.follows {
		if edge[0] == id || edge[1] == id {
			delete(m.d.follows, edge)
		}
	}
	delete(m.d.users, id)
	return nil
}

// GroupRepository implementation
func (m *GroupRepository) Create(group *models.Group) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	for _, g := range m.d.groups {
		if g.Slug == group.Slug {
			return repositories.ErrConflict
		}
	}
	group.ID = m.d.next("group")
	copied := *group
	m.d.groups[group.ID] = &copied
	return nil
}

func (m *GroupRepository) GetByID(id int) (*models.Group, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	g, ok := m.d.groups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *GroupRepository) GetBySlug(slug string) (*models.Group, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	for _, g := range m.d.groups {
		if g.Slug == slug {
			copied := *g
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *GroupRepository) List() ([]*models.Group, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	groups := []*models.Group{}
	for _, g := range m.d.groups {
		copied := *g
		groups = append(groups, &copied)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (m *GroupRepository) Delete(id int) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, ok := m.d.groups[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, p := range m.d.posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
		}
	}
	delete(m.d.groups, id)
	return nil
}

// PostRepository implementation
func (m *PostRepository) Create(post *models.Post) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	post.ID = m.d.next("post")
	post.StampCreated()
	m.d.posts[post.ID] = clonePost(post)
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	p, ok := m.d.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePost(p), nil
}

func (m *PostRepository) selectPosts(filter repositories.PostFilter) []*models.Post {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	followed := make(map[int]bool)
	for edge := range m.d.follows {
		if edge[0] == filter.FollowedBy {
			followed[edge[1]] = true
		}
	}

	var posts []*models.Post
	for _, p := range m.d.posts {
		if filter.Matches(p, followed) {
			posts = append(posts, clonePost(p))
		}
	}
	repositories.SortPosts(posts)
	return posts
}

func (m *PostRepository) Count(filter repositories.PostFilter) (int, error) {
	return len(m.selectPosts(filter)), nil
}

func (m *PostRepository) List(filter repositories.PostFilter, limit, offset int) ([]*models.Post, error) {
	posts := m.selectPosts(filter)
	if offset >= len(posts) {
		return []*models.Post{}, nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end], nil
}

func (m *PostRepository) Update(post *models.Post) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	existing, ok := m.d.posts[post.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	post.PubDate = existing.PubDate
	m.d.posts[post.ID] = clonePost(post)
	return nil
}

func (m *PostRepository) Delete(id int) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, ok := m.d.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	m.d.deletePost(id)
	return nil
}

func (d *db) deletePost(id int) {
	for commentID, c := range d.comments {
		if c.PostID == id {
			delete(d.comments, commentID)
		}
	}
	delete(d.posts, id)
}

func clonePost(p *models.Post) *models.Post {
	copied := *p
	copied.Author, copied.Group, copied.Comments = nil, nil, nil
	if p.GroupID != nil {
		id := *p.GroupID
		copied.GroupID = &id
	}
	return &copied
}

// CommentRepository implementation
func (m *CommentRepository) Create(comment *models.Comment) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, ok := m.d.posts[comment.PostID]; !ok {
		return repositories.ErrNotFound
	}
	comment.ID = m.d.next("comment")
	comment.StampCreated()
	copied := *comment
	copied.Post, copied.Author = nil, nil
	m.d.comments[comment.ID] = &copied
	return nil
}

func (m *CommentRepository) GetByID(id int) (*models.Comment, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	c, ok := m.d.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	comments := []*models.Comment{}
	for _, c := range m.d.comments {
		if c.PostID == postID {
			copied := *c
			comments = append(comments, &copied)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (m *CommentRepository) Update(comment *models.Comment) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	existing, ok := m.d.comments[comment.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.PostID, comment.AuthorID, comment.Created = existing.PostID, existing.AuthorID, existing.Created
	copied := *comment
	copied.Post, copied.Author = nil, nil
	m.d.comments[comment.ID] = &copied
	return nil
}

func (m *CommentRepository) Delete(id int) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, ok := m.d.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.d.comments, id)
	return nil
}

// FollowRepository implementation
func (m *FollowRepository) Add(userID, authorID int) (bool, error) {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, ok := m.d.users[userID]; !ok {
		return false, repositories.ErrNotFound
	}
	if _, ok := m.d.users[authorID]; !ok {
		return false, repositories.ErrNotFound
	}
	edge := [2]int{userID, authorID}
	if m.d.follows[edge] {
		return false, nil
	}
	m.d.follows[edge] = true
	return true, nil
}

func (m *FollowRepository) Remove(userID, authorID int) (bool, error) {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	edge := [2]int{userID, authorID}
	if !m.d.follows[edge] {
		return false, nil
	}
	delete(m.d.follows, edge)
	return true, nil
}

func (m *FollowRepository) Exists(userID, authorID int) (bool, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	return m.d.follows[[2]int{userID, authorID}], nil
}

func (m *FollowRepository) ListAuthors(userID int) ([]int, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	authors := []int{}
	for edge := range m.d.follows {
		if edge[0] == userID {
			authors = append(authors, edge[1])
		}
	}
	sort.Ints(authors)
	return authors, nil
}
