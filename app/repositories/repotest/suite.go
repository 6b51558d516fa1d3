// Package repotest holds the behaviour every repositories.Store backend must share.
package repotest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"yatube/app/models"
	"yatube/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) *repositories.Store

// Run executes the shared store contract against newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("groups", func(t *testing.T) { testGroups(t, newStore(t)) })
	t.Run("posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("post listing", func(t *testing.T) { testPostListing(t, newStore(t)) })
	t.Run("comments", func(t *testing.T) { testComments(t, newStore(t)) })
	t.Run("follows", func(t *testing.T) { testFollows(t, newStore(t)) })
	t.Run("feed", func(t *testing.T) { testFeed(t, newStore(t)) })
	t.Run("user delete cascades", func(t *testing.T) { testUserCascade(t, newStore(t)) })
	t.Run("group delete detaches posts", func(t *testing.T) { testGroupSetNull(t, newStore(t)) })
	t.Run("concurrent writes", func(t *testing.T) { testConcurrentWrites(t, newStore(t)) })
	t.Run("zoned publication dates", func(t *testing.T) { testZonedPubDates(t, newStore(t)) })
}

// CreateUser stores a user with a throwaway password hash.
func CreateUser(t *testing.T, s *repositories.Store, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, s.Users.Create(u))
	return u
}

// CreatePost stores a post with an explicit publication date.
func CreatePost(t *testing.T, s *repositories.Store, author *models.User, text string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID, PubDate: at}
	require.NoError(t, s.Posts.Create(p))
	return p
}

func testUsers(t *testing.T, s *repositories.Store) {
	u := CreateUser(t, s, "leo")
	assert.Greater(t, u.ID, 0)
	assert.False(t, u.DateJoined.IsZero())

	byName, err := s.Users.GetByUsername("leo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)

	err = s.Users.Create(&models.User{Username: "leo", PasswordHash: "x"})
	assert.ErrorIs(t, err, repositories.ErrConflict)

	byName.Token = "abc123"
	require.NoError(t, s.Users.Update(byName))

	byToken, err := s.Users.GetByToken("abc123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byToken.ID)

	_, err = s.Users.GetByToken("")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = s.Users.GetByID(999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = s.Users.GetByUsername("nobody")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testGroups(t *testing.T, s *repositories.Store) {
	g := &models.Group{Title: "Cats", Slug: "cats", Description: "all about cats"}
	require.NoError(t, s.Groups.Create(g))
	assert.Greater(t, g.ID, 0)

	bySlug, err := s.Groups.GetBySlug("cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", bySlug.Title)
	assert.Equal(t, "all about cats", bySlug.Description)

	err = s.Groups.Create(&models.Group{Title: "Other cats", Slug: "cats"})
	assert.ErrorIs(t, err, repositories.ErrConflict)

	require.NoError(t, s.Groups.Create(&models.Group{Title: "Dogs", Slug: "dogs"}))
	groups, err := s.Groups.List()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "cats", groups[0].Slug)
	assert.Equal(t, "dogs", groups[1].Slug)

	_, err = s.Groups.GetBySlug("birds")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, s.Groups.Delete(999), repositories.ErrNotFound)
}

func testPosts(t *testing.T, s *repositories.Store) {
	author := CreateUser(t, s, "author")

	post := &models.Post{Text: "test post", AuthorID: author.ID}
	require.NoError(t, s.Posts.Create(post))
	assert.Greater(t, post.ID, 0)
	assert.False(t, post.PubDate.IsZero())

	got, err := s.Posts.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "test post", got.Text)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Nil(t, got.GroupID)

	created := got.PubDate
	got.Text = "edited"
	got.PubDate = created.Add(time.Hour)
	require.NoError(t, s.Posts.Update(got))

	edited, err := s.Posts.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Text)
	assert.True(t, created.Equal(edited.PubDate), "publication date must not change")

	require.NoError(t, s.Posts.Delete(post.ID))
	_, err = s.Posts.GetByID(post.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, s.Posts.Delete(post.ID), repositories.ErrNotFound)
	assert.ErrorIs(t, s.Posts.Update(&models.Post{ID: 999, Text: "x", AuthorID: author.ID}), repositories.ErrNotFound)
}

func testPostListing(t *testing.T, s *repositories.Store) {
	a := CreateUser(t, s, "a")
	b := CreateUser(t, s, "b")
	g := &models.Group{Title: "G", Slug: "g"}
	require.NoError(t, s.Groups.Create(g))

	base := time.Date(2022, 5, 21, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		p := &models.Post{Text: fmt.Sprintf("a%02d", i), AuthorID: a.ID, PubDate: base.Add(time.Duration(i) * time.Minute)}
		if i%3 == 0 {
			p.SetGroup(g)
		}
		require.NoError(t, s.Posts.Create(p))
	}
	CreatePost(t, s, b, "b00", base.Add(-time.Hour))

	total, err := s.Posts.Count(repositories.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, 16, total)

	first, err := s.Posts.List(repositories.PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "a14", first[0].Text)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].PubDate.After(first[i-1].PubDate), "posts must be newest first")
	}

	second, err := s.Posts.List(repositories.PostFilter{}, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 6)
	assert.Equal(t, "b00", second[5].Text)

	beyond, err := s.Posts.List(repositories.PostFilter{}, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	byAuthor, err := s.Posts.Count(repositories.PostFilter{AuthorID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, byAuthor)

	grouped, err := s.Posts.List(repositories.PostFilter{GroupID: g.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, grouped, 5)
	for _, p := range grouped {
		require.NotNil(t, p.GroupID)
		assert.Equal(t, g.ID, *p.GroupID)
	}
	assert.Equal(t, "a12", grouped[0].Text)

	head := CreatePost(t, s, b, "newest", base.Add(24*time.Hour))
	after, err := s.Posts.List(repositories.PostFilter{}, 11, 0)
	require.NoError(t, err)
	assert.Equal(t, head.ID, after[0].ID)
	for i := range first {
		assert.Equal(t, first[i].ID, after[i+1].ID, "inserting at the head shifts the feed by one")
	}
}

func testComments(t *testing.T, s *repositories.Store) {
	author := CreateUser(t, s, "author")
	reader := CreateUser(t, s, "reader")
	post := CreatePost(t, s, author, "post", time.Now())
	other := CreatePost(t, s, author, "other", time.Now())

	for i := 0; i < 12; i++ {
		c := &models.Comment{PostID: post.ID, AuthorID: reader.ID, Text: fmt.Sprintf("c%d", i)}
		require.NoError(t, s.Comments.Create(c))
		assert.False(t, c.Created.IsZero())
	}
	require.NoError(t, s.Comments.Create(&models.Comment{PostID: other.ID, AuthorID: reader.ID, Text: "elsewhere"}))

	comments, err := s.Comments.ListByPost(post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 12)
	assert.Equal(t, "c0", comments[0].Text)
	assert.Equal(t, "c11", comments[11].Text)

	got, err := s.Comments.GetByID(comments[3].ID)
	require.NoError(t, err)
	assert.Equal(t, "c3", got.Text)

	got.Text = "c3 edited"
	require.NoError(t, s.Comments.Update(got))
	got, err = s.Comments.GetByID(comments[3].ID)
	require.NoError(t, err)
	assert.Equal(t, "c3 edited", got.Text)
	assert.Equal(t, post.ID, got.PostID)

	require.NoError(t, s.Comments.Delete(got.ID))
	_, err = s.Comments.GetByID(got.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	err = s.Comments.Create(&models.Comment{PostID: 999, AuthorID: reader.ID, Text: "nowhere"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, s.Posts.Delete(post.ID))
	comments, err = s.Comments.ListByPost(post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments, "deleting a post deletes its comments")

	remaining, err := s.Comments.ListByPost(other.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func testFollows(t *testing.T, s *repositories.Store) {
	u := CreateUser(t, s, "u")
	a := CreateUser(t, s, "a")
	b := CreateUser(t, s, "b")

	exists, err := s.Follows.Exists(u.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := s.Follows.Add(u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Follows.Add(u.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created, "second follow is a no-op")

	_, err = s.Follows.Add(u.ID, b.ID)
	require.NoError(t, err)

	authors, err := s.Follows.ListAuthors(u.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{a.ID, b.ID}, authors)

	exists, err = s.Follows.Exists(u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.Follows.Exists(a.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, exists, "edges are directed")

	removed, err := s.Follows.Remove(u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Follows.Remove(u.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second unfollow is a no-op")

	exists, err = s.Follows.Exists(u.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Follows.Add(u.ID, 999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	empty, err := s.Follows.ListAuthors(a.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testFeed(t *testing.T, s *repositories.Store) {
	a := CreateUser(t, s, "a")
	b := CreateUser(t, s, "b")
	c := CreateUser(t, s, "c")
	now := time.Now()
	CreatePost(t, s, a, "by a", now)
	CreatePost(t, s, c, "by c", now.Add(time.Second))

	_, err := s.Follows.Add(b.ID, a.ID)
	require.NoError(t, err)

	feed, err := s.Posts.List(repositories.PostFilter{FollowedBy: b.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "by a", feed[0].Text)

	count, err := s.Posts.Count(repositories.PostFilter{FollowedBy: c.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, count, "a user following nobody has an empty feed")
}

func testUserCascade(t *testing.T, s *repositories.Store) {
	author := CreateUser(t, s, "author")
	reader := CreateUser(t, s, "reader")
	post := CreatePost(t, s, author, "doomed", time.Now())
	kept := CreatePost(t, s, reader, "kept", time.Now())

	require.NoError(t, s.Comments.Create(&models.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "on doomed"}))
	authorComment := &models.Comment{PostID: kept.ID, AuthorID: author.ID, Text: "by author"}
	require.NoError(t, s.Comments.Create(authorComment))
	_, err := s.Follows.Add(reader.ID, author.ID)
	require.NoError(t, err)
	_, err = s.Follows.Add(author.ID, reader.ID)
	require.NoError(t, err)

	require.NoError(t, s.Users.Delete(author.ID))

	_, err = s.Users.GetByID(author.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = s.Posts.GetByID(post.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound, "deleting the author deletes the post")
	_, err = s.Comments.GetByID(authorComment.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = s.Posts.GetByID(kept.ID)
	assert.NoError(t, err)

	authors, err := s.Follows.ListAuthors(reader.ID)
	require.NoError(t, err)
	assert.Empty(t, authors)

	_, err = s.Users.GetByUsername("author")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, s.Users.Create(&models.User{Username: "author", PasswordHash: "x"}), "username is free again")
}

func testGroupSetNull(t *testing.T, s *repositories.Store) {
	author := CreateUser(t, s, "author")
	g := &models.Group{Title: "Temp", Slug: "temp"}
	require.NoError(t, s.Groups.Create(g))

	post := &models.Post{Text: "grouped", AuthorID: author.ID}
	post.SetGroup(g)
	require.NoError(t, s.Posts.Create(post))

	require.NoError(t, s.Groups.Delete(g.ID))

	got, err := s.Posts.GetByID(post.ID)
	require.NoError(t, err, "deleting the group keeps the post")
	assert.Nil(t, got.GroupID)

	_, err = s.Groups.GetBySlug("temp")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

// parallel runs fn(0..n-1) in n goroutines and returns every non-nil error.
func parallel(n int, fn func(i int) error) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return errs
}

func testConcurrentWrites(t *testing.T, s *repositories.Store) {
	author := CreateUser(t, s, "leo")

	t.Run("creates get distinct ids", func(t *testing.T) {
		const writers = 50
		var mu sync.Mutex
		ids := make(map[int]bool, writers)
		errs := parallel(writers, func(i int) error {
			p := &models.Post{Text: fmt.Sprintf("post %d", i), AuthorID: author.ID}
			if err := s.Posts.Create(p); err != nil {
				return err
			}
			mu.Lock()
			ids[p.ID] = true
			mu.Unlock()
			return nil
		})
		require.Empty(t, errs)
		assert.Len(t, ids, writers)

		count, err := s.Posts.Count(repositories.PostFilter{AuthorID: author.ID})
		require.NoError(t, err)
		assert.Equal(t, writers, count)
	})

	t.Run("edits of one post are last write wins", func(t *testing.T) {
		published := time.Date(2022, 5, 21, 14, 13, 0, 0, time.UTC)
		target := CreatePost(t, s, author, "original", published)

		const editors = 20
		errs := parallel(editors, func(i int) error {
			return s.Posts.Update(&models.Post{
				ID:       target.ID,
				AuthorID: author.ID,
				Text:     fmt.Sprintf("edit %d", i),
			})
		})
		require.Empty(t, errs)

		got, err := s.Posts.GetByID(target.ID)
		require.NoError(t, err)
		assert.Regexp(t, `^edit \d+$`, got.Text)
		assert.True(t, published.Equal(got.PubDate))
	})

	t.Run("one follow edge per pair", func(t *testing.T) {
		reader := CreateUser(t, s, "reader")

		var mu sync.Mutex
		created := 0
		errs := parallel(10, func(int) error {
			ok, err := s.Follows.Add(reader.ID, author.ID)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
			return err
		})
		require.Empty(t, errs)
		assert.Equal(t, 1, created)

		authors, err := s.Follows.ListAuthors(reader.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{author.ID}, authors)
	})
}

func testZonedPubDates(t *testing.T, s *repositories.Store) {
	author := CreateUser(t, s, "leo")
	base := time.Date(2022, 5, 21, 12, 0, 0, 0, time.UTC)
	older := CreatePost(t, s, author, "older", base)
	eastern := time.FixedZone("UTC-5", -5*60*60)
	newer := CreatePost(t, s, author, "newer", base.Add(time.Hour).In(eastern))

	posts, err := s.Posts.List(repositories.PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
}
