package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They implement the same contracts the Postgres
// and Mongo repositories do, including NotFound mapping, so the services
// under test cannot tell the difference.

type fakeCommentRepo struct {
	mu     sync.Mutex
	nextID uint
	clock  time.Time
	rows   map[uint]models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		rows:  make(map[uint]models.Comment),
	}
}

func (f *fakeCommentRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeCommentRepo) CreateComment(c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = f.tick()
	c.UpdatedAt = c.CreatedAt
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeCommentRepo) GetCommentByID(id uint) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("comment not found")
	}
	return &row, nil
}

func (f *fakeCommentRepo) UpdateContent(id uint, content string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("comment not found")
	}
	row.Content = content
	row.UpdatedAt = f.tick()
	f.rows[id] = row
	return &row, nil
}

func (f *fakeCommentRepo) MarkDeleted(id uint) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("comment not found")
	}
	row.IsDeleted = true
	row.UpdatedAt = f.tick()
	f.rows[id] = row
	return &row, nil
}

func (f *fakeCommentRepo) ListTopLevel(postID string, cursorID uint, limit int) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, row := range f.rows {
		if row.PostID == postID && row.ParentID == nil && row.ID > cursorID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCommentRepo) ListByAuthor(userID uint, cursorID uint, limit int, sortBy, sortOrder string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch sortBy {
	case "created_at", "updated_at", "vote_score":
	default:
		sortBy = "created_at"
		sortOrder = "desc"
	}
	descending := sortOrder != "asc"

	key := func(c models.Comment) (int64, uint) {
		switch sortBy {
		case "updated_at":
			return c.UpdatedAt.UnixNano(), c.ID
		case "vote_score":
			return int64(c.VoteScore), c.ID
		default:
			return c.CreatedAt.UnixNano(), c.ID
		}
	}
	less := func(a, b models.Comment) bool {
		ka, ia := key(a)
		kb, ib := key(b)
		if ka != kb {
			if descending {
				return ka > kb
			}
			return ka < kb
		}
		if descending {
			return ia > ib
		}
		return ia < ib
	}

	var out []models.Comment
	for _, row := range f.rows {
		if row.AuthorID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	if cursorID > 0 {
		after, ok := f.rows[cursorID]
		if !ok {
			return nil, apperr.Validation("unknown pagination cursor")
		}
		trimmed := out[:0]
		for _, row := range out {
			if less(after, row) {
				trimmed = append(trimmed, row)
			}
		}
		out = trimmed
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCommentRepo) ListByParentIDs(parentIDs []uint) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parents := make(map[uint]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	var out []models.Comment
	for _, row := range f.rows {
		if row.ParentID != nil {
			if _, ok := parents[*row.ParentID]; ok {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeCommentRepo) ListRecentByAuthor(userID uint, limit int, descending bool) ([]models.Comment, error) {
	order := "asc"
	if descending {
		order = "desc"
	}
	return f.ListByAuthor(userID, 0, limit, "created_at", order)
}

// adjustCounters mirrors what the transactional vote repository does to the
// comment row.
func (f *fakeCommentRepo) adjustCounters(id uint, du, dd int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[id]
	row.TotalUpvotes += du
	row.TotalDownvotes += dd
	row.VoteScore += du - dd
	f.rows[id] = row
}

type fakePostRepo struct {
	mu        sync.Mutex
	clock     time.Time
	rows      map[string]models.Post
	lastLimit int
}

func newFakePostRepo() *fakePostRepo {
	// Offset from the comment clock so post and comment timestamps interleave
	// without ever colliding.
	return &fakePostRepo{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 500*int(time.Millisecond), time.UTC),
		rows:  make(map[string]models.Post),
	}
}

func (f *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = primitive.NewObjectID()
	f.clock = f.clock.Add(time.Second)
	post.CreatedAt = f.clock
	post.UpdatedAt = f.clock
	f.rows[post.ID.Hex()] = *post
	return nil
}

func (f *fakePostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	return &row, nil
}

func (f *fakePostRepo) ListRecentByAuthor(_ context.Context, authorID uint, limit int, descending bool) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []models.Post
	for _, row := range f.rows {
		if row.AuthorID == authorID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePostRepo) AdjustTotalComments(_ context.Context, postID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[postID]
	if !ok {
		return apperr.NotFound("post not found")
	}
	row.TotalComments += delta
	f.rows[postID] = row
	return nil
}

func (f *fakePostRepo) ApplyVoteDeltas(_ context.Context, postID string, upDelta, downDelta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[postID]
	if !ok {
		return apperr.NotFound("post not found")
	}
	row.TotalUpvotes += upDelta
	row.TotalDownvotes += downDelta
	row.VoteScore += upDelta - downDelta
	f.rows[postID] = row
	return nil
}

type fakeMembershipRepo struct {
	roles map[string]map[uint]string
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{roles: make(map[string]map[uint]string)}
}

func (f *fakeMembershipRepo) add(communityID string, userID uint, role string) {
	if f.roles[communityID] == nil {
		f.roles[communityID] = make(map[uint]string)
	}
	f.roles[communityID][userID] = role
}

func (f *fakeMembershipRepo) IsMember(communityID string, userID uint) (bool, error) {
	_, ok := f.roles[communityID][userID]
	return ok, nil
}

func (f *fakeMembershipRepo) IsManager(communityID string, userID uint) (bool, error) {
	return f.roles[communityID][userID] == models.RoleManager, nil
}

// fakeVoteRepo keeps one vote row per (user, target) and pushes the counter
// transitions into the backing comment repo, matching the transactional
// contract of the real implementation.
type fakeVoteRepo struct {
	mu       sync.Mutex
	nextID   uint
	comments *fakeCommentRepo
	rows     map[string]models.Vote
}

func newFakeVoteRepo(comments *fakeCommentRepo) *fakeVoteRepo {
	return &fakeVoteRepo{comments: comments, rows: make(map[string]models.Vote)}
}

func commentVoteKey(userID, commentID uint) string {
	return fmt.Sprintf("c:%d:%d", userID, commentID)
}

func postVoteKey(userID uint, postID string) string {
	return fmt.Sprintf("p:%d:%s", userID, postID)
}

func (f *fakeVoteRepo) voteRowCount(userID, commentID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[commentVoteKey(userID, commentID)]; ok {
		return 1
	}
	return 0
}

func deltasFor(prev, next *models.VoteType) (int, int) {
	du, dd := 0, 0
	if prev != nil {
		if *prev == models.VoteTypeUp {
			du--
		} else {
			dd--
		}
	}
	if next != nil {
		if *next == models.VoteTypeUp {
			du++
		} else {
			dd++
		}
	}
	return du, dd
}

func (f *fakeVoteRepo) CastCommentVote(userID, commentID uint, voteType models.VoteType) (*models.Vote, error) {
	f.mu.Lock()
	key := commentVoteKey(userID, commentID)
	existing, ok := f.rows[key]
	if ok && existing.Type == voteType {
		f.mu.Unlock()
		return &existing, nil
	}

	var du, dd int
	if ok {
		oldType := existing.Type
		existing.Type = voteType
		f.rows[key] = existing
		du, dd = deltasFor(&oldType, &voteType)
	} else {
		f.nextID++
		existing = models.Vote{ID: f.nextID, UserID: userID, CommentID: &commentID, Type: voteType}
		f.rows[key] = existing
		du, dd = deltasFor(nil, &voteType)
	}
	f.mu.Unlock()

	f.comments.adjustCounters(commentID, du, dd)
	return &existing, nil
}

func (f *fakeVoteRepo) DeleteCommentVote(userID, commentID uint) (*models.Vote, error) {
	f.mu.Lock()
	key := commentVoteKey(userID, commentID)
	existing, ok := f.rows[key]
	if !ok {
		f.mu.Unlock()
		return nil, apperr.NotFound("vote not found")
	}
	delete(f.rows, key)
	f.mu.Unlock()

	du, dd := deltasFor(&existing.Type, nil)
	f.comments.adjustCounters(commentID, du, dd)
	return &existing, nil
}

func (f *fakeVoteRepo) CastPostVote(userID uint, postID string, voteType models.VoteType) (*models.Vote, int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := postVoteKey(userID, postID)
	existing, ok := f.rows[key]
	if ok && existing.Type == voteType {
		return &existing, 0, 0, nil
	}
	var du, dd int
	if ok {
		oldType := existing.Type
		existing.Type = voteType
		f.rows[key] = existing
		du, dd = deltasFor(&oldType, &voteType)
	} else {
		f.nextID++
		existing = models.Vote{ID: f.nextID, UserID: userID, PostID: &postID, Type: voteType}
		f.rows[key] = existing
		du, dd = deltasFor(nil, &voteType)
	}
	return &existing, du, dd, nil
}

func (f *fakeVoteRepo) DeletePostVote(userID uint, postID string) (*models.Vote, int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := postVoteKey(userID, postID)
	existing, ok := f.rows[key]
	if !ok {
		return nil, 0, 0, apperr.NotFound("vote not found")
	}
	delete(f.rows, key)
	du, dd := deltasFor(&existing.Type, nil)
	return &existing, du, dd, nil
}

func (f *fakeVoteRepo) GetCommentVote(userID, commentID uint) (*models.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.rows[commentVoteKey(userID, commentID)]
	if !ok {
		return nil, apperr.NotFound("vote not found")
	}
	return &existing, nil
}
