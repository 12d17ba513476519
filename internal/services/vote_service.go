package services

import (
	"context"

	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/cache"
	"github.com/threadline/backend/internal/models"
	"github.com/threadline/backend/internal/repositories"
)

// VoteService owns the one-vote-per-(user, target) pipeline and keeps the
// denormalized counters and caches in step with the vote rows.
type VoteService struct {
	votes    repositories.VoteRepository
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	cache    *cache.TagCache
}

// NewVoteService creates a new VoteService
func NewVoteService(
	votes repositories.VoteRepository,
	comments repositories.CommentRepository,
	posts repositories.PostRepository,
	tagCache *cache.TagCache,
) *VoteService {
	return &VoteService{
		votes:    votes,
		comments: comments,
		posts:    posts,
		cache:    tagCache,
	}
}

// VoteOnComment casts or switches the caller's vote on a comment. The row
// write and both counter adjustments commit in one transaction.
func (s *VoteService) VoteOnComment(callerID, commentID uint, voteType models.VoteType) (*models.Vote, error) {
	if callerID == 0 {
		return nil, apperr.AuthRequired("authentication required to vote")
	}
	if !voteType.Valid() {
		return nil, apperr.Validation("vote type must be UPVOTE or DOWNVOTE")
	}

	comment, err := s.comments.GetCommentByID(commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, apperr.NotFound("comment not found")
	}

	vote, err := s.votes.CastCommentVote(callerID, commentID, voteType)
	if err != nil {
		return nil, err
	}

	// Counters changed but subtree membership did not.
	s.cache.Invalidate(cache.TagReplies(commentID), cache.TagComment(commentID))
	return vote, nil
}

// RetractCommentVote removes the caller's vote on a comment and rolls the
// counters back.
func (s *VoteService) RetractCommentVote(callerID, commentID uint) (*models.Vote, error) {
	if callerID == 0 {
		return nil, apperr.AuthRequired("authentication required to vote")
	}

	vote, err := s.votes.DeleteCommentVote(callerID, commentID)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(cache.TagReplies(commentID), cache.TagComment(commentID))
	return vote, nil
}

// VoteOnPost casts or switches the caller's vote on a post. The vote row
// lives in Postgres while the counters live on the Mongo document, so the
// counter update is a separate single-document atomic $inc after the row
// commits.
func (s *VoteService) VoteOnPost(ctx context.Context, callerID uint, postID string, voteType models.VoteType) (*models.Vote, error) {
	if callerID == 0 {
		return nil, apperr.AuthRequired("authentication required to vote")
	}
	if !voteType.Valid() {
		return nil, apperr.Validation("vote type must be UPVOTE or DOWNVOTE")
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	vote, upDelta, downDelta, err := s.votes.CastPostVote(callerID, postID, voteType)
	if err != nil {
		return nil, err
	}
	if err := s.posts.ApplyVoteDeltas(ctx, postID, upDelta, downDelta); err != nil {
		return nil, err
	}

	s.cache.Invalidate(cache.TagUserPosts(post.AuthorID))
	return vote, nil
}

// RetractPostVote removes the caller's vote on a post and rolls its counters
// back.
func (s *VoteService) RetractPostVote(ctx context.Context, callerID uint, postID string) (*models.Vote, error) {
	if callerID == 0 {
		return nil, apperr.AuthRequired("authentication required to vote")
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	vote, upDelta, downDelta, err := s.votes.DeletePostVote(callerID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.posts.ApplyVoteDeltas(ctx, postID, upDelta, downDelta); err != nil {
		return nil, err
	}

	s.cache.Invalidate(cache.TagUserPosts(post.AuthorID))
	return vote, nil
}
