package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/threadline/backend/internal/models"
	"github.com/threadline/backend/internal/services"
)

// VoteHandler handles HTTP requests related to votes
type VoteHandler struct {
	voteService *services.VoteService
}

// NewVoteHandler creates a new VoteHandler
func NewVoteHandler(voteService *services.VoteService) *VoteHandler {
	return &VoteHandler{voteService: voteService}
}

// RegisterVoteRoutes registers vote-related routes
func (h *VoteHandler) RegisterVoteRoutes(g *echo.Group) {
	g.POST("/comments/:id/votes", h.VoteOnComment)
	g.DELETE("/comments/:id/votes", h.RetractCommentVote)
	g.POST("/posts/:post_id/votes", h.VoteOnPost)
	g.DELETE("/posts/:post_id/votes", h.RetractPostVote)
}

// VoteOnComment casts or switches the caller's vote on a comment
func (h *VoteHandler) VoteOnComment(c echo.Context) error {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	var req models.CastVoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	vote, err := h.voteService.VoteOnComment(currentUserID(c), uint(commentID), req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, vote)
}

// RetractCommentVote removes the caller's vote on a comment
func (h *VoteHandler) RetractCommentVote(c echo.Context) error {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	vote, err := h.voteService.RetractCommentVote(currentUserID(c), uint(commentID))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, vote)
}

// VoteOnPost casts or switches the caller's vote on a post
func (h *VoteHandler) VoteOnPost(c echo.Context) error {
	postID := c.Param("post_id")

	var req models.CastVoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	vote, err := h.voteService.VoteOnPost(c.Request().Context(), currentUserID(c), postID, req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, vote)
}

// RetractPostVote removes the caller's vote on a post
func (h *VoteHandler) RetractPostVote(c echo.Context) error {
	postID := c.Param("post_id")

	vote, err := h.voteService.RetractPostVote(c.Request().Context(), currentUserID(c), postID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, vote)
}
