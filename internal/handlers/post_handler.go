package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/models"
	"github.com/threadline/backend/internal/repositories"
)

// PostHandler handles HTTP requests related to posts. Posts are mostly an
// external collaborator of the comment subsystem; creation and lookup exist
// so comments have something real to hang off.
type PostHandler struct {
	postRepository       repositories.PostRepository
	membershipRepository repositories.MembershipRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, membershipRepo repositories.MembershipRepository) *PostHandler {
	return &PostHandler{postRepository: postRepo, membershipRepository: membershipRepo}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:post_id", h.GetPost)
}

// CreatePost creates a new post in a community the caller belongs to
func (h *PostHandler) CreatePost(c echo.Context) error {
	callerID := currentUserID(c)
	if callerID == 0 {
		return httpError(apperr.AuthRequired("authentication required to post"))
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := h.membershipRepository.IsMember(req.CommunityID, callerID)
	if err != nil {
		return httpError(err)
	}
	if !member {
		return httpError(apperr.Forbidden("not a member of this community"))
	}

	post := &models.Post{
		AuthorID:    callerID,
		CommunityID: req.CommunityID,
		Title:       req.Title,
		Content:     req.Content,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, post)
}
