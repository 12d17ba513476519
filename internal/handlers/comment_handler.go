package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/threadline/backend/internal/models"
	"github.com/threadline/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.ListTopLevelComments)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.GET("/comments/:id/subtree", h.GetCommentSubtree)
	g.GET("/users/:user_id/comments", h.ListCommentsByUser)
}

// CreateComment creates a new comment or reply on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.commentService.Create(c.Request().Context(), currentUserID(c), postID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// UpdateComment edits an existing comment's content
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.commentService.Update(currentUserID(c), uint(id), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment soft-deletes a comment; its replies stay reachable
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentService.SoftDelete(c.Request().Context(), currentUserID(c), uint(id))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// GetCommentSubtree returns a comment with its full nested reply tree
func (h *CommentHandler) GetCommentSubtree(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	tree, err := h.commentService.FetchSubtree(uint(id))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tree)
}

// ListTopLevelComments returns one page of a post's top-level comments with
// their subtrees attached
func (h *CommentHandler) ListTopLevelComments(c echo.Context) error {
	postID := c.Param("post_id")
	cursor := parseCursor(c.QueryParam("cursor"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	page, err := h.commentService.ListTopLevel(c.Request().Context(), postID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListCommentsByUser returns one page of a user's comments
func (h *CommentHandler) ListCommentsByUser(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	cursor := parseCursor(c.QueryParam("cursor"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	sortBy := c.QueryParam("sort_by")
	sortOrder := c.QueryParam("sort_order")

	page, err := h.commentService.ListByAuthor(uint(userID), cursor, limit, sortBy, sortOrder)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// parseCursor parses an optional row-id cursor; malformed or absent values
// mean "first page".
func parseCursor(raw string) uint {
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
