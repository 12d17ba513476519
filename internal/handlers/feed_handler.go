package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/threadline/backend/internal/services"
)

// FeedHandler handles the merged posts-and-comments feed
type FeedHandler struct {
	feedService *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/users/:user_id/feed", h.GetUserFeed)
}

// GetUserFeed returns one page of a user's merged activity feed. The cursor
// is a timestamp, unlike the row-id cursors of the single-source listings.
func (h *FeedHandler) GetUserFeed(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	page, err := h.feedService.UserFeed(
		c.Request().Context(),
		uint(userID),
		c.QueryParam("cursor"),
		limit,
		c.QueryParam("sort_order"),
	)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, page)
}
