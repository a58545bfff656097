package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelbase/reelbase-api/internal/api/metrics"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

// WatchlistHandler serves /api/users/watchlist.
type WatchlistHandler struct {
	service ports.WatchlistService
}

func NewWatchlistHandler(service ports.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{service: service}
}

type addWatchlistRequest struct {
	MediaType  string  `json:"mediaType" validate:"required,mediatype" example:"movie"`
	MediaID    mediaID `json:"mediaId" validate:"required" swaggertype:"string" example:"603"`
	Title      string  `json:"title,omitempty" example:"The Matrix"`
	PosterPath string  `json:"poster_path,omitempty" example:"/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg"`
}

// List returns the caller's watchlist in insertion order.
//
// @Summary      Get watchlist
// @Tags         watchlist
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.WatchlistEntry
// @Failure      404  {object}  messageResponse
// @Router       /api/users/watchlist [get]
func (h *WatchlistHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	list, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Add appends a title to the caller's watchlist. mediaId may be sent as a
// string or a number; title and poster_path are display data only.
//
// @Summary      Add to watchlist
// @Tags         watchlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addWatchlistRequest  true  "Media reference"
// @Success      201   {array}   domain.WatchlistEntry
// @Failure      400   {object}  messageResponse
// @Router       /api/users/watchlist [post]
func (h *WatchlistHandler) Add(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req addWatchlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	list, err := h.service.Add(c.Request().Context(), userID, ports.AddWatchlistInput{
		MediaType:  req.MediaType,
		MediaID:    string(req.MediaID),
		Title:      req.Title,
		PosterPath: req.PosterPath,
	})
	if err != nil {
		return err
	}

	metrics.WatchlistOpsTotal.WithLabelValues("add").Inc()
	return c.JSON(http.StatusCreated, list)
}

// Remove drops every entry with the given media id.
//
// @Summary      Remove from watchlist
// @Tags         watchlist
// @Produce      json
// @Security     BearerAuth
// @Param        mediaId  path      string  true  "Media id"
// @Success      200      {array}   domain.WatchlistEntry
// @Router       /api/users/watchlist/{mediaId} [delete]
func (h *WatchlistHandler) Remove(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	list, err := h.service.Remove(c.Request().Context(), userID, c.Param("mediaId"))
	if err != nil {
		return err
	}

	metrics.WatchlistOpsTotal.WithLabelValues("remove").Inc()
	return c.JSON(http.StatusOK, list)
}
