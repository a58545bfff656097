package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelbase/reelbase-api/internal/api/metrics"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

// ReviewHandler serves /api/reviews.
type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type createReviewRequest struct {
	MediaID     mediaID `json:"mediaId" validate:"required" swaggertype:"string" example:"603"`
	MediaType   string  `json:"mediaType" validate:"required,mediatype" example:"movie"`
	MediaTitle  string  `json:"mediaTitle" validate:"required" example:"The Matrix"`
	MediaPoster *string `json:"mediaPoster,omitempty"`
	Rating      int     `json:"rating" validate:"required,min=1,max=10" example:"9"`
	Content     string  `json:"content" validate:"required" example:"Still holds up."`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
	Content *string `json:"content,omitempty"`
}

// Create posts a review for a title.
//
// @Summary      Create review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReviewRequest  true  "Review"
// @Success      201   {object}  domain.Review
// @Failure      400   {object}  messageResponse
// @Router       /api/reviews [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, err := h.service.Create(c.Request().Context(), userID, ports.CreateReviewInput{
		MediaID:     string(req.MediaID),
		MediaType:   req.MediaType,
		MediaTitle:  req.MediaTitle,
		MediaPoster: req.MediaPoster,
		Rating:      req.Rating,
		Content:     req.Content,
	})
	if err != nil {
		return err
	}

	metrics.ReviewOpsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, review)
}

// ListForMedia returns the reviews of one title, newest first.
//
// @Summary      Reviews for a title
// @Tags         reviews
// @Produce      json
// @Param        mediaType  path      string  true  "movie or tv"
// @Param        mediaId    path      string  true  "Media id"
// @Success      200        {array}   domain.Review
// @Failure      400        {object}  messageResponse
// @Router       /api/reviews/{mediaType}/{mediaId} [get]
func (h *ReviewHandler) ListForMedia(c echo.Context) error {
	reviews, err := h.service.ListForMedia(c.Request().Context(), c.Param("mediaType"), c.Param("mediaId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}

// ListMine returns the caller's reviews, newest first.
//
// @Summary      My reviews
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Review
// @Router       /api/reviews/me [get]
func (h *ReviewHandler) ListMine(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	reviews, err := h.service.ListMine(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}

// Update edits the rating or content of the caller's review.
//
// @Summary      Update review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Review id"
// @Param        body  body      updateReviewRequest  true  "Changes"
// @Success      200   {object}  domain.Review
// @Failure      404   {object}  messageResponse
// @Router       /api/reviews/{id} [put]
func (h *ReviewHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, err := h.service.Update(c.Request().Context(), userID, c.Param("id"), ports.UpdateReviewInput{
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		return err
	}

	metrics.ReviewOpsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, review)
}

// Delete removes the caller's review.
//
// @Summary      Delete review
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/reviews/{id} [delete]
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}

	metrics.ReviewOpsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Review removed"})
}
