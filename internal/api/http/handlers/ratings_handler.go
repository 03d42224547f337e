package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RatingsHandler manages ticket ratings and agent score lookups.
type RatingsHandler struct {
	service *service.RatingService
}

// NewRatingsHandler constructs handler.
func NewRatingsHandler(ratingService *service.RatingService) *RatingsHandler {
	return &RatingsHandler{service: ratingService}
}

// CreateRating POST /tickets/:id/rating.
func (h *RatingsHandler) CreateRating(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rating, err := h.service.CreateRating(c.Context(), principal, c.Params("id"), service.RatingInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	}, requestMeta(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ratingResponse(rating)})
}

// UpdateRating PATCH /tickets/:id/rating.
func (h *RatingsHandler) UpdateRating(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rating, err := h.service.UpdateRating(c.Context(), principal, c.Params("id"), service.RatingInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	}, requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ratingResponse(rating)})
}

// GetRating GET /tickets/:id/rating.
func (h *RatingsHandler) GetRating(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	rating, err := h.service.GetRating(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ratingResponse(rating)})
}

// AgentScore GET /agents/:id/score.
func (h *RatingsHandler) AgentScore(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	agentID := c.Params("id")
	average, count, err := h.service.AgentScore(c.Context(), agentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentScoreResponse{
		AgentID: agentID,
		Average: average,
		Count:   count,
	}})
}

func ratingResponse(rating *domain.TicketRating) dto.RatingResponse {
	return dto.RatingResponse{
		ID:            rating.ID,
		TicketID:      rating.TicketID,
		RatedByUserID: rating.RatedByUserID,
		RatedAgentID:  rating.RatedAgentID,
		Rating:        rating.Rating,
		Comment:       rating.Comment,
		CreatedAt:     rating.CreatedAt,
	}
}
