package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shrinker-io/shrinker/internal/app/model"
	"github.com/shrinker-io/shrinker/internal/app/repository"
	"github.com/shrinker-io/shrinker/internal/app/service"
	"github.com/shrinker-io/shrinker/internal/http/middleware"
	"go.uber.org/zap"
)

// LinkRegistrar is the create-or-reuse surface the API handler needs.
type LinkRegistrar interface {
	Register(ctx context.Context, rawURL string, ownerID *int64) (*model.Link, error)
}

// LinkReporter serves owner-scoped link analytics.
type LinkReporter interface {
	Analytics(ctx context.Context, code string, callerID int64) (*model.Link, *service.LinkAnalytics, error)
}

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger    *zap.Logger
	Auth      middleware.TokenAuthenticator
	Registrar LinkRegistrar
	Links     LinkReporter
}

// APIHandler implements the authenticated management endpoints.
type APIHandler struct {
	logger    *zap.Logger
	auth      middleware.TokenAuthenticator
	registrar LinkRegistrar
	links     LinkReporter
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:    logger,
		auth:      deps.Auth,
		registrar: deps.Registrar,
		links:     deps.Links,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	links := router.Group("/api/links", middleware.RequireAuth(h.auth))
	{
		links.Post("/", h.CreateLink)
		links.Get("/:code/analytics", h.LinkAnalytics)
	}
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	OriginalURL string `json:"original_url"`
}

// LinkResponse represents one link in API responses.
type LinkResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	VisitCount  int64     `json:"visit_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func toLinkResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		VisitCount:  link.VisitCount,
		CreatedAt:   link.CreatedAt,
	}
}

// CreateLink handles POST /api/links. Registration is idempotent per URL:
// registering an already-known URL returns the existing link.
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.OriginalURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "original_url is required",
		})
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	link, err := h.registrar.Register(ctx, req.OriginalURL, &userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to register link", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "failed to create link",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toLinkResponse(link))
}

// AnalyticsResponse is the link representation plus its click analytics.
type AnalyticsResponse struct {
	LinkResponse
	Analytics service.LinkAnalytics `json:"analytics"`
}

// LinkAnalytics handles GET /api/links/:code/analytics.
func (h *APIHandler) LinkAnalytics(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	link, analytics, err := h.links.Analytics(ctx, code, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "not authorized to view analytics for this link",
			})
		}
		h.logger.Error("failed to load link analytics", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(AnalyticsResponse{
		LinkResponse: toLinkResponse(link),
		Analytics:    *analytics,
	})
}
