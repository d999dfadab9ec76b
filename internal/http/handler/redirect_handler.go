package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shrinker-io/shrinker/internal/app/repository"
	"go.uber.org/zap"
)

// Resolver maps a short code to its redirect target.
type Resolver interface {
	Resolve(ctx context.Context, code, ip, userAgent string) (string, error)
}

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger    *zap.Logger
	Redirects Resolver
}

// RedirectHandler serves the public short-link hop.
type RedirectHandler struct {
	logger    *zap.Logger
	redirects Resolver
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:    logger,
		redirects: deps.Redirects,
	}
}

// Register wires redirect routes onto the provided router. The catch-all
// :code route must be registered after every other route.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:code", h.Redirect)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "shrinker",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Redirect handles GET /:code.
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link code",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := h.redirects.Resolve(ctx, code, c.IP(), c.Get("User-Agent"))
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "short link not found",
			})
		}
		h.logger.Error("failed to resolve short link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	// Temporary on purpose: a permanent redirect would let clients cache the
	// hop and bypass visit counting forever.
	h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", target))
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}
