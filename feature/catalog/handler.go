package catalog

import (
	"errors"

	"reattach/core/bridge"
	"reattach/core/logger"
	"reattach/core/orm"
	"reattach/core/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the catalog.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/catalog")
	group.Get("/customers/:id", h.HandleGetCustomer)
	group.Put("/customers/:id", h.HandleUpdateCustomer)
	group.Get("/tags/:id/reference", h.HandleTagReference)
	group.Get("/tags/:id/usage", h.HandleTagUsage)
	group.Post("/references/resolve", h.HandleResolveReference)
	group.Get("/classify/:type", h.HandleClassify)
}

// HandleGetCustomer returns a detached customer with its association descriptors.
// Query flags: orders=true fetches the orders, stateful=true sends descriptor tokens.
func (h *Handler) HandleGetCustomer(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "customer id must be a positive integer")
	}

	opts := FetchOptions{
		Orders:   c.QueryBool("orders", false),
		Stateful: c.QueryBool("stateful", false),
	}
	customer, err := h.service.GetCustomer(c.Context(), uint(id), opts)
	if err != nil {
		return failure(c, l, "Customer fetch failed", err)
	}
	return c.JSON(customer)
}

// HandleUpdateCustomer applies a detached customer sent back by the client.
func (h *Handler) HandleUpdateCustomer(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "customer id must be a positive integer")
	}

	var req UpdateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	customer, err := h.service.UpdateCustomer(c.Context(), uint(id), req)
	if err != nil {
		return failure(c, l, "Customer update failed", err)
	}
	return c.JSON(customer)
}

// HandleTagReference returns the proxy descriptor of a tag.
func (h *Handler) HandleTagReference(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "tag id must be a positive integer")
	}
	ref, err := h.service.TagReference(c.Context(), uint(id))
	if err != nil {
		return failure(c, l, "Tag reference failed", err)
	}
	return c.JSON(ref)
}

// HandleResolveReference loads the entity named by a proxy descriptor.
func (h *Handler) HandleResolveReference(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	var ref bridge.ProxyDescriptor
	if err := c.BodyParser(&ref); err != nil {
		return badRequest(c, err.Error())
	}
	entity, err := h.service.ResolveReference(c.Context(), &ref)
	if err != nil {
		return failure(c, l, "Reference resolution failed", err)
	}
	return c.JSON(fiber.Map{
		"class":  ref.Class,
		"entity": entity,
	})
}

// HandleTagUsage counts the customers carrying a tag.
func (h *Handler) HandleTagUsage(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "tag id must be a positive integer")
	}
	usage, err := h.service.TagUsage(c.Context(), uint(id))
	if err != nil {
		return failure(c, l, "Tag usage query failed", err)
	}
	return c.JSON(usage)
}

// HandleClassify reports the persistence classification of a registered type.
func (h *Handler) HandleClassify(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	result, err := h.service.Classify(c.Params("type"))
	if err != nil {
		return failure(c, l, "Classification failed", err)
	}
	return c.JSON(result)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

// failure maps service errors to HTTP statuses. Only server faults are logged as errors.
func failure(c *fiber.Ctx, l *zap.Logger, message string, err error) error {
	status := statusOf(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(message, zap.Error(err))
	} else {
		l.Debug(message, zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, orm.ErrObjectNotFound),
		errors.Is(err, orm.ErrUnknownEntity):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusGone
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, bridge.ErrInvalidDescriptor),
		errors.Is(err, bridge.ErrUnknownWrapper),
		errors.Is(err, orm.ErrUnknownRole),
		errors.Is(err, store.ErrInvalidToken):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
