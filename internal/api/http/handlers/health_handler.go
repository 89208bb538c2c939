package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/observability"
	"github.com/karsaku/session-gate/internal/securestore"
	"github.com/karsaku/session-gate/internal/session"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	manager     *session.Manager
	store       securestore.Store
	ping        func(context.Context) error
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance. ping may be nil.
func NewHealthHandler(serviceName, version string, manager *session.Manager, store securestore.Store, ping func(context.Context) error, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		manager:     manager,
		store:       store,
		ping:        ping,
		metrics:     metrics,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness: bootstrap has finished and the secret store answers.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	select {
	case <-h.manager.Ready():
		depStatus["session"] = "ok"
	default:
		depStatus["session"] = "bootstrapping"
		ready = false
	}

	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			depStatus["secret_store_backend"] = err.Error()
			ready = false
		} else {
			depStatus["secret_store_backend"] = "ok"
		}
	}

	// A probe read exercises the whole store path, including decryption.
	if _, _, err := h.store.Get(ctx, domain.KeyRole); err != nil {
		depStatus["secret_store"] = err.Error()
		ready = false
	} else {
		depStatus["secret_store"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Metrics handles GET /metrics.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
