package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/karsaku/session-gate/internal/api/dto"
	"github.com/karsaku/session-gate/internal/service"
	"github.com/karsaku/session-gate/internal/session"
	"github.com/karsaku/session-gate/pkg/errorutil"
)

// SessionHandler exposes the session gate.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get handles GET /session.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": toSessionResponse(h.sessions.State())})
}

// Screen handles GET /session/screens/:screen.
func (h *SessionHandler) Screen(c *fiber.Ctx) error {
	screen := session.Screen(c.Params("screen"))
	if !session.KnownScreen(screen) {
		return errorutil.NewNotFound("screen")
	}
	group := h.sessions.State().ScreenGroup
	return c.JSON(fiber.Map{"data": dto.ScreenAccessResponse{
		Screen:      string(screen),
		ScreenGroup: group,
		Allowed:     session.CanVisit(group, screen),
	}})
}

// Login handles POST /session/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	view, err := h.sessions.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toSessionResponse(view)})
}

// LoginProfessional handles POST /session/professional/login.
func (h *SessionHandler) LoginProfessional(c *fiber.Ctx) error {
	var req dto.ProfessionalLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	view, err := h.sessions.LoginProfessional(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toSessionResponse(view)})
}

// SubmitOnboarding handles POST /session/onboarding.
func (h *SessionHandler) SubmitOnboarding(c *fiber.Ctx) error {
	var req dto.OnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	view, receipt, err := h.sessions.SubmitOnboarding(c.UserContext(), req.Answers())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": dto.OnboardingResponse{
		Session: toSessionResponse(view),
		Receipt: receipt,
	}})
}

// Logout handles POST /session/logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	view, err := h.sessions.Logout(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toSessionResponse(view)})
}

func toSessionResponse(view service.SessionView) dto.SessionResponse {
	screens := make([]string, 0, len(view.Screens))
	for _, s := range view.Screens {
		screens = append(screens, string(s))
	}
	return dto.SessionResponse{
		State:       view.State,
		ScreenGroup: view.ScreenGroup,
		EntryScreen: string(view.Entry),
		Screens:     screens,
	}
}
