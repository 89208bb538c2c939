// Package devbackend is a local stand-in for the remote GraphQL backend. It
// serves the login, professional login and preference mutations the session
// gateway calls.
package devbackend

import (
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/auth"
	"github.com/karsaku/session-gate/internal/config"
	"github.com/karsaku/session-gate/internal/domain"
)

// Server hosts the dev GraphQL endpoint.
type Server struct {
	app        *fiber.App
	tokens     *auth.TokenManager
	accounts   *accountStore
	bcryptCost int
	logger     *zap.Logger
}

// NewServer builds the server and registers POST /graphql.
func NewServer(cfg config.AuthConfig, logger *zap.Logger) *Server {
	s := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		accounts:   newAccountStore(),
		bcryptCost: cfg.BcryptCost,
		logger:     logger.Named("devbackend"),
	}

	authMiddleware := auth.NewAuthMiddleware(s.tokens)
	s.app.Post("/graphql", authMiddleware.Handle, s.handleGraphQL)
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// AddAccount registers an account with a bcrypt-hashed password.
func (s *Server) AddAccount(seed SeedAccount) (*domain.Account, error) {
	hash, err := auth.HashPassword(seed.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		Login:        seed.Login,
		DisplayName:  seed.DisplayName,
		PasswordHash: hash,
		Role:         seed.Role,
	}
	if err := s.accounts.create(account); err != nil {
		return nil, err
	}
	s.logger.Info("dev account added", zap.String("login", seed.Login), zap.String("role", string(seed.Role)))
	return account, nil
}

// Preferences returns the last questionnaire stored for accountID.
func (s *Server) Preferences(accountID string) (domain.Preferences, bool) {
	return s.accounts.getPreferences(accountID)
}

type graphQLRequest struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName"`
	Variables     json.RawMessage `json:"variables"`
}

func (s *Server) handleGraphQL(c *fiber.Ctx) error {
	var req graphQLRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(graphQLErrors("malformed request body"))
	}
	if len(req.Variables) == 0 || string(req.Variables) == "null" {
		req.Variables = json.RawMessage("{}")
	}

	op := req.OperationName
	if op == "" {
		op = detectOperation(req.Query)
	}

	var (
		data fiber.Map
		err  error
	)
	switch op {
	case "Login":
		data, err = s.login(req.Variables)
	case "LoginProfessional":
		data, err = s.loginProfessional(req.Variables)
	case "UpdateUserPreferences":
		principal, _ := auth.PrincipalFromContext(c)
		data, err = s.updateUserPreferences(principal, req.Variables)
	default:
		err = errors.New("unknown operation " + op)
	}

	if err != nil {
		s.logger.Info("graphql operation rejected", zap.String("operation", op), zap.Error(err))
		return c.JSON(graphQLErrors(err.Error()))
	}
	return c.JSON(fiber.Map{"data": data})
}

func graphQLErrors(messages ...string) fiber.Map {
	errs := make([]fiber.Map, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, fiber.Map{"message": m})
	}
	return fiber.Map{"data": nil, "errors": errs}
}

func detectOperation(query string) string {
	switch {
	case strings.Contains(query, "loginProfessional("):
		return "LoginProfessional"
	case strings.Contains(query, "login("):
		return "Login"
	case strings.Contains(query, "updateUserPreferences("):
		return "UpdateUserPreferences"
	default:
		return ""
	}
}

var errInvalidCredentials = errors.New("invalid credentials")

func (s *Server) authenticate(role domain.Role, login, password string) (*domain.Account, error) {
	account, err := s.accounts.getByLogin(role, login)
	if err != nil {
		return nil, errInvalidCredentials
	}
	if account.Status != domain.AccountStatusActive {
		return nil, errors.New("account suspended")
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	return account, nil
}

func (s *Server) login(raw json.RawMessage) (fiber.Map, error) {
	var vars struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, errors.New("invalid variables")
	}

	account, err := s.authenticate(domain.RoleUser, vars.Username, vars.Password)
	if err != nil {
		return nil, err
	}
	token, _, err := s.tokens.GenerateToken(account.ID, account.Role, account.DisplayName)
	if err != nil {
		return nil, err
	}
	return fiber.Map{"login": fiber.Map{
		"access_token": token,
		"userId":       account.ID,
		"username":     account.Login,
	}}, nil
}

func (s *Server) loginProfessional(raw json.RawMessage) (fiber.Map, error) {
	var vars struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, errors.New("invalid variables")
	}

	account, err := s.authenticate(domain.RoleProfessional, vars.Email, vars.Password)
	if err != nil {
		return nil, err
	}
	token, _, err := s.tokens.GenerateToken(account.ID, account.Role, account.DisplayName)
	if err != nil {
		return nil, err
	}
	return fiber.Map{"loginProfessional": fiber.Map{
		"access_token":   token,
		"professionalId": account.ID,
		"name":           account.DisplayName,
	}}, nil
}

func (s *Server) updateUserPreferences(principal *auth.Principal, raw json.RawMessage) (fiber.Map, error) {
	if err := auth.RequireRole(principal, domain.RoleUser); err != nil {
		return nil, err
	}

	var vars struct {
		Job             string   `json:"job"`
		DailyActivities []string `json:"dailyActivities"`
		StressLevel     int      `json:"stressLevel"`
		PreferredFoods  []string `json:"preferredFoods"`
		AvoidedFoods    []string `json:"avoidedFoods"`
		Domicile        string   `json:"domicile"`
		Date            string   `json:"date"`
	}
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, errors.New("invalid variables")
	}
	if len(vars.DailyActivities) == 0 || strings.TrimSpace(vars.Domicile) == "" {
		return nil, errors.New("dailyActivities and domicile are required")
	}
	answers := domain.OnboardingAnswers(vars)

	prefs := s.accounts.savePreferences(principal.AccountID, answers)
	lastDate := answers.Date
	if lastDate == "" {
		lastDate = prefs.CreatedAt.Format(time.RFC3339)
	}
	return fiber.Map{"updateUserPreferences": fiber.Map{
		"_id":              prefs.ID,
		"lastQuestionDate": lastDate,
	}}, nil
}
