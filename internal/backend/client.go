// Package backend talks to the remote GraphQL API for login and onboarding.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/config"
	"github.com/karsaku/session-gate/internal/domain"
)

// Client is a GraphQL-over-HTTP client for the session operations.
type Client struct {
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient builds a client for cfg.GraphQLURL.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{url: cfg.GraphQLURL, timeout: cfg.Timeout(), logger: logger.Named("backend")}
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// errGraphQL carries the messages of a GraphQL errors array.
type errGraphQL struct {
	messages []string
}

func (e *errGraphQL) Error() string {
	return strings.Join(e.messages, "; ")
}

// do posts one operation and decodes its data into out. A GraphQL errors
// array comes back as *errGraphQL; transport problems wrap ErrBackendUnavailable.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, token string, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, op, err)
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.url).
		JSON(graphQLRequest{Query: query, OperationName: op, Variables: vars}).
		Timeout(timeout)
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	start := time.Now()
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		c.logger.Warn("graphql request failed", zap.String("operation", op), zap.Errors("errors", errs))
		return fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, op, errors.Join(errs...))
	}
	c.logger.Debug("graphql response",
		zap.String("operation", op),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)))

	var resp graphQLResponse
	decodeErr := json.Unmarshal(body, &resp)
	if decodeErr == nil && len(resp.Errors) > 0 {
		gqlErr := &errGraphQL{}
		for _, e := range resp.Errors {
			gqlErr.messages = append(gqlErr.messages, e.Message)
		}
		c.logger.Info("graphql errors", zap.String("operation", op), zap.Strings("messages", gqlErr.messages))
		return gqlErr
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return fmt.Errorf("%w: %s: HTTP %d", domain.ErrBackendUnavailable, op, status)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s: decode response: %w", domain.ErrBackendUnavailable, op, decodeErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: %s: decode data: %w", domain.ErrBackendUnavailable, op, err)
	}
	return nil
}

// classify maps GraphQL errors to the business sentinel for the operation.
func classify(err error, business error) error {
	var gqlErr *errGraphQL
	if errors.As(err, &gqlErr) {
		return fmt.Errorf("%w: %s", business, gqlErr.Error())
	}
	return err
}
