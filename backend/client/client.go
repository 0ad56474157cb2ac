// Package client talks to the lingua backend over HTTP. Client implements
// assessment.Tracker against the progress endpoints.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"lingua/backend/assessment"
	"lingua/backend/models"
)

const defaultTimeout = 10 * time.Second

var ErrNotLoggedIn = errors.New("client: not logged in")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend answered %d", e.Status)
	}
	return fmt.Sprintf("backend answered %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

var _ assessment.Tracker = (*Client)(nil)

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
}

// WithToken sets the JWT sent with every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.timeout = d
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	body := fiber.Map{"username": username, "password": password}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login", body, &out, false); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return errors.New("login: empty token in response")
	}
	c.token = out.Token
	return nil
}

func (c *Client) UpdateLessonProgress(ctx context.Context, record models.LessonRecord) error {
	return c.do(ctx, fiber.MethodPost, "/api/progress/lessons", record, nil, true)
}

func (c *Client) AddXP(ctx context.Context, amount int) error {
	return c.do(ctx, fiber.MethodPost, "/api/progress/xp", fiber.Map{"amount": amount, "source": "assessment"}, nil, true)
}

func (c *Client) UnlockChapter(ctx context.Context, chapterID string) error {
	return c.do(ctx, fiber.MethodPost, "/api/progress/chapters/"+url.PathEscape(chapterID)+"/unlock", nil, nil, true)
}

func (c *Client) Overview(ctx context.Context) (*models.ProgressOverview, error) {
	var out models.ProgressOverview
	if err := c.do(ctx, fiber.MethodGet, "/api/progress", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, auth bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if auth && c.token == "" {
		return ErrNotLoggedIn
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	agent.Timeout(timeout)
	if auth {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if body != nil {
		agent.JSON(body)
	}

	// Bytes releases the agent.
	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}
