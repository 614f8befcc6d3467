package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrBadPassword is returned when the dashboard rejects the password.
var ErrBadPassword = fmt.Errorf("login rejected: bad password")

// ErrRateLimited is returned when the login endpoint throttles the
// client; retry after a minute.
var ErrRateLimited = fmt.Errorf("login rejected: too many attempts")

// LoginClient performs the HTTP session login the dashboard requires
// before admin intents are honored on the channel.
type LoginClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewLoginClient creates a login client against the dashboard base URL.
func NewLoginClient(baseURL string, logger *zap.Logger) *LoginClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRedirectPolicy(resty.NoRedirectPolicy()).
		SetHeader("Accept", "text/html")

	return &LoginClient{
		httpClient: client,
		logger:     logger,
	}
}

// Login posts the admin password and returns the session id. A success
// is a redirect back to the dashboard carrying a session cookie.
func (c *LoginClient) Login(password string) (string, error) {
	resp, err := c.httpClient.R().
		SetFormData(map[string]string{"password": password}).
		Post("/login")
	if err != nil && resp == nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrBadPassword
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session" && cookie.Value != "" {
			c.logger.Info("dashboard login succeeded")
			return cookie.Value, nil
		}
	}

	return "", ErrBadPassword
}
