package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// APIClient is the default AuthAPI implementation over net/http. It speaks
// the two JSON endpoints this package consumes: POST /login and
// POST /refresh-token.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
	debug      bool
}

// NewAPIClient returns a client rooted at baseURL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: defLogger{},
	}
}

// WithHTTPClient overrides the underlying http.Client.
func (c *APIClient) WithHTTPClient(client *http.Client) *APIClient {
	if client != nil {
		c.httpClient = client
	}
	return c
}

func (c *APIClient) WithLogger(logger Logger) *APIClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithDebug enables request payload dumps at debug level.
func (c *APIClient) WithDebug(debug bool) *APIClient {
	c.debug = debug
	return c
}

// Login satisfies the AuthAPI interface.
func (c *APIClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	payload := LoginRequest{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid login payload")
	}

	return c.postToken(ctx, "/login", payload)
}

// RefreshToken satisfies the AuthAPI interface.
func (c *APIClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, goerrors.New("refresh token is required", goerrors.CategoryBadInput)
	}

	return c.postToken(ctx, "/refresh-token", RefreshRequest{RefreshToken: refreshToken})
}

func (c *APIClient) postToken(ctx context.Context, path string, body any) (*TokenResponse, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
	}

	url := c.baseURL + path
	if c.debug {
		c.logger.Debug("POST %s %s", url, print.MaybePrettyJSON(body))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build auth request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "auth request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, goerrors.New(
			fmt.Sprintf("auth endpoint returned status %d", res.StatusCode),
			goerrors.CategoryAuth,
		)
	}

	out := &TokenResponse{}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode token response")
	}

	return out, nil
}

var _ AuthAPI = (*APIClient)(nil)
