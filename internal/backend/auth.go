package backend

import (
	"errors"
	"strings"
)

const (
	loginPath  = "/auth/login"
	signupPath = "/auth/signup"
)

type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	User struct {
		ID    string `json:"id,omitempty"`
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
	} `json:"user"`
	Token string `json:"token"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(creds Credentials) (*Token, error) {
	creds.Name = strings.TrimSpace(creds.Name)
	if creds.Name == "" || creds.Password == "" {
		return nil, errors.New("name and password are required")
	}

	var token Token
	if err := c.postJSON(c.url(loginPath), creds, &token); err != nil {
		return nil, err
	}

	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, errors.New("backend returned empty access token")
	}

	return &token, nil
}

// Signup uses the legacy e-mail based account flow.
func (c *Client) Signup(req SignupRequest) (*SignupResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, errors.New("name, email and password are required")
	}

	var resp SignupResponse
	if err := c.postJSON(c.url(signupPath), req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
