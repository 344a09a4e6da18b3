// Package client talks to the HTTP API.
package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

const DefaultBaseURL = "http://localhost:3000"

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Unwrap lets callers test API errors with errors.Is against the errs sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case 400:
		return errs.ErrInvalidInput
	case 401:
		return errs.ErrNotAuthenticated
	case 403:
		return errs.ErrAuthorization
	case 404:
		return errs.ErrNotFound
	case 409:
		return errs.ErrConstraintViolation
	case 503:
		return errs.ErrBackendUnavailable
	default:
		return nil
	}
}

type AuthResult struct {
	Message             string         `json:"message"`
	Token               string         `json:"token"`
	User                models.UserDto `json:"user"`
	AcceptedInvitations int            `json:"acceptedInvitations"`
}

// Client is not safe for concurrent logins; requests themselves may run concurrently.
type Client struct {
	http  *resty.Client
	token string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/api/v1").
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: http}
}

func (c *Client) Token() string { return c.token }

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) LoggedIn() bool { return c.token != "" }

// do sends a request and decodes a 2xx body into out.
func (c *Client) do(method, path string, body, out any) error {
	req := c.http.R().SetError(&APIError{})
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr, _ := resp.Error().(*APIError)
		if apiErr == nil || apiErr.Message == "" {
			apiErr = &APIError{Message: resp.Status()}
		}
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}

func (c *Client) Signup(name, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(resty.MethodPost, "/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &res)
	if err == nil {
		c.token = res.Token
	}
	return res, err
}

func (c *Client) Login(email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(resty.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err == nil {
		c.token = res.Token
	}
	return res, err
}

// Logout ends the session server-side and forgets the token.
func (c *Client) Logout() error {
	err := c.do(resty.MethodPost, "/auth/logout", nil, nil)
	c.token = ""
	return err
}

func (c *Client) Me() (models.UserDto, error) {
	var user models.UserDto
	return user, c.do(resty.MethodGet, "/auth/me", nil, &user)
}

func (c *Client) UpdateProfile(in services.ProfileInput) (models.UserDto, error) {
	var user models.UserDto
	return user, c.do(resty.MethodPut, "/users/profile", in, &user)
}

func (c *Client) Invite(in services.CreateInvitationInput) (models.InvitationDto, error) {
	var inv models.InvitationDto
	return inv, c.do(resty.MethodPost, "/invitations", in, &inv)
}

func (c *Client) SentInvitations() ([]models.InvitationDto, error) {
	var invs []models.InvitationDto
	return invs, c.do(resty.MethodGet, "/invitations/sent", nil, &invs)
}

func (c *Client) ReceivedInvitations() ([]models.InvitationDto, error) {
	var invs []models.InvitationDto
	return invs, c.do(resty.MethodGet, "/invitations/received", nil, &invs)
}

func (c *Client) AcceptInvitation(id string) (models.Invitation, error) {
	var inv models.Invitation
	return inv, c.do(resty.MethodPut, "/invitations/"+id+"/accept", nil, &inv)
}

func (c *Client) DeclineInvitation(id string) (models.Invitation, error) {
	var inv models.Invitation
	return inv, c.do(resty.MethodPut, "/invitations/"+id+"/decline", nil, &inv)
}

func (c *Client) Connections() ([]models.ConnectionDto, error) {
	var conns []models.ConnectionDto
	return conns, c.do(resty.MethodGet, "/connections", nil, &conns)
}

func (c *Client) ConnectionStatus(userID string) (string, error) {
	var res struct {
		Status string `json:"status"`
	}
	return res.Status, c.do(resty.MethodGet, "/connections/status/"+userID, nil, &res)
}

func (c *Client) BlockConnection(userID string) error {
	return c.do(resty.MethodPut, "/connections/"+userID+"/block", nil, nil)
}

func (c *Client) RemoveConnection(userID string) error {
	return c.do(resty.MethodDelete, "/connections/"+userID, nil, nil)
}

func (c *Client) SendAffirmation(in services.SendInput) (models.Affirmation, error) {
	var a models.Affirmation
	return a, c.do(resty.MethodPost, "/affirmations", in, &a)
}

func (c *Client) ReceivedAffirmations() ([]models.Affirmation, error) {
	return c.affirmations("/affirmations/received")
}

func (c *Client) SentAffirmations() ([]models.Affirmation, error) {
	return c.affirmations("/affirmations/sent")
}

func (c *Client) FavoriteAffirmations() ([]models.Affirmation, error) {
	return c.affirmations("/affirmations/favorites")
}

func (c *Client) affirmations(path string) ([]models.Affirmation, error) {
	var list []models.Affirmation
	return list, c.do(resty.MethodGet, path, nil, &list)
}

func (c *Client) MarkAffirmationRead(id string) (models.Affirmation, error) {
	var a models.Affirmation
	return a, c.do(resty.MethodPut, "/affirmations/"+id+"/read", nil, &a)
}

func (c *Client) SetFavorite(id string, favorite bool) (models.Affirmation, error) {
	var a models.Affirmation
	return a, c.do(resty.MethodPut, "/affirmations/"+id+"/favorite", map[string]bool{"isFavorite": favorite}, &a)
}

func (c *Client) DeleteAffirmation(id string) error {
	return c.do(resty.MethodDelete, "/affirmations/"+id, nil, nil)
}

func (c *Client) AddPerson(in services.PersonInput) (models.Person, error) {
	var p models.Person
	return p, c.do(resty.MethodPost, "/people", in, &p)
}

func (c *Client) People() ([]models.Person, error) {
	var people []models.Person
	return people, c.do(resty.MethodGet, "/people", nil, &people)
}

func (c *Client) DeletePerson(id string) error {
	return c.do(resty.MethodDelete, "/people/"+id, nil, nil)
}

func (c *Client) Notifications() ([]models.Notification, error) {
	var list []models.Notification
	return list, c.do(resty.MethodGet, "/notifications", nil, &list)
}

func (c *Client) MarkNotificationRead(id string) error {
	return c.do(resty.MethodPut, "/notifications/"+id+"/read", nil, nil)
}
