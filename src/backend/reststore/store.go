// Package reststore implements backend.Backend against a PostgREST endpoint,
// the REST surface hosted Postgres providers expose.
package reststore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type Store struct {
	client *resty.Client
	apiKey string
}

var _ backend.Backend = (*Store)(nil)

// apiError is the error body PostgREST answers with.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func New(cfg Config) *Store {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", cfg.APIKey).
		SetError(&apiError{})

	log.Printf("REST backend configured at %s", cfg.URL)
	return &Store{client: client, apiKey: cfg.APIKey}
}

func (s *Store) Close(context.Context) error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

// request builds a request authorized as the session user when there is one,
// and as the anonymous API key otherwise.
func (s *Store) request(ctx context.Context) *resty.Request {
	token := s.apiKey
	if sess := session.Current(ctx); sess != nil && sess.AccessToken != "" {
		token = sess.AccessToken
	}
	return s.client.R().SetContext(ctx).SetAuthToken(token)
}

func (s *Store) QueryRows(ctx context.Context, table string, filter backend.Filter, order *backend.Order, dest any) error {
	if !backend.ValidIdentifier(table) {
		return fmt.Errorf("invalid table %q: %w", table, errs.ErrInvalidInput)
	}
	params, err := encodeFilter(filter)
	if err != nil {
		return err
	}
	params.Set("select", "*")
	if order != nil {
		if !backend.ValidIdentifier(order.Column) {
			return fmt.Errorf("invalid order column %q: %w", order.Column, errs.ErrInvalidInput)
		}
		dir := "asc"
		if order.Desc {
			dir = "desc"
		}
		params.Set("order", order.Column+"."+dir)
	}

	resp, err := s.request(ctx).
		SetQueryParamsFromValues(params).
		SetResult(dest).
		Get("/" + table)
	return check(resp, err)
}

func (s *Store) InsertRows(ctx context.Context, table string, rows any) error {
	if !backend.ValidIdentifier(table) {
		return fmt.Errorf("invalid table %q: %w", table, errs.ErrInvalidInput)
	}

	resp, err := s.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal").
		SetBody(rows).
		Post("/" + table)
	return check(resp, err)
}

func (s *Store) UpdateRows(ctx context.Context, table string, filter backend.Filter, patch map[string]any) (int64, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("update on %s without filter: %w", table, errs.ErrInvalidInput)
	}
	if !backend.ValidIdentifier(table) {
		return 0, fmt.Errorf("invalid table %q: %w", table, errs.ErrInvalidInput)
	}
	params, err := encodeFilter(filter)
	if err != nil {
		return 0, err
	}

	var affected []json.RawMessage
	resp, err := s.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(params).
		SetBody(patch).
		SetResult(&affected).
		Patch("/" + table)
	if err := check(resp, err); err != nil {
		return 0, err
	}
	return int64(len(affected)), nil
}

func (s *Store) DeleteRows(ctx context.Context, table string, filter backend.Filter) (int64, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("delete on %s without filter: %w", table, errs.ErrInvalidInput)
	}
	if !backend.ValidIdentifier(table) {
		return 0, fmt.Errorf("invalid table %q: %w", table, errs.ErrInvalidInput)
	}
	params, err := encodeFilter(filter)
	if err != nil {
		return 0, err
	}

	var affected []json.RawMessage
	resp, err := s.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(params).
		SetResult(&affected).
		Delete("/" + table)
	if err := check(resp, err); err != nil {
		return 0, err
	}
	return int64(len(affected)), nil
}

// CallRemoteProcedure posts args to /rpc/<name>. The function runs in one
// database transaction on the server.
func (s *Store) CallRemoteProcedure(ctx context.Context, name string, args map[string]any, result any) error {
	if !backend.ValidIdentifier(name) {
		return fmt.Errorf("invalid procedure %q: %w", name, errs.ErrInvalidInput)
	}

	req := s.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(args)
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post("/rpc/" + name)
	return check(resp, err)
}

// check maps transport failures and PostgREST status codes onto the error taxonomy.
func check(resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", errs.ErrBackendUnavailable, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	msg := resp.Status()
	if e, ok := resp.Error().(*apiError); ok && e.Message != "" {
		msg = e.Message
		if e.Code != "" {
			msg = e.Code + " " + msg
		}
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", errs.ErrInvalidInput, msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", errs.ErrNotAuthenticated, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", errs.ErrAuthorization, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", errs.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, msg)
	default:
		return fmt.Errorf("%w: %s", errs.ErrBackendUnavailable, msg)
	}
}
