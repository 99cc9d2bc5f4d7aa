// Package client - HTTP-клиент сервиса комментариев. Реализует commenttree.Backend.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/api"
	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const defaultTimeout = 10 * time.Second

type Option func(*resty.Client)

func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

func WithRetries(count int) Option {
	return func(c *resty.Client) { c.SetRetryCount(count) }
}

// Client ходит в REST API от имени одного пользователя.
type Client struct {
	http *resty.Client
}

// New создает клиент. Пустой token - анонимный зритель.
func New(baseURL, token string, opts ...Option) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if token != "" {
		c.SetAuthToken(token)
	}
	for _, opt := range opts {
		opt(c)
	}
	return &Client{http: c}
}

func (c *Client) CreateTrip(ctx context.Context, title string) (*domain.Trip, error) {
	var out domain.Trip
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(api.CreateTripRequest{Title: title}).
		SetResult(&out).
		SetError(&api.ErrorResponse{}).
		Post("/trips")
	if err := check("create trip", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	var out domain.Trip
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("tripId", tripID).
		SetResult(&out).
		SetError(&api.ErrorResponse{}).
		Get("/trips/{tripId}")
	if err := check("get trip", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Thread загружает страницу комментариев. limit 0 - размер страницы сервера.
func (c *Client) Thread(ctx context.Context, tripID string, limit int, cursor string) (*domain.Thread, error) {
	var out domain.Thread
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("tripId", tripID).
		SetResult(&out).
		SetError(&api.ErrorResponse{})
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}
	resp, err := req.Get("/trips/{tripId}/comments")
	if err := check("load thread", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateComment(ctx context.Context, tripID, content string) (*domain.TopLevelComment, error) {
	var out domain.TopLevelComment
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("tripId", tripID).
		SetBody(api.ContentRequest{Content: content}).
		SetResult(&out).
		SetError(&api.ErrorResponse{}).
		Post("/trips/{tripId}/comments")
	if err := check("create comment", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReply(ctx context.Context, tripID, parentID, content string) (*domain.Reply, error) {
	var out domain.Reply
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"tripId": tripID, "parentId": parentID}).
		SetBody(api.ContentRequest{Content: content}).
		SetResult(&out).
		SetError(&api.ErrorResponse{}).
		Post("/trips/{tripId}/comments/{parentId}/replies")
	if err := check("create reply", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetLike(ctx context.Context, commentID string, liked bool) (*domain.LikeState, error) {
	var out domain.LikeState
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("commentId", commentID).
		SetBody(api.LikeRequest{Liked: &liked}).
		SetResult(&out).
		SetError(&api.ErrorResponse{}).
		Patch("/comments/{commentId}/like")
	if err := check("set like", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetCommentsEnabled(ctx context.Context, tripID string, enabled bool) (*domain.Trip, error) {
	var out domain.Trip
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("tripId", tripID).
		SetBody(api.CommentsEnabledRequest{Enabled: &enabled}).
		SetResult(&out).
		SetError(&api.ErrorResponse{}).
		Patch("/trips/{tripId}/comments-enabled")
	if err := check("set comments enabled", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// check переводит ответ сервера в доменные ошибки.
// Все, что не удалось отнести к валидации или отсутствию, - TransportError.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	body, _ := resp.Error().(*api.ErrorResponse)
	if body == nil || body.Code == "" {
		return &domain.TransportError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(http.StatusText(resp.StatusCode()))}
	}

	switch {
	case resp.StatusCode() == http.StatusBadRequest && body.Code == api.CodeValidation:
		return &domain.ValidationError{Field: body.Field, Reason: body.Reason}
	case resp.StatusCode() == http.StatusNotFound && body.Code == api.CodeNotFound:
		return &domain.NotFoundError{Kind: body.Kind, ID: body.ID}
	case body.Code == api.CodeSubmitInProgress:
		return domain.ErrSubmitInProgress
	}
	return &domain.TransportError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("%s: %s", body.Code, body.Error)}
}
