// Package client talks to the privileged admin functions that create,
// delete and reset auth users. This service never holds those rights itself.
package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/go-resty/resty/v2"
)

const (
	createUserPath    = "/create-user"
	deleteUserPath    = "/delete-user"
	resetPasswordPath = "/reset-password"

	msgUpstreamUnavailable = "account service unavailable, try again later"
	msgUpstreamForbidden   = "account service rejected the credentials"
)

// CreateUserPayload is the body of create-user.
type CreateUserPayload struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	CodePrefix string `json:"codePrefix,omitempty"`
	FullName   string `json:"fullName"`
}

type userRefPayload struct {
	UserID   string `json:"userId"`
	Password string `json:"password,omitempty"`
}

// result is the envelope every admin function answers with.
type result struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	UserID  string `json:"userId"`
}

// Client calls the admin functions with a bearer token. Only network errors
// and 5xx answers are retried.
type Client struct {
	http *resty.Client
	log  *logger.Logger
}

// New creates an admin functions client.
func New(baseURL, token string, log *logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled)
			}
			return resp.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: httpClient, log: log}
}

// CreateUser creates the auth user and its profile and returns the new id.
func (c *Client) CreateUser(ctx context.Context, p CreateUserPayload) (string, error) {
	res, err := c.post(ctx, createUserPath, p)
	if err != nil {
		return "", err
	}
	if res.UserID == "" {
		return "", apperr.Internal("account service returned no user id").WithOp("accounts.CreateUser")
	}
	return res.UserID, nil
}

// DeleteUser removes the auth user.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.post(ctx, deleteUserPath, userRefPayload{UserID: userID})
	return err
}

// ResetPassword sets a new password for the user.
func (c *Client) ResetPassword(ctx context.Context, userID, password string) error {
	_, err := c.post(ctx, resetPasswordPath, userRefPayload{UserID: userID, Password: password})
	return err
}

func (c *Client) post(ctx context.Context, path string, body any) (result, error) {
	op := "accounts" + path
	var res result
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&res).
		SetError(&res).
		Post(path)
	if err != nil {
		c.log.Error("admin function request failed", "path", path, "error", err)
		return result{}, apperr.Wrap(apperr.KindTransient, msgUpstreamUnavailable, err).WithOp(op)
	}
	if err := mapStatus(resp.StatusCode(), res); err != nil {
		if apperr.Is(err, apperr.KindTransient) || apperr.Is(err, apperr.KindForbidden) {
			c.log.Error("admin function failed", "path", path, "status", resp.StatusCode(), "error", res.Error)
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return result{}, appErr.WithOp(op)
		}
		return result{}, err
	}
	return res, nil
}

// mapStatus turns an upstream answer into the error taxonomy.
func mapStatus(status int, res result) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Forbidden(msgUpstreamForbidden)
	case status >= http.StatusInternalServerError:
		return apperr.Transient(msgUpstreamUnavailable)
	case status == http.StatusConflict:
		return apperr.Conflict(messageOr(res.Error, "account already exists"))
	case status >= http.StatusBadRequest:
		return apperr.Validation(messageOr(res.Error, "account request rejected"))
	case !res.Success:
		return apperr.Validation(messageOr(res.Error, "account request rejected"))
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
