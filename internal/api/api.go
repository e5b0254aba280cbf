// Package api holds the JSON wire types shared by the HTTP backend and the
// remote client.
package api

import (
	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/storage"
)

// Resp is the standard JSON response body.
type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

// Error codes carried in Resp.ErrorCode.
const (
	CodeOK                 = 0
	CodeBadRequest         = 1000
	CodeValidation         = 1001
	CodeInvalidPlacement   = 1002
	CodeNotFound           = 1004
	CodeInvalidEmail       = 1101
	CodeWeakPassword       = 1102
	CodeEmailTaken         = 1103
	CodeInvalidCredentials = 1104
	CodeUnauthorized       = 401
	CodeRateLimited        = 429
	CodeInternal           = 500
)

// MessageSuccess is the message of every successful response.
const MessageSuccess = "success"

// Routes.
const (
	PathHealth      = "/health"
	PathSignUp      = "/api/v1/auth/signup"
	PathSignIn      = "/api/v1/auth/signin"
	PathSignOut     = "/api/v1/auth/signout"
	PathSession     = "/api/v1/auth/session"
	PathTasks       = "/api/v1/tasks"
	PathTasksBulk   = "/api/v1/tasks/bulk"
	PathTaskPattern = "/api/v1/tasks/:id"
)

// Credentials is the body of sign up and sign in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by sign up and sign in.
type AuthResult struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

// ValidationDetail is the Data of a CodeValidation response.
type ValidationDetail struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Limit int    `json:"limit"`
}

// NotFoundDetail is the Data of a CodeNotFound response for a task.
type NotFoundDetail struct {
	ID int64 `json:"id"`
}

// BulkRequest is the body of POST /api/v1/tasks/bulk. Record owners are
// replaced by the authenticated user.
type BulkRequest struct {
	Tasks []storage.Record `json:"tasks"`
}

// TaskList is the Data of list and bulk responses.
type TaskList struct {
	Tasks []storage.Record `json:"tasks"`
}
