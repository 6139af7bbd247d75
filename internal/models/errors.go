package models

import "errors"

// Ошибки игрового движка и хранилища сессий.
var (
	// Session Store
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionTokenCollision = errors.New("session token already in use")

	// Story Graph
	ErrInvalidNodeReference = errors.New("story node reference is invalid")
	ErrInvalidStoryGraph    = errors.New("story graph is invalid")

	// Gameplay
	ErrInvalidChoiceIndex = errors.New("choice index is out of range")

	// General Request/Server Errors
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)

// Коды ошибок, которые видит клиент в поле "error".
const (
	ErrCodeSessionNotFound      = "session_not_found"
	ErrCodeInvalidNodeReference = "invalid_node_reference"
	ErrCodeInvalidChoiceIndex   = "invalid_choice_index"
	ErrCodeBadRequest           = "bad_request"
	ErrCodeRateLimited          = "rate_limited"
	ErrCodeInternal             = "internal_error"
)
