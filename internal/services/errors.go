package services

import "errors"

// Authentication failures are surfaced to clients uniformly as 401; the
// distinct sentinels exist for internal diagnostics and tests.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrRevokedIdentity    = errors.New("identity revoked")
	ErrConflict           = errors.New("resource conflict")
	ErrNotFound           = errors.New("resource not found")
)
