package service

import (
	"errors"
	"fmt"

	"cellscan/internal/repository"
)

// maxPasswordBytes is the longest input bcrypt hashes.
const maxPasswordBytes = 72

// Domain errors surfaced to handlers.
var (
	ErrDuplicateUsername   = repository.ErrDuplicateUsername
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingCredentials  = errors.New("username and password are required")
	ErrPasswordTooLong     = fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	ErrEmptyFilename       = errors.New("no selected file")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrMissingResultParams = errors.New("missing result parameters")
	ErrResultNotFound      = errors.New("result not found")
)
