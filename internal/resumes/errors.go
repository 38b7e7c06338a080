package resumes

import "errors"

var (
	ErrNotFound     = errors.New("resume not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTooLarge     = errors.New("file exceeds maximum upload size")
)
