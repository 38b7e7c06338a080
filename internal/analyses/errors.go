package analyses

import "errors"

var (
	ErrNotFound       = errors.New("analysis not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrResumeNotFound = errors.New("resume not found")
	ErrNoResumeText   = errors.New("resume has no extracted text")
)
