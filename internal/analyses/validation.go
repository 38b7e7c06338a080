package analyses

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// JobInput is the optional job an analysis is scored against.
type JobInput struct {
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	CompanyName    string `json:"companyName"`
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func (in *JobInput) normalize() {
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.JobDescription = strings.TrimSpace(in.JobDescription)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
}

// Validate bounds the job fields. All of them may be empty.
func (in JobInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.JobTitle, validation.Length(0, 200)),
		validation.Field(&in.JobDescription, validation.Length(0, 20000)),
		validation.Field(&in.CompanyName, validation.Length(0, 200)),
	)
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		fields := make(map[string]string, len(errs))
		for name, fe := range errs {
			fields[name] = fe.Error()
		}
		return &ValidationError{Fields: fields}
	}
	return &ValidationError{Fields: map[string]string{"_": err.Error()}}
}
