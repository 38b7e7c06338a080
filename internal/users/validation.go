package users

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	SAIDNumber   string `json:"sa_id_number"`
	Password     string `json:"password"`
	ConsentPOPI  bool   `json:"consent_popi"`
	ConsentTerms bool   `json:"consent_terms"`
}

// ProfileUpdate holds the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Surname  *string `json:"surname"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.SAIDNumber = strings.TrimSpace(in.SAIDNumber)
}

// Validate checks the registration payload field by field.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Surname, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.SAIDNumber, validation.Required, validation.By(saIDRule)),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&in.ConsentPOPI, validation.By(mustConsent("POPI Act consent is required"))),
		validation.Field(&in.ConsentTerms, validation.By(mustConsent("terms and conditions must be accepted"))),
	)
}

func (u *ProfileUpdate) normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(u.Username)
	trim(u.Name)
	trim(u.Surname)
	if u.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*u.Email))
		u.Email = &e
	}
}

// Validate checks only the fields being changed.
func (u ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Username, validation.NilOrNotEmpty, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&u.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&u.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&u.Surname, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}

func saIDRule(value interface{}) error {
	s, _ := value.(string)
	return ValidateSAID(s)
}

func mustConsent(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		if v, ok := value.(bool); !ok || !v {
			return errors.New(msg)
		}
		return nil
	}
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
