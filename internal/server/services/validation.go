package services

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskhub/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// validID reports whether id can name a row. Malformed ids are treated as
// missing rows by callers.
func validID(id string) bool {
	return validation.Validate(id, validation.Required, is.UUID) == nil
}

func idList(value interface{}) error {
	ids, _ := value.([]string)
	for _, id := range ids {
		if !validID(id) {
			return fmt.Errorf("invalid id %q", id)
		}
	}
	return nil
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", common.ErrValidation, err)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

type credentialsInput struct {
	Login    string
	Password string
}

func (in credentialsInput) Validate() error {
	return invalid(validation.ValidateStruct(&in,
		validation.Field(&in.Login, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Password, validation.Required, validation.Length(1, 72)),
	))
}
