package auth

import (
	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(255)
	v.Field("password", d.Password).Required()
	return v.Validate()
}
