package auth

import "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"

type RegisterRequest struct {
	Identification string  `json:"identification"`
	FullName       string  `json:"full_name"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Password       string  `json:"password"`
	// RegisteredBy is the manager creating the account. Empty only for
	// the first manager of a fresh installation.
	RegisteredBy string `json:"-"`
}

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Identification) {
		errs = append(errs, validator.ValidationError{
			Field:   "identification",
			Message: "identification is required",
		})
	} else if len(r.Identification) > 30 {
		errs = append(errs, validator.ValidationError{
			Field:   "identification",
			Message: "identification must not exceed 30 characters",
		})
	}

	if validator.IsEmpty(r.FullName) {
		errs = append(errs, validator.ValidationError{
			Field:   "full_name",
			Message: "full_name is required",
		})
	}

	if r.Email != nil && !validator.IsValidEmail(*r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	if r.Phone != nil && !validator.IsValidPhoneNumber(*r.Phone) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone",
			Message: "phone must contain 7 to 15 digits",
		})
	}

	// Password
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	} else if len(r.Password) < 8 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 8 characters long",
		})
	} else if len(r.Password) > 72 {
		// bcrypt ignores anything past 72 bytes
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must not exceed 72 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LoginRequest struct {
	Identification string `json:"identification"`
	Password       string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Identification) {
		errs = append(errs, validator.ValidationError{
			Field:   "identification",
			Message: "identification is required",
		})
	}
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ManagerResponse struct {
	ID             string  `json:"id"`
	Identification string  `json:"identification"`
	FullName       string  `json:"full_name"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type AccessTokenResponse struct {
	AccessToken          string          `json:"access_token"`
	AccessTokenExpiresIn int64           `json:"access_token_expires_in"`
	Manager              ManagerResponse `json:"manager"`
}
