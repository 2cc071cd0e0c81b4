package auth

import "fmt"

// APIError is an error returned by the auth service.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("auth: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth: %s: %s", e.Code, e.Message)
}

type credentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Options  *signUpOptions `json:"options,omitempty"`
}

type signUpOptions struct {
	DisplayName string `json:"displayName,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionPayload struct {
	AccessToken          string `json:"accessToken"`
	AccessTokenExpiresIn int64  `json:"accessTokenExpiresIn"`
	RefreshToken         string `json:"refreshToken"`
	User                 *User  `json:"user"`
}

type signInResponse struct {
	Session *sessionPayload `json:"session"`
}
