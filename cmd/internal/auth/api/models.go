package authapi

import "conduit/cmd/identity"

type userEnvelope[T any] struct {
	User T `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

type userResponse struct {
	Email    string  `json:"email"`
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Bio      string  `json:"bio"`
	Image    *string `json:"image"`
}

type profileEnvelope struct {
	Profile profileResponse `json:"profile"`
}

type profileResponse struct {
	Username  string  `json:"username"`
	Bio       string  `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

func toUserResponse(u identity.User, token string) userEnvelope[userResponse] {
	return userEnvelope[userResponse]{User: userResponse{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}}
}

func toProfileResponse(p identity.Profile) profileEnvelope {
	return profileEnvelope{Profile: profileResponse{
		Username:  p.Username,
		Bio:       p.Bio,
		Image:     p.Image,
		Following: p.Following,
	}}
}
