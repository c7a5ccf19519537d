package authapi

import (
	"net/http"
	"time"

	"conduit/cmd/identity"
	"conduit/cmd/internal/apperr"
	"conduit/cmd/internal/auth/session"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	in, ok := readUser[registerRequest](w, r, h.cfg.MaxBodyBytes)
	if !ok {
		return
	}

	username := identity.NormalizeUsername(in.Username)
	email := identity.NormalizeEmail(in.Email)

	v := &apperr.ValidationError{}
	identity.CheckUsername(v, username)
	identity.CheckEmail(v, email)
	if err := h.hasher.Validate(in.Password); err != nil {
		msg, ok := passwordProblem(err)
		if !ok {
			h.writeAppError(w, r, err)
			return
		}
		v.Add("password", msg)
	}
	if err := v.Err(); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	hash, err := h.hasher.Hash(ctx, in.Password)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	u, err := h.store.CreateUser(ctx, identity.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		h.writeAppError(w, r, identity.Constraints.Translate(err))
		return
	}

	h.log.Info("auth.register.ok", "user_id", u.ID)
	h.respondUser(w, r, u)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	in, ok := readUser[loginRequest](w, r, h.cfg.MaxBodyBytes)
	if !ok {
		return
	}

	email := identity.NormalizeEmail(in.Email)
	v := &apperr.ValidationError{}
	if email == "" {
		v.Add("email", "can't be blank")
	}
	if in.Password == "" {
		v.Add("password", "can't be blank")
	}
	if err := v.Err(); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	a := loginAttempt{ip: clientIP(r, h.cfg.TrustProxy), email: email}

	if blocked := h.checkLoginThrottle(w, r, a, now); blocked {
		return
	}

	ua, err := h.store.GetUserAuthByEmail(ctx, email)
	if err != nil && !apperr.IsNotFound(err) {
		h.writeAppError(w, r, err)
		return
	}

	// An unknown account costs the same work and ends in the same answer as a
	// wrong password, including when the pool cannot run the work at all.
	reason := "bad_password"
	if err != nil {
		reason = "not_found"
		err = h.hasher.DummyVerify(ctx, in.Password)
	} else {
		err = h.hasher.Verify(ctx, in.Password, ua.PasswordHash)
	}
	if err != nil {
		if apperr.IsUnauthorized(err) {
			h.loginFailed(r, a, now, reason)
			h.writeAppError(w, r, apperr.Unauthorized("auth.login"))
			return
		}
		h.writeAppError(w, r, err)
		return
	}

	h.loginSucceeded(r, a, ua.ID)
	h.respondUser(w, r, ua.User)
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())

	u, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		h.writeAppError(w, r, accountGone(err))
		return
	}
	h.respondUser(w, r, u)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())

	in, ok := readUser[updateRequest](w, r, h.cfg.MaxBodyBytes)
	if !ok {
		return
	}

	patch := identity.UserPatch{Bio: in.Bio, Image: in.Image, Now: time.Now().UTC()}
	v := &apperr.ValidationError{}
	if in.Username != nil {
		u := identity.NormalizeUsername(*in.Username)
		identity.CheckUsername(v, u)
		patch.Username = &u
	}
	if in.Email != nil {
		e := identity.NormalizeEmail(*in.Email)
		identity.CheckEmail(v, e)
		patch.Email = &e
	}
	identity.CheckProfile(v, in.Bio, in.Image)
	if in.Password != nil {
		if err := h.hasher.Validate(*in.Password); err != nil {
			msg, ok := passwordProblem(err)
			if !ok {
				h.writeAppError(w, r, err)
				return
			}
			v.Add("password", msg)
		}
	}
	if err := v.Err(); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	if in.Password != nil {
		hash, err := h.hasher.Hash(ctx, *in.Password)
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}
		patch.PasswordHash = &hash
	}

	u, err := h.store.UpdateUser(ctx, id, patch)
	if err != nil {
		h.writeAppError(w, r, accountGone(identity.Constraints.Translate(err)))
		return
	}
	h.respondUser(w, r, u)
}

// respondUser writes u with a freshly issued token.
func (h *Handler) respondUser(w http.ResponseWriter, r *http.Request, u identity.User) {
	tok, err := h.tokens.Issue(u.ID)
	if err != nil {
		h.writeAppError(w, r, apperr.Internal("auth.issue_token", err))
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u, tok))
}

// accountGone turns a missing account behind a valid token into an authentication failure.
func accountGone(err error) error {
	if apperr.IsNotFound(err) {
		return apperr.Unauthorized("auth.current_user")
	}
	return err
}
