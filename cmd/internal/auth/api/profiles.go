package authapi

import (
	"net/http"

	"conduit/cmd/internal/auth/session"
)

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := session.IdentityFrom(r.Context())
	viewerPtr := &viewer
	if !ok {
		viewerPtr = nil
	}

	p, err := h.store.GetProfile(r.Context(), r.PathValue("username"), viewerPtr)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) handleFollow(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())

	p, err := h.store.Follow(r.Context(), id, r.PathValue("username"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())

	p, err := h.store.Unfollow(r.Context(), id, r.PathValue("username"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}
