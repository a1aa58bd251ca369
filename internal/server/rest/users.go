package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	InviteCode string `json:"invite_code"`
	NormalPin  string `json:"normal_pin"`
	DuressPin  string `json:"duress_pin"`
}

// userResponse never carries pin hashes.
type userResponse struct {
	ID         string    `json:"id"`
	InviteCode string    `json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
}

type inviteRequest struct {
	UserID string `json:"user_id"`
}

type inviteResponse struct {
	InviteCode string `json:"invite_code"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.svc.Users.Register(r.Context(), req.InviteCode, req.NormalPin, req.DuressPin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, InviteCode: u.InviteCode, CreatedAt: u.CreatedAt})
}

func (h *Handler) createInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	inv, err := h.svc.Invites.Issue(r.Context(), req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inviteResponse{InviteCode: inv.Code})
}

type followRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Follows.Follow(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Followed successfully")
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Follows.Unfollow(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Unfollowed successfully")
}

func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Follows.ListFollowers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *Handler) following(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Follows.ListFollowing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// deleteFollower removes fid from the followers of id.
func (h *Handler) deleteFollower(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Follows.Unfollow(r.Context(), chi.URLParam(r, "fid"), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Follower deleted successfully")
}
