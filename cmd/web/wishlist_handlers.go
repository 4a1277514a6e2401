package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloomfield.org/bloom-web/internal/credentials"
	"bloomfield.org/bloom-web/internal/gateway"
	"bloomfield.org/bloom-web/internal/state"
	"bloomfield.org/bloom-web/internal/wishlist"
)

type wishlistResponse struct {
	Entries []wishlist.Entry `json:"entries"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
	Notices []string         `json:"notices,omitempty"`
}

func (a *app) wishlistPayload(client *state.Client) wishlistResponse {
	out := wishlistResponse{
		Entries: client.Wishlist.Entries(),
		Loading: client.Wishlist.Loading(),
		Notices: client.Notices.Drain(),
	}
	if err := client.Wishlist.Err(); err != nil {
		out.Error = "wishlist unavailable"
	}
	return out
}

// handleGetWishlist refreshes from the backend for signed-in users, so a
// wishlist page visit reconciles any provisional entries.
func (a *app) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	if userID := client.Credentials.Get(credentials.KeyUserID); userID != "" {
		client.Wishlist.Flush()
		_ = client.Wishlist.Fetch(r.Context(), userID)
	}
	a.respond(w, r, client, http.StatusOK, a.wishlistPayload(client))
}

type toggleWishlistRequest struct {
	ProductID string `json:"productId"`
}

func (a *app) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	var req toggleWishlistRequest
	if err := decodeBody(r, &req); err != nil || req.ProductID == "" {
		a.error(w, http.StatusBadRequest, "productId is required")
		return
	}

	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	snapshot := gateway.ProductSnapshot{ID: req.ProductID}
	if product, err := client.Gateway.GetProduct(r.Context(), req.ProductID); err == nil {
		snapshot = product.Snapshot()
	} else if errors.Is(err, gateway.ErrNotFound) {
		a.error(w, http.StatusNotFound, "unknown product")
		return
	}

	client.Wishlist.Toggle(r.Context(), snapshot, client.Credentials.Get(credentials.KeyUserID))
	a.respond(w, r, client, http.StatusOK, a.wishlistPayload(client))
}

func (a *app) handleRemoveWishlistEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")

	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	client.Wishlist.Remove(r.Context(), entryID, client.Credentials.Get(credentials.KeyUserID))
	a.respond(w, r, client, http.StatusOK, a.wishlistPayload(client))
}
