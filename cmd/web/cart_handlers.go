package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloomfield.org/bloom-web/internal/cart"
	"bloomfield.org/bloom-web/internal/credentials"
	"bloomfield.org/bloom-web/internal/format"
	"bloomfield.org/bloom-web/internal/gateway"
	"bloomfield.org/bloom-web/internal/state"
)

type cartResponse struct {
	Items         []cart.Item `json:"items"`
	Subtotal      int64       `json:"subtotal"`
	DisplayTotal  string      `json:"displayTotal"`
	Notices       []string    `json:"notices,omitempty"`
	Authenticated bool        `json:"authenticated"`
}

func (a *app) cartPayload(client *state.Client) cartResponse {
	subtotal := client.Cart.Subtotal()
	return cartResponse{
		Items:         client.Cart.Items(),
		Subtotal:      subtotal,
		DisplayTotal:  format.Currency(subtotal, "JPY"),
		Notices:       client.Notices.Drain(),
		Authenticated: client.Sessions.Current().Authenticated,
	}
}

func (a *app) handleGetCart(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	a.respond(w, r, client, http.StatusOK, a.cartPayload(client))
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// handleAddCartItem applies the add locally and answers immediately; the
// backend write happens behind the response.
func (a *app) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil || req.ProductID == "" {
		a.error(w, http.StatusBadRequest, "productId is required")
		return
	}

	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	product, err := client.Gateway.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			a.error(w, http.StatusNotFound, "unknown product")
			return
		}
		a.error(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	client.Cart.AddItem(r.Context(), cart.Item{
		ProductID: product.ID,
		Quantity:  req.Quantity,
		Price:     product.Price,
		Name:      product.Name,
		Image:     product.Image,
	}, client.Credentials.Get(credentials.KeyUserID))

	a.respond(w, r, client, http.StatusOK, a.cartPayload(client))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (a *app) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid quantity payload")
		return
	}

	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if _, ok := client.Cart.Get(productID); !ok {
		a.error(w, http.StatusNotFound, "item not in cart")
		return
	}

	client.Cart.UpdateQuantity(r.Context(), productID, req.Quantity, client.Credentials.Get(credentials.KeyUserID))
	a.respond(w, r, client, http.StatusOK, a.cartPayload(client))
}

func (a *app) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	client.Cart.RemoveItem(r.Context(), productID, client.Credentials.Get(credentials.KeyUserID))
	a.respond(w, r, client, http.StatusOK, a.cartPayload(client))
}
