package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/format"
	"bloomfield.org/bloom-web/internal/gateway"
)

type productView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DisplayPrice    string `json:"displayPrice"`
	Image           string `json:"image,omitempty"`
	Category        string `json:"category,omitempty"`
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
	Stock           int    `json:"stock"`
	InWishlist      bool   `json:"inWishlist"`
}

func (a *app) productView(p gateway.Product, inWishlist bool) productView {
	view := productView{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		DisplayPrice: format.Currency(p.Price, "JPY"),
		Image:        p.Image,
		Category:     p.Category,
		Stock:        p.Stock,
		InWishlist:   inWishlist,
	}
	html, err := a.renderer.Render(p.Description)
	if err != nil {
		a.logger.Warn("description render failed", zap.String("product_id", p.ID), zap.Error(err))
	} else {
		view.DescriptionHTML = html
	}
	return view
}

func (a *app) handleListProducts(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	products, err := client.Gateway.ListProducts(r.Context())
	if err != nil {
		a.error(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, a.productView(p, client.Wishlist.IsInWishlist(p.ID)))
	}
	a.respond(w, r, client, http.StatusOK, map[string]any{"products": views})
}

func (a *app) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	product, err := client.Gateway.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			a.error(w, http.StatusNotFound, "unknown product")
			return
		}
		a.error(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	a.respond(w, r, client, http.StatusOK, a.productView(product, client.Wishlist.IsInWishlist(product.ID)))
}
