package main

import (
	"net/http"

	"bloomfield.org/bloom-web/internal/format"
	"bloomfield.org/bloom-web/internal/gateway"
)

type adminOrderView struct {
	gateway.AdminOrder
	DisplayTotal string `json:"displayTotal"`
	PlacedOn     string `json:"placedOn"`
}

// handleAdminOrders serves the admin order listing. The route guard has
// already established the admin role; the backend enforces it again on the
// token itself.
func (a *app) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	orders, err := client.Gateway.AdminOrders(r.Context())
	if err != nil {
		a.error(w, http.StatusBadGateway, "orders unavailable")
		return
	}

	views := make([]adminOrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, adminOrderView{
			AdminOrder:   o,
			DisplayTotal: format.Currency(o.Total, "JPY"),
			PlacedOn:     format.Date(o.PlacedAt),
		})
	}
	a.respond(w, r, client, http.StatusOK, map[string]any{"orders": views})
}
