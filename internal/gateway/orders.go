package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AdminOrder is one row of the admin order listing.
type AdminOrder struct {
	ID       string      `json:"id"`
	UserID   string      `json:"userId"`
	Status   string      `json:"status"`
	Total    int64       `json:"total"`
	PlacedAt time.Time   `json:"placedAt"`
	Items    []OrderLine `json:"items,omitempty"`
}

// OrderLine is a purchased line within an order.
type OrderLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// AdminOrders fetches the full order listing. The backend enforces the admin
// requirement; a non-admin token comes back as 401 and trips the logout hook.
func (c *Client) AdminOrders(ctx context.Context) ([]AdminOrder, error) {
	if c.FixtureMode() {
		return fixtureAdminOrders(), nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/order/admin", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var orders []AdminOrder
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("gateway: decode orders: %w", err)
	}
	return orders, nil
}
