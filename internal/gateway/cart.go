package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
)

// CartEntry mirrors one backend cart line. The server-assigned entry identifier
// is normalized from the shapes different backend versions emit.
type CartEntry struct {
	EntryID   string
	ProductID string
	Quantity  int
	Price     int64
	Name      string
	Image     string
}

type cartEntryPayload struct {
	ID           string          `json:"id"`
	MongoID      string          `json:"_id"`
	CartID       string          `json:"cartId"`
	ProductID    string          `json:"productId"`
	ProductIDAlt string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Price        int64           `json:"price"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Product      ProductSnapshot `json:"product"`
}

// UnmarshalJSON resolves identifier aliases into the canonical fields.
func (e *CartEntry) UnmarshalJSON(data []byte) error {
	var p cartEntryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = CartEntry{
		EntryID:   firstNonEmpty(p.ID, p.MongoID, p.CartID),
		ProductID: firstNonEmpty(p.ProductID, p.ProductIDAlt, p.Product.ID),
		Quantity:  p.Quantity,
		Price:     p.Price,
		Name:      firstNonEmpty(p.Name, p.Product.Name),
		Image:     firstNonEmpty(p.Image, p.Product.Image),
	}
	if e.Price == 0 {
		e.Price = p.Product.Price
	}
	return nil
}

// CreateCartEntryRequest carries a new cart line to the backend.
type CreateCartEntryRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
}

// CreateCartEntry creates a cart line for the user and returns the
// server-assigned entry.
func (c *Client) CreateCartEntry(ctx context.Context, userID string, req CreateCartEntryRequest) (CartEntry, error) {
	if c.FixtureMode() {
		return fixtureCreateCartEntry(req), nil
	}

	httpReq, err := c.newJSONRequest(ctx, http.MethodPost, path.Join("/cart", url.PathEscape(userID)), req)
	if err != nil {
		return CartEntry{}, err
	}
	resp, err := c.do(httpReq)
	if err != nil {
		return CartEntry{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CartEntry{}, c.statusError(resp)
	}

	var entry CartEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return CartEntry{}, fmt.Errorf("gateway: decode cart entry: %w", err)
	}
	if entry.ProductID == "" {
		entry.ProductID = req.ProductID
	}
	return entry, nil
}

// UpdateCartEntry sets the quantity on an existing cart line.
func (c *Client) UpdateCartEntry(ctx context.Context, userID, cartID string, quantity int) (CartEntry, error) {
	if c.FixtureMode() {
		return CartEntry{EntryID: cartID, Quantity: quantity}, nil
	}

	endpoint := path.Join("/cart", url.PathEscape(userID), url.PathEscape(cartID))
	body := map[string]int{"quantity": quantity}
	httpReq, err := c.newJSONRequest(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		return CartEntry{}, err
	}
	resp, err := c.do(httpReq)
	if err != nil {
		return CartEntry{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return CartEntry{}, c.statusError(resp)
	}

	var entry CartEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		// Some backend versions answer updates with an empty body; the local
		// state already carries the quantity.
		return CartEntry{EntryID: cartID, Quantity: quantity}, nil
	}
	return entry, nil
}

// DeleteCartEntry removes a cart line.
func (c *Client) DeleteCartEntry(ctx context.Context, userID, cartID string) error {
	if c.FixtureMode() {
		return nil
	}

	endpoint := path.Join("/cart", url.PathEscape(userID), url.PathEscape(cartID))
	httpReq, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.statusError(resp)
	}
	return nil
}
