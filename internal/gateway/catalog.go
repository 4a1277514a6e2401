package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
)

// ProductSnapshot is the display metadata embedded in cart and wishlist
// entries: enough to render a line without refetching the catalog.
type ProductSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Price    int64  `json:"price,omitempty"`
	Image    string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
}

type productSnapshotPayload struct {
	ID       string `json:"id"`
	MongoID  string `json:"_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

// UnmarshalJSON accepts both identifier shapes the backend emits.
func (s *ProductSnapshot) UnmarshalJSON(data []byte) error {
	var p productSnapshotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = ProductSnapshot{
		ID:       firstNonEmpty(p.ID, p.MongoID),
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Category: p.Category,
	}
	return nil
}

// Product is a full catalog record. Description holds backend-authored
// markdown; rendering happens in the content package.
type Product struct {
	ID          string
	Name        string
	Price       int64
	Image       string
	Category    string
	Description string
	Stock       int
}

type productPayload struct {
	ID          string `json:"id"`
	MongoID     string `json:"_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Stock       int    `json:"stock"`
}

// UnmarshalJSON resolves the product identifier aliases.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw productPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product{
		ID:          firstNonEmpty(raw.ID, raw.MongoID),
		Name:        raw.Name,
		Price:       raw.Price,
		Image:       raw.Image,
		Category:    raw.Category,
		Description: raw.Description,
		Stock:       raw.Stock,
	}
	return nil
}

// Snapshot projects the product into the embedded display metadata shape.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Category: p.Category,
	}
}

// ListProducts fetches the catalog listing.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	if c.FixtureMode() {
		return fixtureProducts(), nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/product", nil)
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

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("gateway: decode products: %w", err)
	}
	return products, nil
}

// GetProduct fetches a single catalog record; ErrNotFound for unknown ids.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	if c.FixtureMode() {
		return fixtureProduct(id)
	}

	req, err := c.newRequest(ctx, http.MethodGet, path.Join("/product", url.PathEscape(id)), nil)
	if err != nil {
		return Product{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return Product{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Product{}, c.statusError(resp)
	}

	var product Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return Product{}, fmt.Errorf("gateway: decode product: %w", err)
	}
	return product, nil
}
