package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// WishlistEntry is one backend wishlist record. Older and newer backend
// versions disagree on where the entry and product identifiers live, so the
// aliases are resolved here, at the decode boundary, and nowhere else.
type WishlistEntry struct {
	EntryID   string
	ProductID string
	Product   ProductSnapshot
}

type wishlistEntryPayload struct {
	ID            string          `json:"id"`
	MongoID       string          `json:"_id"`
	WishlistID    string          `json:"wishlistId"`
	WishlistIDAlt string          `json:"wishlist_id"`
	LegacyEntryID string          `json:"entryId"`
	ProductID     string          `json:"productId"`
	ProductIDAlt  string          `json:"product_id"`
	Product       ProductSnapshot `json:"product"`
}

func (p wishlistEntryPayload) entryID() string {
	return firstNonEmpty(p.ID, p.MongoID, p.WishlistID, p.WishlistIDAlt, p.LegacyEntryID)
}

func (p wishlistEntryPayload) productID() string {
	return firstNonEmpty(p.ProductID, p.ProductIDAlt, p.Product.ID)
}

// UnmarshalJSON normalizes the identifier aliases into the canonical fields.
func (e *WishlistEntry) UnmarshalJSON(data []byte) error {
	var p wishlistEntryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = WishlistEntry{
		EntryID:   p.entryID(),
		ProductID: p.productID(),
		Product:   p.Product,
	}
	if e.Product.ID == "" {
		e.Product.ID = e.ProductID
	}
	return nil
}

// FetchWishlist retrieves all wishlist entries for the user.
func (c *Client) FetchWishlist(ctx context.Context, userID string) ([]WishlistEntry, error) {
	if c.FixtureMode() {
		return fixtureWishlist(userID), nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, path.Join("/wishlist", url.PathEscape(userID)), nil)
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

	var entries []WishlistEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("gateway: decode wishlist: %w", err)
	}
	return entries, nil
}

// AddWishlistEntry creates a wishlist record for the product. A successful
// response without a usable payload yields a zero entry and a nil error; the
// caller keeps its provisional record in that case.
func (c *Client) AddWishlistEntry(ctx context.Context, userID string, product ProductSnapshot) (WishlistEntry, error) {
	if c.FixtureMode() {
		return fixtureAddWishlistEntry(product), nil
	}

	body := map[string]any{
		"productId": product.ID,
		"product":   product,
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, path.Join("/wishlist", url.PathEscape(userID)), body)
	if err != nil {
		return WishlistEntry{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return WishlistEntry{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return WishlistEntry{}, c.statusError(resp)
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var entry WishlistEntry
	if len(raw) == 0 || json.Unmarshal(raw, &entry) != nil || entry.EntryID == "" {
		return WishlistEntry{}, nil
	}
	if entry.ProductID == "" {
		entry.ProductID = product.ID
	}
	return entry, nil
}

// DeleteWishlistEntry removes a wishlist record by its server id.
func (c *Client) DeleteWishlistEntry(ctx context.Context, userID, entryID string) error {
	if c.FixtureMode() {
		return nil
	}

	endpoint := path.Join("/wishlist", url.PathEscape(userID), url.PathEscape(entryID))
	req, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.statusError(resp)
	}
	return nil
}
