package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Fixture data served when no backend base URL is configured. The shapes match
// live responses so the stores cannot tell the difference.

func fixtureID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ToLower(ulid.Make().String()))
}

func fixtureCreateCartEntry(req CreateCartEntryRequest) CartEntry {
	return CartEntry{
		EntryID:   fixtureID("cart"),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Name:      req.Name,
		Image:     req.Image,
	}
}

func fixtureAddWishlistEntry(product ProductSnapshot) WishlistEntry {
	return WishlistEntry{
		EntryID:   fixtureID("wl"),
		ProductID: product.ID,
		Product:   product,
	}
}

func fixtureWishlist(string) []WishlistEntry {
	return nil
}

func fixtureLogin(portal string, req LoginRequest) LoginResponse {
	return LoginResponse{
		UserID: fixtureID("usr-" + portal),
		Token:  fixtureID("tok"),
		Role:   portal,
	}
}

func fixtureProfile(userID string) Profile {
	// The fixture user id encodes the portal it was minted by, so a restored
	// session keeps the role it logged in with.
	role := PortalUser
	switch {
	case strings.HasPrefix(userID, "usr-admin"):
		role = PortalAdmin
	case strings.HasPrefix(userID, "usr-vendor"):
		role = PortalVendor
	}
	return Profile{
		ID:    userID,
		Name:  "Demo Customer",
		Email: "demo@bloomfield.example",
		Role:  role,
	}
}

var demoCatalog = []Product{
	{
		ID:          "plant-monstera",
		Name:        "Monstera Deliciosa",
		Price:       3400,
		Image:       "/img/monstera.jpg",
		Category:    "plants",
		Description: "A statement plant with split leaves.\n\nPrefers **bright, indirect** light and a drink once the top soil dries out.",
		Stock:       12,
	},
	{
		ID:          "plant-snake",
		Name:        "Snake Plant",
		Price:       2200,
		Image:       "/img/snake-plant.jpg",
		Category:    "plants",
		Description: "Near-indestructible. Tolerates low light and irregular watering.",
		Stock:       30,
	},
	{
		ID:          "gift-planter-terracotta",
		Name:        "Terracotta Planter",
		Price:       1500,
		Image:       "/img/terracotta.jpg",
		Category:    "gifts",
		Description: "Hand-thrown terracotta pot with drainage tray, 14 cm.",
		Stock:       45,
	},
	{
		ID:          "gift-care-kit",
		Name:        "Plant Care Kit",
		Price:       2800,
		Image:       "/img/care-kit.jpg",
		Category:    "gifts",
		Description: "Mister, pruning snips, and a bag of slow-release feed.\n\n- brass mister\n- carbon-steel snips",
		Stock:       8,
	},
}

func fixtureProducts() []Product {
	out := make([]Product, len(demoCatalog))
	copy(out, demoCatalog)
	return out
}

func fixtureProduct(id string) (Product, error) {
	for _, p := range demoCatalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func fixtureAdminOrders() []AdminOrder {
	placed := time.Now().UTC().Add(-36 * time.Hour).Truncate(time.Second)
	return []AdminOrder{
		{
			ID:       fixtureID("ord"),
			UserID:   "usr_demo",
			Status:   "shipped",
			Total:    4900,
			PlacedAt: placed,
			Items: []OrderLine{
				{ProductID: "plant-monstera", Name: "Monstera Deliciosa", Quantity: 1, Price: 3400},
				{ProductID: "gift-planter-terracotta", Name: "Terracotta Planter", Quantity: 1, Price: 1500},
			},
		},
		{
			ID:       fixtureID("ord"),
			UserID:   "usr_demo",
			Status:   "processing",
			Total:    2800,
			PlacedAt: placed.Add(12 * time.Hour),
			Items: []OrderLine{
				{ProductID: "gift-care-kit", Name: "Plant Care Kit", Quantity: 1, Price: 2800},
			},
		},
	}
}
