package httpserver

import (
	"univendor/internal/api"
	"univendor/internal/domain"
	"univendor/internal/pricing"
)

func toAPIProductRef(p domain.ProductRef) api.ProductRef {
	return api.ProductRef{
		ID:       p.ID,
		Name:     p.Name,
		Price:    pricing.Format(p.Price),
		ImageURL: p.ImageURL,
	}
}

func toAPICartItem(item domain.CartItem) api.CartItem {
	return api.CartItem{
		ID:       item.ID,
		Product:  toAPIProductRef(item.Product),
		Size:     item.Size,
		Color:    item.Color,
		Quantity: item.Quantity,
	}
}

func toAPICart(items []domain.CartItem) []api.CartItem {
	out := make([]api.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, toAPICartItem(it))
	}
	return out
}

func toAPIProduct(p domain.Product) api.Product {
	return api.Product{
		ID:          p.ID,
		VendorID:    p.VendorID,
		Name:        p.Name,
		Description: p.Description,
		Price:       pricing.Format(p.Price),
		ImageURL:    p.ImageURL,
		Sizes:       p.Options("sizes"),
		Colors:      p.Options("colors"),
	}
}

func toAPIOrder(o domain.Order) api.Order {
	items := make([]api.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, api.OrderItem{
			Product:   toAPIProductRef(it.Product),
			Quantity:  it.Quantity,
			UnitPrice: pricing.Format(it.UnitPrice),
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	return api.Order{
		ID:              o.ID,
		Items:           items,
		Subtotal:        pricing.Format(o.Subtotal),
		Shipping:        pricing.Format(o.Shipping),
		Tax:             pricing.Format(o.Tax),
		Total:           pricing.Format(o.Total),
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		VendorID:        o.VendorID,
		ShippingAddress: api.ShippingAddress(o.ShippingAddress),
	}
}

func toAPIUser(u domain.User) api.User {
	return api.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      string(u.Role),
		VendorID:  u.VendorID,
	}
}
