package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	VendorID    string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Attributes  map[string]interface{}
	CreatedAt   time.Time
}

// Options returns the string list stored under attrs[key] ("sizes", "colors").
func (p Product) Options(key string) []string {
	raw, ok := p.Attributes[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
