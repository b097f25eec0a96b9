package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Deal struct {
	ID            int64               `json:"id"`
	UserID        *int64              `json:"user_id"`
	Title         string              `json:"title"`
	Description   *string             `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	ProductURL    string              `json:"product_url"`
	ImageURL      *string             `json:"image_url"`
	Category      *string             `json:"category"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	PostedBy      *string             `json:"posted_by"`
}

// OwnedBy reports whether userID owns the deal. Unowned deals are owned by nobody.
func (d *Deal) OwnedBy(userID int64) bool {
	return d.UserID != nil && *d.UserID == userID
}

// Optional is a JSON field that remembers whether it was sent at all.
// Present is false when the key was omitted; Null is true for an explicit null.
// Numbers are kept as their literal text so prices can be sent either way.
type Optional struct {
	Present bool
	Null    bool
	Value   string
}

func Some(v string) Optional {
	return Optional{Present: true, Value: v}
}

func Null() Optional {
	return Optional{Present: true, Null: true}
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	o.Present = true
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}

	switch data[0] {
	case 'n':
		o.Null = true
		o.Value = ""
		return nil
	case '"':
		return json.Unmarshal(data, &o.Value)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		o.Value = n.String()
		return nil
	default:
		return fmt.Errorf("unsupported value %s", data)
	}
}

// Blank reports whether the field carries no usable text.
func (o Optional) Blank() bool {
	return !o.Present || o.Null || strings.TrimSpace(o.Value) == ""
}

// DealFields is the client's view of a deal for create and partial update.
type DealFields struct {
	Title         Optional `json:"title"`
	Description   Optional `json:"description"`
	Price         Optional `json:"price"`
	OriginalPrice Optional `json:"originalPrice"`
	ProductURL    Optional `json:"productUrl"`
	ImageURL      Optional `json:"imageUrl"`
	Category      Optional `json:"category"`
}

// Empty reports whether no field at all was supplied.
func (f DealFields) Empty() bool {
	for _, o := range []Optional{f.Title, f.Description, f.Price, f.OriginalPrice, f.ProductURL, f.ImageURL, f.Category} {
		if o.Present {
			return false
		}
	}
	return true
}
