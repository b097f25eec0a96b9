// Package seed loads sample deals from YAML into an empty or partly seeded
// database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/dealfinder/internal/model"
	"github.com/dukerupert/dealfinder/internal/store"
)

//go:embed deals.yaml
var defaultDeals []byte

// Default returns the embedded sample deals.
func Default() []byte {
	return defaultDeals
}

type file struct {
	Deals []entry `yaml:"deals"`
}

type entry struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Price         string `yaml:"price"`
	OriginalPrice string `yaml:"original_price"`
	ProductURL    string `yaml:"product_url"`
	ImageURL      string `yaml:"image_url"`
	Category      string `yaml:"category"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Parse decodes a seed file into unowned deals.
func Parse(data []byte) ([]model.Deal, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	deals := make([]model.Deal, 0, len(f.Deals))
	for i, e := range f.Deals {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			return nil, fmt.Errorf("deal %d: title is required", i+1)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(e.Price))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("deal %q: invalid price %q", title, e.Price)
		}
		if u, err := url.ParseRequestURI(e.ProductURL); err != nil || u.Host == "" {
			return nil, fmt.Errorf("deal %q: invalid product url %q", title, e.ProductURL)
		}

		d := model.Deal{
			Title:       title,
			Description: optional(e.Description),
			Price:       price.Round(2),
			ProductURL:  e.ProductURL,
			ImageURL:    optional(e.ImageURL),
			Category:    optional(e.Category),
		}
		if op := strings.TrimSpace(e.OriginalPrice); op != "" {
			v, err := decimal.NewFromString(op)
			if err != nil || v.IsNegative() {
				return nil, fmt.Errorf("deal %q: invalid original price %q", title, e.OriginalPrice)
			}
			d.OriginalPrice = decimal.NewNullDecimal(v.Round(2))
		}
		deals = append(deals, d)
	}
	return deals, nil
}

// Result counts what Apply did.
type Result struct {
	Inserted int
	Skipped  int
}

// Apply inserts every deal whose title is not already present.
func Apply(ctx context.Context, deals *store.DealStore, items []model.Deal, now time.Time, logger *slog.Logger) (Result, error) {
	var res Result
	for i := range items {
		d := items[i]
		exists, err := deals.ExistsByTitle(ctx, d.Title)
		if err != nil {
			return res, err
		}
		if exists {
			logger.Debug("seed deal exists", "title", d.Title)
			res.Skipped++
			continue
		}

		d.CreatedAt = now
		created, err := deals.Create(ctx, &d)
		if err != nil {
			return res, fmt.Errorf("seed %q: %w", d.Title, err)
		}
		logger.Info("seeded deal", "id", created.ID, "title", created.Title)
		res.Inserted++
	}
	return res, nil
}
