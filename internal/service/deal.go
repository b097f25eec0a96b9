package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/dealfinder/internal/apperr"
	"github.com/dukerupert/dealfinder/internal/model"
	"github.com/dukerupert/dealfinder/internal/store"
)

var (
	maxPrice   = decimal.RequireFromString("99999999.99")
	plainPrice = regexp.MustCompile(`^\d{1,12}(\.\d{1,12})?$`)
)

type DealService struct {
	deals    *store.DealStore
	validate *validator.Validate
	now      func() time.Time
}

func NewDealService(deals *store.DealStore, opts ...Option) *DealService {
	st := newSettings(opts)
	return &DealService{
		deals:    deals,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      st.now,
	}
}

// List returns every deal, newest first. There is no pagination.
func (s *DealService) List(ctx context.Context) ([]model.Deal, error) {
	deals, err := s.deals.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list deals", err)
	}
	return deals, nil
}

func (s *DealService) ListByUser(ctx context.Context, userID int64) ([]model.Deal, error) {
	deals, err := s.deals.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list deals by user", err)
	}
	return deals, nil
}

func (s *DealService) Get(ctx context.Context, id int64) (*model.Deal, error) {
	d, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("get deal", err)
	}
	if d == nil {
		return nil, apperr.NotFound("Deal not found")
	}
	return d, nil
}

// Create validates f and stores a deal owned by ownerID.
func (s *DealService) Create(ctx context.Context, ownerID int64, f model.DealFields) (*model.Deal, error) {
	if f.Title.Blank() || f.Price.Blank() || f.ProductURL.Blank() {
		return nil, apperr.Validation("Title, price, and product URL are required")
	}

	d := &model.Deal{UserID: &ownerID, CreatedAt: s.now()}

	var err error
	if d.Price, err = parsePrice(f.Price.Value, "Invalid price"); err != nil {
		return nil, err
	}
	if !f.OriginalPrice.Blank() {
		op, err := parsePrice(f.OriginalPrice.Value, "Invalid original price")
		if err != nil {
			return nil, err
		}
		d.OriginalPrice = decimal.NewNullDecimal(op)
	}

	d.Title = strings.TrimSpace(f.Title.Value)
	d.ProductURL = strings.TrimSpace(f.ProductURL.Value)
	d.Description = optionalText(f.Description)
	d.ImageURL = optionalText(f.ImageURL)
	d.Category = optionalText(f.Category)

	if err := s.check(d); err != nil {
		return nil, err
	}

	created, err := s.deals.Create(ctx, d)
	if err != nil {
		return nil, apperr.Internal("create deal", err)
	}
	return created, nil
}

// Update applies only the fields present in f. Explicit nulls clear the
// optional columns; required columns cannot be cleared.
func (s *DealService) Update(ctx context.Context, id, userID int64, f model.DealFields) (*model.Deal, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.OwnedBy(userID) {
		return nil, apperr.Forbidden("You can only edit your own deals")
	}
	if f.Empty() {
		return nil, apperr.Validation("No fields to update")
	}

	// Validate the merged row so bounds are checked exactly as on create.
	merged := *existing
	var changes []store.Change

	if f.Title.Present {
		if f.Title.Blank() {
			return nil, apperr.Validation("Title cannot be empty")
		}
		merged.Title = strings.TrimSpace(f.Title.Value)
		changes = append(changes, store.Change{Column: "title", Value: merged.Title})
	}
	if f.Price.Present {
		if f.Price.Blank() {
			return nil, apperr.Validation("Invalid price")
		}
		if merged.Price, err = parsePrice(f.Price.Value, "Invalid price"); err != nil {
			return nil, err
		}
		changes = append(changes, store.Change{Column: "price", Value: merged.Price})
	}
	if f.OriginalPrice.Present {
		merged.OriginalPrice = decimal.NullDecimal{}
		if !f.OriginalPrice.Blank() {
			op, err := parsePrice(f.OriginalPrice.Value, "Invalid original price")
			if err != nil {
				return nil, err
			}
			merged.OriginalPrice = decimal.NewNullDecimal(op)
		}
		changes = append(changes, store.Change{Column: "original_price", Value: merged.OriginalPrice})
	}
	if f.ProductURL.Present {
		if f.ProductURL.Blank() {
			return nil, apperr.Validation("Invalid product URL")
		}
		merged.ProductURL = strings.TrimSpace(f.ProductURL.Value)
		changes = append(changes, store.Change{Column: "product_url", Value: merged.ProductURL})
	}
	if f.Description.Present {
		merged.Description = optionalText(f.Description)
		changes = append(changes, store.Change{Column: "description", Value: nullable(merged.Description)})
	}
	if f.ImageURL.Present {
		merged.ImageURL = optionalText(f.ImageURL)
		changes = append(changes, store.Change{Column: "image_url", Value: nullable(merged.ImageURL)})
	}
	if f.Category.Present {
		merged.Category = optionalText(f.Category)
		changes = append(changes, store.Change{Column: "category", Value: nullable(merged.Category)})
	}

	if err := s.check(&merged); err != nil {
		return nil, err
	}

	updated, err := s.deals.Update(ctx, id, changes, s.now())
	if err != nil {
		return nil, apperr.Internal("update deal", err)
	}
	if updated == nil {
		return nil, apperr.NotFound("Deal not found")
	}
	return updated, nil
}

// Delete removes a deal owned by userID. It cannot be undone.
func (s *DealService) Delete(ctx context.Context, id, userID int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !existing.OwnedBy(userID) {
		return apperr.Forbidden("You can only delete your own deals")
	}

	ok, err := s.deals.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("delete deal", err)
	}
	if !ok {
		return apperr.NotFound("Deal not found")
	}
	return nil
}

// check enforces URL syntax and length bounds on a fully populated deal.
func (s *DealService) check(d *model.Deal) error {
	rules := []struct {
		value string
		tag   string
		msg   string
	}{
		{d.Title, "max=255", "Title must be at most 255 characters"},
		{d.ProductURL, "required,max=2048,url", "Invalid product URL"},
		{deref(d.ImageURL), "omitempty,max=2048,url", "Invalid image URL"},
		{deref(d.Description), "max=5000", "Description must be at most 5000 characters"},
		{deref(d.Category), "max=100", "Category must be at most 100 characters"},
	}
	for _, r := range rules {
		if err := s.validate.Var(r.value, r.tag); err != nil {
			return apperr.Validation(r.msg)
		}
	}
	return nil
}

// parsePrice accepts a plain non-negative decimal and rounds it to cents.
// Exponent notation is refused before decimal ever rescales it.
func parsePrice(raw, msg string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if !plainPrice.MatchString(raw) {
		return decimal.Zero, apperr.Validation(msg)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.GreaterThan(maxPrice) {
		return decimal.Zero, apperr.Validation(msg)
	}
	return d.Round(2), nil
}

func optionalText(o model.Optional) *string {
	if o.Blank() {
		return nil
	}
	v := strings.TrimSpace(o.Value)
	return &v
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
