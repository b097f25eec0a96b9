package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/dealfinder/internal/model"
)

type DealStore struct {
	db *sql.DB
}

func NewDealStore(db *sql.DB) *DealStore {
	return &DealStore{db: db}
}

func scanDeal(scanner interface{ Scan(...any) error }) (*model.Deal, error) {
	var d model.Deal
	var userID sql.NullInt64
	var description, imageURL, category, postedBy sql.NullString

	err := scanner.Scan(
		&d.ID, &userID, &d.Title, &description, &d.Price, &d.OriginalPrice,
		&d.ProductURL, &imageURL, &category, &d.CreatedAt, &d.UpdatedAt, &postedBy,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		d.UserID = &userID.Int64
	}
	if description.Valid {
		d.Description = &description.String
	}
	if imageURL.Valid {
		d.ImageURL = &imageURL.String
	}
	if category.Valid {
		d.Category = &category.String
	}
	if postedBy.Valid {
		d.PostedBy = &postedBy.String
	}
	return &d, nil
}

const dealCols = `d.id, d.user_id, d.title, d.description, d.price, d.original_price,
	d.product_url, d.image_url, d.category, d.created_at, d.updated_at, u.username`

const dealFrom = ` FROM deals d LEFT JOIN users u ON u.id = d.user_id`

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

// Create inserts d and returns the stored row. CreatedAt doubles as UpdatedAt.
func (s *DealStore) Create(ctx context.Context, d *model.Deal) (*model.Deal, error) {
	created := d.CreatedAt.UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO deals (user_id, title, description, price, original_price, product_url, image_url, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(d.UserID), d.Title, nullString(d.Description), d.Price, d.OriginalPrice,
		d.ProductURL, nullString(d.ImageURL), nullString(d.Category), created, created,
	)
	if err != nil {
		return nil, fmt.Errorf("insert deal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *DealStore) GetByID(ctx context.Context, id int64) (*model.Deal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dealCols+dealFrom+` WHERE d.id = ?`, id)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}
	return d, nil
}

// List returns every deal, newest first.
func (s *DealStore) List(ctx context.Context) ([]model.Deal, error) {
	return s.query(ctx, "list deals", `SELECT `+dealCols+dealFrom+` ORDER BY d.created_at DESC, d.id DESC`)
}

// ListByUser returns the user's deals, newest first.
func (s *DealStore) ListByUser(ctx context.Context, userID int64) ([]model.Deal, error) {
	return s.query(ctx, "list deals by user",
		`SELECT `+dealCols+dealFrom+` WHERE d.user_id = ? ORDER BY d.created_at DESC, d.id DESC`, userID)
}

func (s *DealStore) query(ctx context.Context, op, q string, args ...any) ([]model.Deal, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deals, nil
}

// Change assigns a single column in a partial update. A nil Value stores NULL.
type Change struct {
	Column string
	Value  any
}

var updatableDealColumns = map[string]bool{
	"title":          true,
	"description":    true,
	"price":          true,
	"original_price": true,
	"product_url":    true,
	"image_url":      true,
	"category":       true,
}

// Update writes only the given columns plus updated_at and returns the new row,
// or nil if the deal no longer exists.
func (s *DealStore) Update(ctx context.Context, id int64, changes []Change, updatedAt time.Time) (*model.Deal, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("update deal: no changes")
	}

	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+2)
	for _, c := range changes {
		if !updatableDealColumns[c.Column] {
			return nil, fmt.Errorf("update deal: unknown column %q", c.Column)
		}
		sets = append(sets, c.Column+" = ?")
		args = append(args, c.Value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt.UTC(), id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE deals SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// Delete removes the deal and reports whether a row was deleted.
func (s *DealStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete deal: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ExistsByTitle is used by the seeder to stay idempotent.
func (s *DealStore) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE title = ?`, title).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check deal title: %w", err)
	}
	return n > 0, nil
}
