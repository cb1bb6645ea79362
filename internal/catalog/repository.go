package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-cart/pkg/db/models"
)

// Repository reads active products from the products table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load product %s: %w", id, err)
	}
	p := fromModel(row)
	return &p, nil
}

func (r *Repository) List(ctx context.Context) ([]Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

// Upsert writes the product, replacing an existing row with the same id.
func (r *Repository) Upsert(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	row := toModel(p)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"sku", "name", "unit_price", "moq", "unit", "is_active", "updated_at"}),
		}).
		Create(&row).Error
}

func fromModel(row models.Product) Product {
	return Product{
		ID:                   row.ID,
		Name:                 row.Name,
		SKU:                  row.SKU,
		UnitPrice:            row.UnitPrice,
		MinimumOrderQuantity: row.MOQ,
		UnitOfMeasure:        row.Unit,
	}
}

func toModel(p Product) models.Product {
	return models.Product{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		MOQ:       p.MinimumOrderQuantity,
		Unit:      p.UnitOfMeasure,
		IsActive:  true,
	}
}
