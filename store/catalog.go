package store

import (
	"context"
	"errors"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"gorm.io/gorm"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

// CatalogStore reads products owned by the catalog service.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// Products returns the products with the given ids keyed by id. Unknown ids
// are simply absent from the result.
func (c *CatalogStore) Products(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// Restaurant loads one restaurant, returning ErrRestaurantNotFound for an
// unknown id.
func (c *CatalogStore) Restaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := c.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &r, nil
}
