package repository

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para productos y sus
// variaciones (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	// UpdateCost actualiza solo el costo promedio ponderado (lo mueve el kardex,
	// nunca un update de catálogo).
	UpdateCost(productID string, cost decimal.Decimal) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)

	CreateVariation(variation *entity.ProductVariation) error
	GetVariationByID(id string) (*entity.ProductVariation, error)
	ListVariationsByProduct(productID string) ([]*entity.ProductVariation, error)
}
