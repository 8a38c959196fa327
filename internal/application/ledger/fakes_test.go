package ledger_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// fakeStore estado compartido en memoria para los fakes de repositorio.
// El runner de transacciones falso toma un snapshot antes de cada Run y lo
// restaura si el callback falla, imitando el rollback real.
type fakeStore struct {
	nextID     int64
	movements  []*entity.StockMovement
	levels     map[string]*entity.StockLevel
	companies  map[string]*entity.Company
	warehouses map[string]*entity.Warehouse
	products   map[string]*entity.Product
	variations map[string]*entity.ProductVariation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:     1,
		levels:     make(map[string]*entity.StockLevel),
		companies:  make(map[string]*entity.Company),
		warehouses: make(map[string]*entity.Warehouse),
		products:   make(map[string]*entity.Product),
		variations: make(map[string]*entity.ProductVariation),
	}
}

func levelKey(companyID, variationID, warehouseID string) string {
	return companyID + "/" + variationID + "/" + warehouseID
}

func (s *fakeStore) snapshot() *fakeStore {
	snap := &fakeStore{
		nextID:     s.nextID,
		levels:     make(map[string]*entity.StockLevel, len(s.levels)),
		companies:  s.companies,
		warehouses: s.warehouses,
		products:   make(map[string]*entity.Product, len(s.products)),
		variations: s.variations,
	}
	for _, m := range s.movements {
		cp := *m
		snap.movements = append(snap.movements, &cp)
	}
	for k, l := range s.levels {
		cp := *l
		snap.levels[k] = &cp
	}
	for k, p := range s.products {
		cp := *p
		snap.products[k] = &cp
	}
	return snap
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.nextID = snap.nextID
	s.movements = snap.movements
	s.levels = snap.levels
	s.products = snap.products
}

// ── StockMovementRepository ──────────────────────────────────────────────────

type fakeMovementRepo struct{ s *fakeStore }

func (r *fakeMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	key := m.Key()
	for _, existing := range r.s.movements {
		if existing.Key() == key {
			return domain.ErrDuplicateMovement
		}
	}
	m.ID = r.s.nextID
	r.s.nextID++
	r.s.movements = append(r.s.movements, m)
	return nil
}

func (r *fakeMovementRepo) GetByID(_ context.Context, companyID string, id int64) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.CompanyID == companyID && m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) GetByKey(_ context.Context, key entity.IdempotencyKey) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.Key() == key {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) ListForReplay(_ context.Context, key repository.LedgerKey, asOf *time.Time) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.CompanyID != key.CompanyID || m.VariationID != key.VariationID || m.WarehouseID != key.WarehouseID {
			continue
		}
		if asOf != nil && m.TransactionDate.After(*asOf) {
			continue
		}
		list = append(list, m)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].TransactionDate.Equal(list[j].TransactionDate) {
			return list[i].ID < list[j].ID
		}
		return list[i].TransactionDate.Before(list[j].TransactionDate)
	})
	return list, nil
}

func (r *fakeMovementRepo) ListByReference(_ context.Context, companyID, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.CompanyID == companyID && m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			list = append(list, m)
		}
	}
	return list, nil
}

func (r *fakeMovementRepo) ListByWarehouse(_ context.Context, companyID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.CompanyID != companyID || m.WarehouseID != warehouseID {
			continue
		}
		if from != nil && m.TransactionDate.Before(*from) {
			continue
		}
		if to != nil && m.TransactionDate.After(*to) {
			continue
		}
		list = append(list, m)
	}
	return list, nil
}

func (r *fakeMovementRepo) Void(_ context.Context, companyID string, id int64, voidedBy string) error {
	for _, m := range r.s.movements {
		if m.CompanyID == companyID && m.ID == id {
			if m.VoidedAt == nil {
				now := time.Now()
				m.VoidedAt = &now
				m.VoidedBy = voidedBy
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

// ── StockLevelRepository ─────────────────────────────────────────────────────

type fakeLevelRepo struct{ s *fakeStore }

func (r *fakeLevelRepo) Get(_ context.Context, key repository.LedgerKey) (*entity.StockLevel, error) {
	if l, ok := r.s.levels[levelKey(key.CompanyID, key.VariationID, key.WarehouseID)]; ok {
		return l, nil
	}
	return &entity.StockLevel{
		CompanyID: key.CompanyID, ProductID: key.ProductID,
		VariationID: key.VariationID, WarehouseID: key.WarehouseID,
		Quantity: decimal.Zero,
	}, nil
}

func (r *fakeLevelRepo) GetForUpdate(ctx context.Context, key repository.LedgerKey) (*entity.StockLevel, error) {
	k := levelKey(key.CompanyID, key.VariationID, key.WarehouseID)
	if l, ok := r.s.levels[k]; ok {
		return l, nil
	}
	l := &entity.StockLevel{
		CompanyID: key.CompanyID, ProductID: key.ProductID,
		VariationID: key.VariationID, WarehouseID: key.WarehouseID,
		Quantity: decimal.Zero, UpdatedAt: time.Now(),
	}
	r.s.levels[k] = l
	return l, nil
}

func (r *fakeLevelRepo) Upsert(_ context.Context, level *entity.StockLevel) error {
	r.s.levels[levelKey(level.CompanyID, level.VariationID, level.WarehouseID)] = level
	return nil
}

func (r *fakeLevelRepo) ListByWarehouse(_ context.Context, companyID, warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	var list []*entity.StockLevel
	for _, l := range r.s.levels {
		if l.CompanyID == companyID && l.WarehouseID == warehouseID {
			list = append(list, l)
		}
	}
	return list, nil
}

func (r *fakeLevelRepo) ListByVariation(_ context.Context, companyID, variationID string) ([]*entity.StockLevel, error) {
	var list []*entity.StockLevel
	for _, l := range r.s.levels {
		if l.CompanyID == companyID && l.VariationID == variationID {
			list = append(list, l)
		}
	}
	return list, nil
}

// ── ProductRepository ────────────────────────────────────────────────────────

type fakeProductRepo struct{ s *fakeStore }

func (r *fakeProductRepo) Create(p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.s.products[id], nil
}

func (r *fakeProductRepo) GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Cost = cost
	return nil
}

func (r *fakeProductRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error) {
	var list []*entity.Product
	for _, p := range r.s.products {
		if p.CompanyID == companyID {
			list = append(list, p)
		}
	}
	return list, nil
}

func (r *fakeProductRepo) CreateVariation(v *entity.ProductVariation) error {
	r.s.variations[v.ID] = v
	return nil
}

func (r *fakeProductRepo) GetVariationByID(id string) (*entity.ProductVariation, error) {
	return r.s.variations[id], nil
}

func (r *fakeProductRepo) ListVariationsByProduct(productID string) ([]*entity.ProductVariation, error) {
	var list []*entity.ProductVariation
	for _, v := range r.s.variations {
		if v.ProductID == productID {
			list = append(list, v)
		}
	}
	return list, nil
}

// ── CompanyRepository / WarehouseRepository ──────────────────────────────────

type fakeCompanyRepo struct{ s *fakeStore }

func (r *fakeCompanyRepo) Create(c *entity.Company) error        { r.s.companies[c.ID] = c; return nil }
func (r *fakeCompanyRepo) GetByID(id string) (*entity.Company, error) { return r.s.companies[id], nil }
func (r *fakeCompanyRepo) GetByNIT(nit string) (*entity.Company, error) {
	for _, c := range r.s.companies {
		if c.NIT == nit {
			return c, nil
		}
	}
	return nil, nil
}
func (r *fakeCompanyRepo) Update(c *entity.Company) error { r.s.companies[c.ID] = c; return nil }
func (r *fakeCompanyRepo) List(limit, offset int) ([]*entity.Company, error) {
	var list []*entity.Company
	for _, c := range r.s.companies {
		list = append(list, c)
	}
	return list, nil
}

type fakeWarehouseRepo struct{ s *fakeStore }

func (r *fakeWarehouseRepo) Create(w *entity.Warehouse) error { r.s.warehouses[w.ID] = w; return nil }
func (r *fakeWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.s.warehouses[id], nil
}
func (r *fakeWarehouseRepo) Update(w *entity.Warehouse) error { r.s.warehouses[w.ID] = w; return nil }
func (r *fakeWarehouseRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	var list []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if w.CompanyID == companyID {
			list = append(list, w)
		}
	}
	return list, nil
}
func (r *fakeWarehouseRepo) Delete(id string) error { delete(r.s.warehouses, id); return nil }

// ── TxRunner ─────────────────────────────────────────────────────────────────

// fakeTxRunner ejecuta el callback contra el store en memoria; si falla,
// restaura el snapshot previo (rollback).
type fakeTxRunner struct{ s *fakeStore }

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	productRepo repository.ProductRepository,
) error) error {
	snap := r.s.snapshot()
	err := fn(&fakeMovementRepo{r.s}, &fakeLevelRepo{r.s}, &fakeProductRepo{r.s})
	if err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}
