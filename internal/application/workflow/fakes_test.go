package workflow_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// memStore estado en memoria compartido por los fakes. El runner de
// transacciones falso toma un snapshot antes de cada Run y lo restaura si el
// callback falla, imitando el rollback real.
type memStore struct {
	nextID     int64
	movements  []*entity.StockMovement
	levels     map[string]*entity.StockLevel
	companies  map[string]*entity.Company
	warehouses map[string]*entity.Warehouse
	products   map[string]*entity.Product
	variations map[string]*entity.ProductVariation
	transfers  map[string]*entity.StockTransfer
}

func newMemStore() *memStore {
	return &memStore{
		nextID:     1,
		levels:     make(map[string]*entity.StockLevel),
		companies:  make(map[string]*entity.Company),
		warehouses: make(map[string]*entity.Warehouse),
		products:   make(map[string]*entity.Product),
		variations: make(map[string]*entity.ProductVariation),
		transfers:  make(map[string]*entity.StockTransfer),
	}
}

func lvlKey(companyID, variationID, warehouseID string) string {
	return companyID + "/" + variationID + "/" + warehouseID
}

func (s *memStore) snapshot() *memStore {
	snap := &memStore{
		nextID: s.nextID,
		levels: make(map[string]*entity.StockLevel, len(s.levels)),
	}
	for _, m := range s.movements {
		cp := *m
		snap.movements = append(snap.movements, &cp)
	}
	for k, l := range s.levels {
		cp := *l
		snap.levels[k] = &cp
	}
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.nextID = snap.nextID
	s.movements = snap.movements
	s.levels = snap.levels
}

func (s *memStore) balance(companyID, variationID, warehouseID string) decimal.Decimal {
	if level, ok := s.levels[lvlKey(companyID, variationID, warehouseID)]; ok {
		return level.Quantity
	}
	return decimal.Zero
}

// ── StockMovementRepository ──────────────────────────────────────────────────

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
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

func (r *memMovementRepo) GetByID(_ context.Context, companyID string, id int64) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.CompanyID == companyID && m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) GetByKey(_ context.Context, key entity.IdempotencyKey) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.Key() == key {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) ListForReplay(_ context.Context, key repository.LedgerKey, asOf *time.Time) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.CompanyID != key.CompanyID || m.VariationID != key.VariationID || m.WarehouseID != key.WarehouseID {
			continue
		}
		if asOf != nil && m.TransactionDate.After(*asOf) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memMovementRepo) ListByReference(_ context.Context, companyID, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.CompanyID == companyID && m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListByWarehouse(_ context.Context, companyID, warehouseID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.CompanyID == companyID && m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) Void(_ context.Context, companyID string, id int64, voidedBy string) error {
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

type memLevelRepo struct{ s *memStore }

func (r *memLevelRepo) Get(_ context.Context, key repository.LedgerKey) (*entity.StockLevel, error) {
	if level, ok := r.s.levels[lvlKey(key.CompanyID, key.VariationID, key.WarehouseID)]; ok {
		return level, nil
	}
	return nil, nil
}

func (r *memLevelRepo) GetForUpdate(_ context.Context, key repository.LedgerKey) (*entity.StockLevel, error) {
	k := lvlKey(key.CompanyID, key.VariationID, key.WarehouseID)
	if level, ok := r.s.levels[k]; ok {
		return level, nil
	}
	level := &entity.StockLevel{
		CompanyID:   key.CompanyID,
		ProductID:   key.ProductID,
		VariationID: key.VariationID,
		WarehouseID: key.WarehouseID,
		Quantity:    decimal.Zero,
	}
	r.s.levels[k] = level
	return level, nil
}

func (r *memLevelRepo) Upsert(_ context.Context, level *entity.StockLevel) error {
	r.s.levels[lvlKey(level.CompanyID, level.VariationID, level.WarehouseID)] = level
	return nil
}

func (r *memLevelRepo) ListByWarehouse(_ context.Context, companyID, warehouseID string, _, _ int) ([]*entity.StockLevel, error) {
	var out []*entity.StockLevel
	for _, l := range r.s.levels {
		if l.CompanyID == companyID && l.WarehouseID == warehouseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLevelRepo) ListByVariation(_ context.Context, companyID, variationID string) ([]*entity.StockLevel, error) {
	var out []*entity.StockLevel
	for _, l := range r.s.levels {
		if l.CompanyID == companyID && l.VariationID == variationID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ── Catálogo ─────────────────────────────────────────────────────────────────

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(p *entity.Product) error { r.s.products[p.ID] = p; return nil }
func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.s.products[id], nil
}
func (r *memProductRepo) GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}
func (r *memProductRepo) Update(p *entity.Product) error { r.s.products[p.ID] = p; return nil }
func (r *memProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Cost = cost
	return nil
}
func (r *memProductRepo) ListByCompany(string, int, int) ([]*entity.Product, error) {
	return nil, nil
}
func (r *memProductRepo) CreateVariation(v *entity.ProductVariation) error {
	r.s.variations[v.ID] = v
	return nil
}
func (r *memProductRepo) GetVariationByID(id string) (*entity.ProductVariation, error) {
	return r.s.variations[id], nil
}
func (r *memProductRepo) ListVariationsByProduct(string) ([]*entity.ProductVariation, error) {
	return nil, nil
}

type memCompanyRepo struct{ s *memStore }

func (r *memCompanyRepo) Create(c *entity.Company) error { r.s.companies[c.ID] = c; return nil }
func (r *memCompanyRepo) GetByID(id string) (*entity.Company, error) {
	return r.s.companies[id], nil
}
func (r *memCompanyRepo) GetByNIT(string) (*entity.Company, error) { return nil, nil }
func (r *memCompanyRepo) Update(c *entity.Company) error           { r.s.companies[c.ID] = c; return nil }
func (r *memCompanyRepo) List(int, int) ([]*entity.Company, error) { return nil, nil }

type memWarehouseRepo struct{ s *memStore }

func (r *memWarehouseRepo) Create(w *entity.Warehouse) error { r.s.warehouses[w.ID] = w; return nil }
func (r *memWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.s.warehouses[id], nil
}
func (r *memWarehouseRepo) Update(w *entity.Warehouse) error { r.s.warehouses[w.ID] = w; return nil }
func (r *memWarehouseRepo) ListByCompany(string, int, int) ([]*entity.Warehouse, error) {
	return nil, nil
}
func (r *memWarehouseRepo) Delete(id string) error { delete(r.s.warehouses, id); return nil }

// ── TransferRepository ───────────────────────────────────────────────────────

type memTransferRepo struct{ s *memStore }

func (r *memTransferRepo) Create(_ context.Context, transfer *entity.StockTransfer) error {
	cp := *transfer
	r.s.transfers[transfer.ID] = &cp
	return nil
}

// GetByID devuelve una copia: el caso de uso muta el documento antes de
// confirmar la transición, igual que con una fila leída de la BD.
func (r *memTransferRepo) GetByID(_ context.Context, companyID, id string) (*entity.StockTransfer, error) {
	stored, ok := r.s.transfers[id]
	if !ok || stored.CompanyID != companyID {
		return nil, nil
	}
	cp := *stored
	return &cp, nil
}

func (r *memTransferRepo) UpdateStatus(_ context.Context, transfer *entity.StockTransfer, fromStatus string) error {
	stored, ok := r.s.transfers[transfer.ID]
	if !ok || stored.CompanyID != transfer.CompanyID {
		return domain.ErrNotFound
	}
	if stored.Status != fromStatus {
		return domain.ErrConflict
	}
	cp := *transfer
	r.s.transfers[transfer.ID] = &cp
	return nil
}

func (r *memTransferRepo) ListByCompany(_ context.Context, companyID string, status string, _, _ int) ([]*entity.StockTransfer, error) {
	var out []*entity.StockTransfer
	for _, t := range r.s.transfers {
		if t.CompanyID != companyID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// ── TxRunner ─────────────────────────────────────────────────────────────────

type memTxRunner struct{ s *memStore }

func (r *memTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	productRepo repository.ProductRepository,
) error) error {
	snap := r.s.snapshot()
	if err := fn(&memMovementRepo{r.s}, &memLevelRepo{r.s}, &memProductRepo{r.s}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}
