package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// In-memory implementations used by the service-layer tests. They mirror the
// Postgres repositories' semantics: cart-line uniqueness per product,
// insertion order, and the all-or-nothing checkout write.

// MemoryProductRepository is an in-memory ProductRepository.
type MemoryProductRepository struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	nextID   int64
}

// NewMemoryProductRepository creates an empty in-memory product repository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[int64]*models.Product),
		nextID:   1,
	}
}

func (m *MemoryProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (m *MemoryProductRepository) List(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Product, 0)
	for _, p := range m.products {
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.AvailableOnly && !p.InStock() {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product.ID = m.nextID
	m.nextID++
	product.Version = 1
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	clone := *product
	m.products[product.ID] = &clone
	return product, nil
}

func (m *MemoryProductRepository) Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if product.Version != req.Version {
		return nil, apperrors.ErrConcurrencyConflict
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = models.NewMoney(req.Price, req.Currency)
	product.ImageURL = req.ImageURL
	product.CategoryID = req.CategoryID
	product.Stock = req.Stock
	product.Available = req.Available
	product.Version++
	product.UpdatedAt = time.Now()

	clone := *product
	return &clone, nil
}

func (m *MemoryProductRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// SetStock is a test helper to adjust stock directly.
func (m *MemoryProductRepository) SetStock(id int64, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.Stock = stock
	}
}

// SetPrice is a test helper to reprice a product directly.
func (m *MemoryProductRepository) SetPrice(id int64, price models.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.Price = price
	}
}

// MemoryCategoryRepository is an in-memory CategoryRepository.
type MemoryCategoryRepository struct {
	mu         sync.Mutex
	categories map[int64]*models.Category
	products   *MemoryProductRepository
	nextID     int64
}

// NewMemoryCategoryRepository creates an in-memory category repository.
// The product repository is consulted for the delete-block check.
func NewMemoryCategoryRepository(products *MemoryProductRepository) *MemoryCategoryRepository {
	return &MemoryCategoryRepository{
		categories: make(map[int64]*models.Category),
		products:   products,
		nextID:     1,
	}
}

func (m *MemoryCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *category
	return &clone, nil
}

func (m *MemoryCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryCategoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category.ID = m.nextID
	m.nextID++
	category.Version = 1
	clone := *category
	m.categories[category.ID] = &clone
	return category, nil
}

func (m *MemoryCategoryRepository) Update(ctx context.Context, id int64, req *models.UpdateCategoryRequest) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if category.Version != req.Version {
		return nil, apperrors.ErrConcurrencyConflict
	}
	category.Name = req.Name
	category.Description = req.Description
	category.Version++
	clone := *category
	return &clone, nil
}

func (m *MemoryCategoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return apperrors.ErrNotFound
	}
	if m.products != nil {
		products, _ := m.products.List(context.Background(), ProductFilter{CategoryID: id})
		if len(products) > 0 {
			return apperrors.ErrCategoryInUse
		}
	}
	delete(m.categories, id)
	return nil
}

// MemoryCartRepository is an in-memory CartRepository. Lines keep insertion
// order per cart identity, like the serial primary key does in Postgres.
type MemoryCartRepository struct {
	mu       sync.Mutex
	lines    map[string][]*models.CartLine
	products *MemoryProductRepository
	nextID   int64
}

// NewMemoryCartRepository creates an in-memory cart repository. Product data
// is attached to lines from the given product repository.
func NewMemoryCartRepository(products *MemoryProductRepository) *MemoryCartRepository {
	return &MemoryCartRepository{
		lines:    make(map[string][]*models.CartLine),
		products: products,
		nextID:   1,
	}
}

func (m *MemoryCartRepository) attach(line *models.CartLine) *models.CartLine {
	clone := *line
	if m.products != nil {
		if p, err := m.products.GetByID(context.Background(), line.ProductID); err == nil {
			clone.Product = p
		}
	}
	return &clone
}

func (m *MemoryCartRepository) GetLines(ctx context.Context, cartIdentity string) ([]*models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.CartLine, 0, len(m.lines[cartIdentity]))
	for _, line := range m.lines[cartIdentity] {
		out = append(out, m.attach(line))
	}
	return out, nil
}

func (m *MemoryCartRepository) GetLine(ctx context.Context, cartIdentity string, lineID int64) (*models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines[cartIdentity] {
		if line.ID == lineID {
			return m.attach(line), nil
		}
	}
	return nil, apperrors.ErrLineNotFound
}

func (m *MemoryCartRepository) AddLine(ctx context.Context, cartIdentity string, productID int64, quantity int) (*models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, line := range m.lines[cartIdentity] {
		if line.ProductID == productID {
			line.Quantity += quantity
			return m.attach(line), nil
		}
	}

	line := &models.CartLine{
		ID:           m.nextID,
		CartIdentity: cartIdentity,
		ProductID:    productID,
		Quantity:     quantity,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.lines[cartIdentity] = append(m.lines[cartIdentity], line)
	return m.attach(line), nil
}

func (m *MemoryCartRepository) UpdateLineQuantity(ctx context.Context, cartIdentity string, lineID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines[cartIdentity] {
		if line.ID == lineID {
			line.Quantity = quantity
			return nil
		}
	}
	return apperrors.ErrLineNotFound
}

func (m *MemoryCartRepository) DeleteLine(ctx context.Context, cartIdentity string, lineID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.lines[cartIdentity]
	for i, line := range lines {
		if line.ID == lineID {
			m.lines[cartIdentity] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryCartRepository) Clear(ctx context.Context, cartIdentity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, cartIdentity)
	return nil
}

func (m *MemoryCartRepository) Merge(ctx context.Context, fromIdentity, toIdentity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, src := range m.lines[fromIdentity] {
		merged := false
		for _, dst := range m.lines[toIdentity] {
			if dst.ProductID == src.ProductID {
				dst.Quantity += src.Quantity
				merged = true
				break
			}
		}
		if !merged {
			moved := *src
			moved.CartIdentity = toIdentity
			m.lines[toIdentity] = append(m.lines[toIdentity], &moved)
		}
	}
	delete(m.lines, fromIdentity)
	return nil
}

// MemoryOrderRepository is an in-memory OrderRepository. The checkout write
// is atomic: when FailCreate is set the order is not stored and the cart is
// left untouched, mirroring a rolled-back transaction.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	carts  *MemoryCartRepository
	nextID int64

	// FailCreate forces CreateWithLines to fail, for atomicity tests.
	FailCreate bool
}

// NewMemoryOrderRepository creates an in-memory order repository. The cart
// repository is used to clear the source cart inside the "transaction".
func NewMemoryOrderRepository(carts *MemoryCartRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*models.Order),
		carts:  carts,
		nextID: 1,
	}
}

func (m *MemoryOrderRepository) CreateWithLines(ctx context.Context, order *models.Order, clearCartIdentity string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate {
		return nil, errors.New("storage unavailable")
	}

	if order.ID == "" {
		order.ID = GenerateOrderID()
	}
	for i := range order.Lines {
		order.Lines[i].ID = m.nextID
		order.Lines[i].OrderID = order.ID
		m.nextID++
	}

	clone := *order
	clone.Lines = append([]models.OrderLine(nil), order.Lines...)
	m.orders[order.ID] = &clone

	if clearCartIdentity != "" && m.carts != nil {
		m.carts.Clear(ctx, clearCartIdentity)
	}
	return order, nil
}

func (m *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *order
	clone.Lines = append([]models.OrderLine(nil), order.Lines...)
	return &clone, nil
}

func (m *MemoryOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Order, 0)
	for _, order := range m.orders {
		if order.UserID == userID {
			clone := *order
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return out, nil
}

func (m *MemoryOrderRepository) List(ctx context.Context, limit, offset int) ([]*models.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*models.Order, 0, len(m.orders))
	for _, order := range m.orders {
		clone := *order
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PlacedAt.After(all[j].PlacedAt) })

	total := len(all)
	if offset >= total {
		return []*models.Order{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	order.Status = status
	clone := *order
	clone.Lines = append([]models.OrderLine(nil), order.Lines...)
	return &clone, nil
}

// MemoryProductCache is an in-memory ProductCache.
type MemoryProductCache struct {
	mu       sync.Mutex
	products map[int64]*models.Product
}

// NewMemoryProductCache creates an in-memory product cache.
func NewMemoryProductCache() *MemoryProductCache {
	return &MemoryProductCache{products: make(map[int64]*models.Product)}
}

func (m *MemoryProductCache) Get(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (m *MemoryProductCache) Set(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *product
	m.products[product.ID] = &clone
	return nil
}

func (m *MemoryProductCache) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}
