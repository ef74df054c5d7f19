package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rocketshop/shopcart/internal/core/domain"
	"github.com/rocketshop/shopcart/internal/port"
)

// memStore is a mutex-guarded in-memory port.Store. Atomic serializes
// writers and restores a snapshot when fn fails, so the services' no
// partial mutation guarantees are observable in tests.
type memStore struct {
	mu   sync.Mutex
	inTx bool
	data *memData
}

type memData struct {
	seq       int64
	products  map[string]*domain.Product
	carts     map[string]*domain.Cart
	cartItems map[string]*memCartItem
	orders    map[string]*domain.Order
	orderSeq  map[string]int64
	users     map[string]*domain.User
}

type memCartItem struct {
	domain.CartItem
	seq int64
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		products:  make(map[string]*domain.Product),
		carts:     make(map[string]*domain.Cart),
		cartItems: make(map[string]*memCartItem),
		orders:    make(map[string]*domain.Order),
		orderSeq:  make(map[string]int64),
		users:     make(map[string]*domain.User),
	}}
}

func (s *memStore) Products() port.ProductRepository { return &memProducts{s} }
func (s *memStore) Carts() port.CartRepository       { return &memCarts{s} }
func (s *memStore) Orders() port.OrderRepository     { return &memOrders{s} }
func (s *memStore) Users() port.UserRepository       { return &memUsers{s} }

func (s *memStore) Atomic(ctx context.Context, fn func(port.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memStore{inTx: true, data: s.data}); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// lock is a no-op inside Atomic, where the root mutex is already held.
func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (d *memData) clone() *memData {
	c := &memData{
		seq:       d.seq,
		products:  make(map[string]*domain.Product, len(d.products)),
		carts:     make(map[string]*domain.Cart, len(d.carts)),
		cartItems: make(map[string]*memCartItem, len(d.cartItems)),
		orders:    make(map[string]*domain.Order, len(d.orders)),
		orderSeq:  make(map[string]int64, len(d.orderSeq)),
		users:     make(map[string]*domain.User, len(d.users)),
	}
	for k, v := range d.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range d.carts {
		cart := *v
		cart.Items = nil
		c.carts[k] = &cart
	}
	for k, v := range d.cartItems {
		item := *v
		c.cartItems[k] = &item
	}
	for k, v := range d.orders {
		o := *v
		o.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[k] = &o
	}
	for k, v := range d.orderSeq {
		c.orderSeq[k] = v
	}
	for k, v := range d.users {
		u := *v
		c.users[k] = &u
	}
	return c
}

// products

type memProducts struct{ s *memStore }

func (r *memProducts) Create(ctx context.Context, p *domain.Product) error {
	defer r.s.lock()()
	cp := *p
	r.s.data.products[p.ID] = &cp
	return nil
}

func (r *memProducts) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	defer r.s.lock()()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProducts) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	defer r.s.lock()()
	for _, p := range r.s.data.products {
		if strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memProducts) FindAll(ctx context.Context) ([]domain.Product, error) {
	defer r.s.lock()()
	var out []domain.Product
	for _, p := range r.s.data.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProducts) FindAvailableByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	defer r.s.lock()()
	var out []domain.Product
	for _, p := range r.s.data.products {
		if p.Category == category && p.Stock > 0 {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProducts) Update(ctx context.Context, p *domain.Product) error {
	defer r.s.lock()()
	cp := *p
	r.s.data.products[p.ID] = &cp
	return nil
}

func (r *memProducts) Delete(ctx context.Context, id string) error {
	defer r.s.lock()()
	delete(r.s.data.products, id)
	return nil
}

func (r *memProducts) ReserveStock(ctx context.Context, productID string, qty int) (int, error) {
	defer r.s.lock()()
	p, ok := r.s.data.products[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	if p.Stock < qty {
		return 0, &domain.InsufficientStockError{
			ProductID: productID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: qty,
		}
	}
	p.Stock -= qty
	return p.Stock, nil
}

func (r *memProducts) ReleaseStock(ctx context.Context, productID string, qty int) (int, error) {
	defer r.s.lock()()
	p, ok := r.s.data.products[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	p.Stock += qty
	return p.Stock, nil
}

// carts

type memCarts struct{ s *memStore }

func (r *memCarts) Create(ctx context.Context, c *domain.Cart) error {
	defer r.s.lock()()
	cp := *c
	cp.Items = nil
	r.s.data.carts[c.ID] = &cp
	return nil
}

func (r *memCarts) FindActiveByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	defer r.s.lock()()
	for _, c := range r.s.data.carts {
		if c.UserID == userID && c.Status == domain.CartStatusActive {
			return r.withItems(c), nil
		}
	}
	return nil, nil
}

func (r *memCarts) FindByID(ctx context.Context, cartID string) (*domain.Cart, error) {
	defer r.s.lock()()
	c, ok := r.s.data.carts[cartID]
	if !ok {
		return nil, nil
	}
	return r.withItems(c), nil
}

func (r *memCarts) withItems(c *domain.Cart) *domain.Cart {
	cp := *c
	var items []*memCartItem
	for _, item := range r.s.data.cartItems {
		if item.CartID == c.ID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })
	for _, item := range items {
		ci := item.CartItem
		if p, ok := r.s.data.products[ci.ProductID]; ok {
			pp := *p
			ci.Product = &pp
		}
		cp.Items = append(cp.Items, ci)
	}
	return &cp
}

func (r *memCarts) UpdateStatus(ctx context.Context, cartID string, status domain.CartStatus) error {
	defer r.s.lock()()
	if c, ok := r.s.data.carts[cartID]; ok {
		c.Status = status
	}
	return nil
}

func (r *memCarts) UpdateTotal(ctx context.Context, cartID string, total decimal.Decimal) error {
	defer r.s.lock()()
	if c, ok := r.s.data.carts[cartID]; ok {
		c.Total = total
	}
	return nil
}

func (r *memCarts) FindItem(ctx context.Context, itemID string) (*domain.CartItem, error) {
	defer r.s.lock()()
	item, ok := r.s.data.cartItems[itemID]
	if !ok {
		return nil, nil
	}
	ci := item.CartItem
	return &ci, nil
}

func (r *memCarts) CreateItem(ctx context.Context, item *domain.CartItem) error {
	defer r.s.lock()()
	r.s.data.seq++
	r.s.data.cartItems[item.ID] = &memCartItem{CartItem: *item, seq: r.s.data.seq}
	return nil
}

func (r *memCarts) UpdateItemQuantity(ctx context.Context, itemID string, qty int) error {
	defer r.s.lock()()
	if item, ok := r.s.data.cartItems[itemID]; ok {
		item.Quantity = qty
	}
	return nil
}

func (r *memCarts) DeleteItem(ctx context.Context, itemID string) error {
	defer r.s.lock()()
	delete(r.s.data.cartItems, itemID)
	return nil
}

func (r *memCarts) DeleteItems(ctx context.Context, cartID string) error {
	defer r.s.lock()()
	for id, item := range r.s.data.cartItems {
		if item.CartID == cartID {
			delete(r.s.data.cartItems, id)
		}
	}
	return nil
}

// orders

type memOrders struct{ s *memStore }

func (r *memOrders) Create(ctx context.Context, o *domain.Order) error {
	defer r.s.lock()()
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	r.s.data.seq++
	r.s.data.orders[o.ID] = &cp
	r.s.data.orderSeq[o.ID] = r.s.data.seq
	return nil
}

func (r *memOrders) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	defer r.s.lock()()
	o, ok := r.s.data.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *memOrders) FindAll(ctx context.Context) ([]domain.Order, error) {
	defer r.s.lock()()
	return r.collect(func(*domain.Order) bool { return true }), nil
}

func (r *memOrders) FindAllByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	defer r.s.lock()()
	return r.collect(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *memOrders) collect(keep func(*domain.Order) bool) []domain.Order {
	var out []domain.Order
	for _, o := range r.s.data.orders {
		if keep(o) {
			cp := *o
			cp.Items = append([]domain.OrderItem(nil), o.Items...)
			out = append(out, cp)
		}
	}
	// most recent first
	sort.Slice(out, func(i, j int) bool {
		return r.s.data.orderSeq[out[i].ID] > r.s.data.orderSeq[out[j].ID]
	})
	return out
}

func (r *memOrders) Delete(ctx context.Context, orderID string) error {
	defer r.s.lock()()
	delete(r.s.data.orders, orderID)
	delete(r.s.data.orderSeq, orderID)
	return nil
}

// users

type memUsers struct{ s *memStore }

func (r *memUsers) Create(ctx context.Context, u *domain.User) error {
	defer r.s.lock()()
	cp := *u
	r.s.data.users[u.ID] = &cp
	return nil
}

func (r *memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// mockCache records idempotency keys and product invalidations.
type mockCache struct {
	mu           sync.Mutex
	held         map[string]bool
	invalidated  []string
	acquireError error
}

func newMockCache() *mockCache {
	return &mockCache{held: make(map[string]bool)}
}

func (m *mockCache) AcquireIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireError != nil {
		return false, m.acquireError
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *mockCache) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

func (m *mockCache) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return nil, nil
}

func (m *mockCache) SetProduct(ctx context.Context, p *domain.Product, ttl time.Duration) error {
	return nil
}

func (m *mockCache) InvalidateProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, id)
	return nil
}

// mockPublisher records published orders.
type mockPublisher struct {
	mu     sync.Mutex
	placed []*domain.Order
}

func (m *mockPublisher) OrderPlaced(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, o)
	return nil
}

func (m *mockPublisher) Close() {}
