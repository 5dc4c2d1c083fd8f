package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/shopnest/internal/model"
)

// MemoryRepository хранит документы в памяти процесса. Используется без DATABASE_URI и в тестах.
// Документы отдаются и принимаются копиями, поэтому изменения вызывающего кода не видны до сохранения.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*model.Product
	orders   map[uuid.UUID]*model.Order
	users    map[uuid.UUID]*model.User
}

// NewMemoryRepository создаёт пустое хранилище.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[uuid.UUID]*model.Product),
		orders:   make(map[uuid.UUID]*model.Order),
		users:    make(map[uuid.UUID]*model.User),
	}
}

// Close ничего не делает.
func (m *MemoryRepository) Close() error {
	return nil
}

// CreateProduct сохраняет новый товар.
func (m *MemoryRepository) CreateProduct(_ context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; ok {
		return fmt.Errorf("%w: product %s", ErrDuplicate, p.ID)
	}
	p.Version = 1
	m.products[p.ID] = p.Clone()
	return nil
}

// GetProduct возвращает копию товара.
func (m *MemoryRepository) GetProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// SaveProduct записывает товар, если его версия совпадает с сохранённой.
func (m *MemoryRepository) SaveProduct(_ context.Context, p *model.Product, opts SaveOptions) error {
	if opts.Validate {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != p.Version {
		return fmt.Errorf("%w: product %s has version %d, expected %d", ErrStaleDocument, p.ID, cur.Version, p.Version)
	}

	p.Version++
	stored := p.Clone()
	stored.CreatedAt = cur.CreatedAt
	stored.UserID = cur.UserID
	m.products[p.ID] = stored
	return nil
}

// ListProducts возвращает страницу товаров по фильтру и общее число товаров.
func (m *MemoryRepository) ListProducts(_ context.Context, f ProductFilter) ([]model.Product, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keyword := strings.ToLower(f.Keyword)
	var res []model.Product
	for _, p := range m.products {
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		res = append(res, *p.Clone())
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})

	if f.Limit > 0 {
		start := min(f.Offset, len(res))
		end := min(start+f.Limit, len(res))
		res = res[start:end]
	}

	return res, len(m.products), nil
}

// DeleteProduct удаляет товар.
func (m *MemoryRepository) DeleteProduct(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return 0, nil
	}
	delete(m.products, id)
	return 1, nil
}

// CreateOrder сохраняет новый заказ.
func (m *MemoryRepository) CreateOrder(_ context.Context, o *model.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; ok {
		return fmt.Errorf("%w: order %s", ErrDuplicate, o.ID)
	}
	m.orders[o.ID] = o.Clone()
	return nil
}

// GetOrder возвращает копию заказа.
func (m *MemoryRepository) GetOrder(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

// SaveOrder перезаписывает заказ.
func (m *MemoryRepository) SaveOrder(_ context.Context, o *model.Order, opts SaveOptions) error {
	if opts.Validate {
		if err := o.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	m.orders[o.ID] = o.Clone()
	return nil
}

// ListOrders возвращает заказы по фильтру, новые первыми.
func (m *MemoryRepository) ListOrders(_ context.Context, f OrderFilter) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []model.Order
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		res = append(res, *o.Clone())
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// DeleteOrder удаляет заказ.
func (m *MemoryRepository) DeleteOrder(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return 0, nil
	}
	delete(m.orders, id)
	return 1, nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	if u.ResetPasswordExpire != nil {
		t := *u.ResetPasswordExpire
		c.ResetPasswordExpire = &t
	}
	return &c
}

func (m *MemoryRepository) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range m.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// CreateUser сохраняет нового пользователя.
func (m *MemoryRepository) CreateUser(_ context.Context, u *model.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok || m.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: user %s", ErrDuplicate, u.Email)
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

// GetUserByID возвращает копию пользователя.
func (m *MemoryRepository) GetUserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

// GetUserByEmail возвращает пользователя по email.
func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByResetToken ищет пользователя с действующим токеном восстановления.
func (m *MemoryRepository) GetUserByResetToken(_ context.Context, tokenHash string, now time.Time) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ResetPasswordToken == tokenHash && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

// SaveUser перезаписывает пользователя.
func (m *MemoryRepository) SaveUser(_ context.Context, u *model.User, opts SaveOptions) error {
	if opts.Validate {
		if err := u.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: user %s", ErrDuplicate, u.Email)
	}

	stored := cloneUser(u)
	stored.CreatedAt = cur.CreatedAt
	m.users[u.ID] = stored
	return nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (m *MemoryRepository) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, *cloneUser(u))
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

// DeleteUser удаляет пользователя.
func (m *MemoryRepository) DeleteUser(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return 0, nil
	}
	delete(m.users, id)
	return 1, nil
}

// ClearExpiredResetTokens стирает просроченные токены восстановления.
func (m *MemoryRepository) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, u := range m.users {
		if u.ResetPasswordToken != "" && u.ResetPasswordExpire != nil && !u.ResetPasswordExpire.After(now) {
			u.ClearResetToken()
			n++
		}
	}
	return n, nil
}
