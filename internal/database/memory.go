package database

import (
	"context"
	"sync"
	"time"

	"github.com/ghprime/jwt-pizza-service/internal/model"
	"github.com/ghprime/jwt-pizza-service/internal/utils"
)

// MemoryDAO is the in-process reference engine. Collections are append-only
// ordered slices with one monotonic id counter per entity type; deletes
// filter the slice. A single mutex serializes mutations since requests run
// in parallel.
type MemoryDAO struct {
	mu sync.Mutex

	users  []model.User
	userID int64

	roles []model.RoleAssignment

	auth map[string]int64

	franchises  []model.Franchise
	franchiseID int64

	stores  []model.Store
	storeID int64

	menuItems  []model.MenuItem
	menuItemID int64

	dinerOrders  []model.DinerOrder
	dinerOrderID int64

	orderItems  []model.OrderItem
	orderItemID int64

	perPage int
}

// NewMemoryDAO builds an empty engine and seeds the default administrator.
// perPage is the order pagination size shared with the MySQL engine.
func NewMemoryDAO(perPage int) (*MemoryDAO, error) {
	m := &MemoryDAO{auth: map[string]int64{}, perPage: perPage}
	if err := m.seed(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MemoryDAO) seed() error {
	_, err := m.AddUser(context.Background(), model.User{
		Name:     DefaultAdminName,
		Email:    DefaultAdminEmail,
		Password: DefaultAdminPassword,
		Roles:    []model.RoleAssignment{{Role: model.RoleAdmin}},
	})
	return err
}

func (m *MemoryDAO) GetMenu(_ context.Context) ([]model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	menu := make([]model.MenuItem, len(m.menuItems))
	copy(menu, m.menuItems)
	return menu, nil
}

func (m *MemoryDAO) AddMenuItem(_ context.Context, item model.MenuItem) (model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menuItemID++
	item.ID = m.menuItemID
	m.menuItems = append(m.menuItems, item)
	return item, nil
}

func (m *MemoryDAO) AddUser(_ context.Context, user model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Resolve every franchisee role target before mutating anything so a bad
	// role name cannot leave an orphaned user row behind.
	assignments := make([]model.RoleAssignment, 0, len(user.Roles))
	for _, role := range user.Roles {
		switch role.Role {
		case model.RoleFranchisee:
			franchise, ok := m.franchiseByName(role.Object)
			if !ok {
				return model.User{}, Internal("no ID found")
			}
			assignments = append(assignments, model.RoleAssignment{Role: role.Role, ObjectID: franchise.ID})
		default:
			assignments = append(assignments, model.RoleAssignment{Role: role.Role})
		}
	}

	hash, err := utils.HashPassword(user.Password, bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	m.userID++
	stored := user
	stored.ID = m.userID
	stored.Password = hash
	stored.Roles = nil
	m.users = append(m.users, stored)

	for _, a := range assignments {
		a.UserID = stored.ID
		m.roles = append(m.roles, a)
	}

	out := stored
	out.Password = ""
	out.Roles = m.rolesForUser(stored.ID)
	return out, nil
}

func (m *MemoryDAO) GetUser(_ context.Context, email, password string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Email != email {
			continue
		}
		if password == "" || !utils.VerifyPassword(user.Password, password) {
			break
		}
		out := user
		out.Password = ""
		out.Roles = m.rolesForUser(user.ID)
		return out, nil
	}
	return model.User{}, NotFound("unknown user")
}

func (m *MemoryDAO) UpdateUser(_ context.Context, userID int64, email, password string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.users {
		if m.users[i].ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.User{}, BadRequest("unknown user")
	}

	if email != "" {
		m.users[idx].Email = email
	}
	if password != "" {
		hash, err := utils.HashPassword(password, bcryptCost)
		if err != nil {
			return model.User{}, err
		}
		m.users[idx].Password = hash
	}

	out := m.users[idx]
	out.Password = ""
	out.Roles = m.rolesForUser(userID)
	return out, nil
}

func (m *MemoryDAO) LoginUser(_ context.Context, userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth[tokenSignature(token)] = userID
	return nil
}

func (m *MemoryDAO) IsLoggedIn(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.auth[tokenSignature(token)]
	return ok, nil
}

func (m *MemoryDAO) LogoutUser(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sig := tokenSignature(token)
	if _, ok := m.auth[sig]; !ok {
		return Internal("cannot logout if not logged in")
	}
	delete(m.auth, sig)
	return nil
}

func (m *MemoryDAO) GetOrders(_ context.Context, user model.User, page int) (model.OrderPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if page < 1 {
		page = 1
	}
	var mine []model.DinerOrder
	for _, order := range m.dinerOrders {
		if order.DinerID == user.ID {
			mine = append(mine, order)
		}
	}

	orders := []model.DinerOrder{}
	offset := pageOffset(page, m.perPage)
	for i := offset; i < len(mine) && i < offset+m.perPage; i++ {
		order := mine[i]
		order.DinerID = 0
		order.Items = m.itemsForOrder(order.ID)
		orders = append(orders, order)
	}
	return model.OrderPage{DinerID: user.ID, Orders: orders, Page: page}, nil
}

func (m *MemoryDAO) AddDinerOrder(_ context.Context, user model.User, order model.DinerOrder) (model.DinerOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Every referenced menu item must exist before anything is written.
	menuByID := map[int64]model.MenuItem{}
	for _, item := range order.Items {
		menuItem, ok := m.menuItemByID(item.MenuID)
		if !ok {
			return model.DinerOrder{}, Internal("unknown menu item")
		}
		menuByID[item.MenuID] = menuItem
	}

	m.dinerOrderID++
	stored := model.DinerOrder{
		ID:          m.dinerOrderID,
		DinerID:     user.ID,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		Date:        time.Now().UTC(),
	}
	m.dinerOrders = append(m.dinerOrders, stored)

	for _, item := range order.Items {
		menuItem := menuByID[item.MenuID]
		m.orderItemID++
		m.orderItems = append(m.orderItems, model.OrderItem{
			ID:          m.orderItemID,
			OrderID:     stored.ID,
			MenuID:      menuItem.ID,
			Description: menuItem.Description,
			Price:       menuItem.Price,
		})
	}

	stored.Items = m.itemsForOrder(stored.ID)
	return stored, nil
}

func (m *MemoryDAO) CreateFranchise(_ context.Context, franchise model.Franchise) (model.Franchise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	admins := make([]model.User, 0, len(franchise.Admins))
	for _, admin := range franchise.Admins {
		user, ok := m.userByEmail(admin.Email)
		if !ok {
			return model.Franchise{}, NotFound("unknown user for franchise admin " + admin.Email + " provided")
		}
		admins = append(admins, model.User{ID: user.ID, Name: user.Name, Email: user.Email})
	}

	m.franchiseID++
	m.franchises = append(m.franchises, model.Franchise{ID: m.franchiseID, Name: franchise.Name})

	for _, admin := range admins {
		m.roles = append(m.roles, model.RoleAssignment{
			UserID:   admin.ID,
			Role:     model.RoleFranchisee,
			ObjectID: m.franchiseID,
		})
	}

	franchise.ID = m.franchiseID
	franchise.Admins = admins
	return franchise, nil
}

func (m *MemoryDAO) DeleteFranchise(_ context.Context, franchiseID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stores := m.stores[:0]
	for _, store := range m.stores {
		if store.FranchiseID != franchiseID {
			stores = append(stores, store)
		}
	}
	m.stores = stores

	roles := m.roles[:0]
	for _, role := range m.roles {
		if role.ObjectID != franchiseID {
			roles = append(roles, role)
		}
	}
	m.roles = roles

	franchises := m.franchises[:0]
	for _, franchise := range m.franchises {
		if franchise.ID != franchiseID {
			franchises = append(franchises, franchise)
		}
	}
	m.franchises = franchises
	return nil
}

func (m *MemoryDAO) GetFranchises(_ context.Context, authUser *model.User) ([]model.Franchise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	franchises := []model.Franchise{}
	for _, franchise := range m.franchises {
		if authUser != nil && authUser.HasRole(model.RoleAdmin) {
			franchises = append(franchises, m.franchiseDetail(franchise.ID))
		} else {
			franchises = append(franchises, model.Franchise{
				ID:     franchise.ID,
				Name:   franchise.Name,
				Stores: m.storeSummaries(franchise.ID),
			})
		}
	}
	return franchises, nil
}

func (m *MemoryDAO) GetUserFranchises(_ context.Context, userID int64) ([]model.Franchise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owned := map[int64]bool{}
	for _, role := range m.roles {
		if role.Role == model.RoleFranchisee && role.UserID == userID {
			owned[role.ObjectID] = true
		}
	}

	franchises := []model.Franchise{}
	for _, franchise := range m.franchises {
		if owned[franchise.ID] {
			franchises = append(franchises, m.franchiseDetail(franchise.ID))
		}
	}
	return franchises, nil
}

func (m *MemoryDAO) GetFranchise(_ context.Context, franchiseID int64) (model.Franchise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, franchise := range m.franchises {
		if franchise.ID == franchiseID {
			return m.franchiseDetail(franchiseID), nil
		}
	}
	return model.Franchise{}, NotFound("unknown franchise")
}

func (m *MemoryDAO) CreateStore(_ context.Context, franchiseID int64, store model.Store) (model.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeID++
	m.stores = append(m.stores, model.Store{ID: m.storeID, FranchiseID: franchiseID, Name: store.Name})
	return model.Store{ID: m.storeID, FranchiseID: franchiseID, Name: store.Name}, nil
}

func (m *MemoryDAO) DeleteStore(_ context.Context, franchiseID, storeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stores := m.stores[:0]
	for _, store := range m.stores {
		if store.ID != storeID || store.FranchiseID != franchiseID {
			stores = append(stores, store)
		}
	}
	m.stores = stores
	return nil
}

// Clear wipes every collection, resets all id counters, and reseeds the
// default administrator.
func (m *MemoryDAO) Clear(_ context.Context) error {
	m.mu.Lock()
	m.users = nil
	m.userID = 0
	m.roles = nil
	m.auth = map[string]int64{}
	m.franchises = nil
	m.franchiseID = 0
	m.stores = nil
	m.storeID = 0
	m.menuItems = nil
	m.menuItemID = 0
	m.dinerOrders = nil
	m.dinerOrderID = 0
	m.orderItems = nil
	m.orderItemID = 0
	m.mu.Unlock()

	return m.seed()
}

// ----- internal lookups; callers hold the mutex -----

func (m *MemoryDAO) rolesForUser(userID int64) []model.RoleAssignment {
	roles := []model.RoleAssignment{}
	for _, role := range m.roles {
		if role.UserID == userID {
			roles = append(roles, model.RoleAssignment{Role: role.Role, ObjectID: role.ObjectID})
		}
	}
	return roles
}

func (m *MemoryDAO) itemsForOrder(orderID int64) []model.OrderItem {
	items := []model.OrderItem{}
	for _, item := range m.orderItems {
		if item.OrderID == orderID {
			items = append(items, model.OrderItem{
				ID:          item.ID,
				MenuID:      item.MenuID,
				Description: item.Description,
				Price:       item.Price,
			})
		}
	}
	return items
}

func (m *MemoryDAO) userByEmail(email string) (model.User, bool) {
	for _, user := range m.users {
		if user.Email == email {
			return user, true
		}
	}
	return model.User{}, false
}

func (m *MemoryDAO) franchiseByName(name string) (model.Franchise, bool) {
	for _, franchise := range m.franchises {
		if franchise.Name == name {
			return franchise, true
		}
	}
	return model.Franchise{}, false
}

func (m *MemoryDAO) menuItemByID(id int64) (model.MenuItem, bool) {
	for _, item := range m.menuItems {
		if item.ID == id {
			return item, true
		}
	}
	return model.MenuItem{}, false
}

func (m *MemoryDAO) storeSummaries(franchiseID int64) []model.Store {
	stores := []model.Store{}
	for _, store := range m.stores {
		if store.FranchiseID == franchiseID {
			stores = append(stores, model.Store{ID: store.ID, Name: store.Name})
		}
	}
	return stores
}

// franchiseDetail joins admins and per store revenue the same way the MySQL
// engine's aggregate query does, by linear scan.
func (m *MemoryDAO) franchiseDetail(franchiseID int64) model.Franchise {
	var detail model.Franchise
	for _, franchise := range m.franchises {
		if franchise.ID == franchiseID {
			detail = model.Franchise{ID: franchise.ID, Name: franchise.Name}
			break
		}
	}

	detail.Admins = []model.User{}
	adminIDs := map[int64]bool{}
	for _, role := range m.roles {
		if role.Role == model.RoleFranchisee && role.ObjectID == franchiseID {
			adminIDs[role.UserID] = true
		}
	}
	for _, user := range m.users {
		if adminIDs[user.ID] {
			detail.Admins = append(detail.Admins, model.User{ID: user.ID, Name: user.Name, Email: user.Email})
		}
	}

	orderStore := map[int64]int64{}
	for _, order := range m.dinerOrders {
		if order.FranchiseID == franchiseID {
			orderStore[order.ID] = order.StoreID
		}
	}
	revenue := map[int64]float64{}
	for _, item := range m.orderItems {
		if storeID, ok := orderStore[item.OrderID]; ok {
			revenue[storeID] += item.Price
		}
	}

	detail.Stores = []model.Store{}
	for _, store := range m.stores {
		if store.FranchiseID != franchiseID {
			continue
		}
		total := revenue[store.ID]
		detail.Stores = append(detail.Stores, model.Store{ID: store.ID, Name: store.Name, TotalRevenue: &total})
	}
	return detail
}
