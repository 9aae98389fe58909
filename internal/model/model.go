// Package model defines the entities shared by the persistence engines and
// the HTTP handlers: users and their role assignments, franchises with their
// stores, the global menu, and diner orders.
package model

import "time"

// Role is a named capability granted to a user.
type Role string

const (
	RoleDiner      Role = "diner"
	RoleFranchisee Role = "franchisee"
	RoleAdmin      Role = "admin"
)

// RoleAssignment grants a Role to a user. For franchisee roles ObjectID is
// the owning franchise id; for diner and admin roles there is no object and
// ObjectID stays zero, which is omitted from responses. Object carries the
// franchise name on input when a franchisee role is requested by name.
type RoleAssignment struct {
	Role     Role   `json:"role"`
	Object   string `json:"object,omitempty"`
	ObjectID int64  `json:"objectId,omitempty"`
	UserID   int64  `json:"-"`
}

// User is an account holder. Password is only ever populated on input; every
// read path strips it before the value leaves the persistence layer.
type User struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password,omitempty"`
	Roles    []RoleAssignment `json:"roles"`
}

// HasRole reports whether any of the user's assignments carries the role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// Franchise groups stores under a set of owning admins. Admins and store
// revenue are only populated on detail reads.
type Franchise struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Admins []User  `json:"admins,omitempty"`
	Stores []Store `json:"stores"`
}

// Store is a single location of a franchise. TotalRevenue is derived from
// order items at read time and is nil on listings that hide revenue.
type Store struct {
	ID           int64    `json:"id"`
	FranchiseID  int64    `json:"franchiseId,omitempty"`
	Name         string   `json:"name"`
	TotalRevenue *float64 `json:"totalRevenue,omitempty"`
}

// MenuItem is a globally available pizza. Duplicate titles are allowed and
// receive distinct ids.
type MenuItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

// OrderItem is a line of a diner order. Description and price are copied
// from the menu item at order time; client supplied values are ignored.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"-"`
	MenuID      int64   `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// DinerOrder is an order placed by a diner at a franchise store.
type DinerOrder struct {
	ID          int64       `json:"id"`
	FranchiseID int64       `json:"franchiseId"`
	StoreID     int64       `json:"storeId"`
	Date        time.Time   `json:"date"`
	DinerID     int64       `json:"dinerId,omitempty"`
	Items       []OrderItem `json:"items"`
}

// OrderPage is one page of a diner's order history.
type OrderPage struct {
	DinerID int64        `json:"dinerId"`
	Orders  []DinerOrder `json:"orders"`
	Page    int          `json:"page"`
}
