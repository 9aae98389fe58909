// Package database holds the persistence engines for the pizza service: a
// MySQL backed engine used in production and an in-memory engine that keeps
// the same observable behavior for dependency free tests. Both satisfy DAO
// and are interchangeable behind it.
package database

import (
	"context"
	"strings"

	"github.com/ghprime/jwt-pizza-service/internal/model"
)

// DAO is the contract every persistence engine implements. Mutations assign
// ids, read paths never return password hashes, and typed StatusError values
// carry the HTTP status the boundary should report.
type DAO interface {
	GetMenu(ctx context.Context) ([]model.MenuItem, error)
	AddMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)

	AddUser(ctx context.Context, user model.User) (model.User, error)
	GetUser(ctx context.Context, email, password string) (model.User, error)
	UpdateUser(ctx context.Context, userID int64, email, password string) (model.User, error)

	LoginUser(ctx context.Context, userID int64, token string) error
	IsLoggedIn(ctx context.Context, token string) (bool, error)
	LogoutUser(ctx context.Context, token string) error

	GetOrders(ctx context.Context, user model.User, page int) (model.OrderPage, error)
	AddDinerOrder(ctx context.Context, user model.User, order model.DinerOrder) (model.DinerOrder, error)

	CreateFranchise(ctx context.Context, franchise model.Franchise) (model.Franchise, error)
	DeleteFranchise(ctx context.Context, franchiseID int64) error
	GetFranchises(ctx context.Context, authUser *model.User) ([]model.Franchise, error)
	GetUserFranchises(ctx context.Context, userID int64) ([]model.Franchise, error)
	GetFranchise(ctx context.Context, franchiseID int64) (model.Franchise, error)

	CreateStore(ctx context.Context, franchiseID int64, store model.Store) (model.Store, error)
	DeleteStore(ctx context.Context, franchiseID, storeID int64) error

	Clear(ctx context.Context) error
}

// Default administrator reseeded after every Clear and on first
// initialization of an empty backing store. A bootstrap account, not a
// security boundary.
const (
	DefaultAdminName     = "常用名字"
	DefaultAdminEmail    = "a@jwt.com"
	DefaultAdminPassword = "admin"
)

// bcryptCost is shared by both engines so they cannot be told apart by
// hashing behavior.
const bcryptCost = 10

// tokenSignature returns the third dot separated segment of a signed token,
// the only part stored as a session key. Malformed tokens map to the empty
// signature.
func tokenSignature(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) > 2 {
		return parts[2]
	}
	return ""
}

// pageOffset converts a 1-indexed page into a slice/query offset.
func pageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
