package database

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghprime/jwt-pizza-service/internal/model"
)

// runDAOContract drives one engine through the full persistence contract.
// Both engines must pass it unchanged; perPage is the pagination size the
// engine was built with.
func runDAOContract(t *testing.T, dao DAO, perPage int) {
	ctx := context.Background()
	require.NoError(t, dao.Clear(ctx))

	t.Run("default admin is seeded", func(t *testing.T) {
		admin, err := dao.GetUser(ctx, DefaultAdminEmail, DefaultAdminPassword)
		require.NoError(t, err)
		assert.Equal(t, DefaultAdminName, admin.Name)
		assert.Empty(t, admin.Password)
		assert.True(t, admin.HasRole(model.RoleAdmin))
	})

	t.Run("wrong password is a 404", func(t *testing.T) {
		_, err := dao.GetUser(ctx, DefaultAdminEmail, "not-the-password")
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))

		_, err = dao.GetUser(ctx, DefaultAdminEmail, "")
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("roles round-trip through addUser", func(t *testing.T) {
		_, err := dao.CreateFranchise(ctx, model.Franchise{Name: "roundtrip"})
		require.NoError(t, err)

		user, err := dao.AddUser(ctx, model.User{
			Name:     "Frank",
			Email:    "frank@jwt.com",
			Password: "secret",
			Roles: []model.RoleAssignment{
				{Role: model.RoleDiner},
				{Role: model.RoleFranchisee, Object: "roundtrip"},
			},
		})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Empty(t, user.Password)
		assert.True(t, user.HasRole(model.RoleDiner))
		assert.True(t, user.HasRole(model.RoleFranchisee))

		fetched, err := dao.GetUser(ctx, "frank@jwt.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, user.ID, fetched.ID)
		assert.True(t, fetched.HasRole(model.RoleFranchisee))
	})

	t.Run("addUser with unknown franchise writes nothing", func(t *testing.T) {
		_, err := dao.AddUser(ctx, model.User{
			Name:     "Ghost",
			Email:    "ghost@jwt.com",
			Password: "secret",
			Roles:    []model.RoleAssignment{{Role: model.RoleFranchisee, Object: "no-such-franchise"}},
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))

		_, err = dao.GetUser(ctx, "ghost@jwt.com", "secret")
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("updateUser changes credentials", func(t *testing.T) {
		user, err := dao.AddUser(ctx, model.User{
			Name: "Upd", Email: "upd@jwt.com", Password: "old",
			Roles: []model.RoleAssignment{{Role: model.RoleDiner}},
		})
		require.NoError(t, err)

		updated, err := dao.UpdateUser(ctx, user.ID, "upd2@jwt.com", "new")
		require.NoError(t, err)
		assert.Equal(t, "upd2@jwt.com", updated.Email)
		assert.Empty(t, updated.Password)
		assert.True(t, updated.HasRole(model.RoleDiner))

		_, err = dao.GetUser(ctx, "upd2@jwt.com", "new")
		require.NoError(t, err)
		_, err = dao.GetUser(ctx, "upd@jwt.com", "old")
		require.Error(t, err)
	})

	t.Run("updateUser on unknown user is a 400", func(t *testing.T) {
		_, err := dao.UpdateUser(ctx, 999999, "x@jwt.com", "x")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	})

	t.Run("session lifecycle", func(t *testing.T) {
		token := "header.payload.signature-1"

		ok, err := dao.IsLoggedIn(ctx, token)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, dao.LoginUser(ctx, 1, token))
		ok, err = dao.IsLoggedIn(ctx, token)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, dao.LogoutUser(ctx, token))
		ok, err = dao.IsLoggedIn(ctx, token)
		require.NoError(t, err)
		assert.False(t, ok)

		err = dao.LogoutUser(ctx, token)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	})

	t.Run("malformed token is not a session", func(t *testing.T) {
		ok, err := dao.IsLoggedIn(ctx, "no-dots-at-all")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("menu", func(t *testing.T) {
		before, err := dao.GetMenu(ctx)
		require.NoError(t, err)

		item, err := dao.AddMenuItem(ctx, model.MenuItem{
			Title: "Veggie", Description: "A garden of delight", Image: "pizza1.png", Price: 0.0038,
		})
		require.NoError(t, err)
		assert.NotZero(t, item.ID)

		after, err := dao.GetMenu(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before)+1)
		assert.Equal(t, "Veggie", after[len(after)-1].Title)
	})

	t.Run("orders", func(t *testing.T) {
		diner, err := dao.AddUser(ctx, model.User{
			Name: "Diner", Email: "diner@jwt.com", Password: "diner",
			Roles: []model.RoleAssignment{{Role: model.RoleDiner}},
		})
		require.NoError(t, err)

		franchise, err := dao.CreateFranchise(ctx, model.Franchise{Name: "orderhouse"})
		require.NoError(t, err)
		store, err := dao.CreateStore(ctx, franchise.ID, model.Store{Name: "downtown"})
		require.NoError(t, err)
		menuItem, err := dao.AddMenuItem(ctx, model.MenuItem{
			Title: "Pepperoni", Description: "Spicy", Image: "pizza2.png", Price: 2,
		})
		require.NoError(t, err)

		t.Run("price comes from the menu, not the client", func(t *testing.T) {
			order, err := dao.AddDinerOrder(ctx, diner, model.DinerOrder{
				FranchiseID: franchise.ID,
				StoreID:     store.ID,
				Items:       []model.OrderItem{{MenuID: menuItem.ID, Description: "free pizza", Price: 0}},
			})
			require.NoError(t, err)
			require.Len(t, order.Items, 1)
			assert.Equal(t, "Spicy", order.Items[0].Description)
			assert.Equal(t, 2.0, order.Items[0].Price)
		})

		t.Run("unknown menu item writes nothing", func(t *testing.T) {
			_, err := dao.AddDinerOrder(ctx, diner, model.DinerOrder{
				FranchiseID: franchise.ID,
				StoreID:     store.ID,
				Items:       []model.OrderItem{{MenuID: 999999}},
			})
			require.Error(t, err)
			assert.Equal(t, http.StatusInternalServerError, StatusCode(err))

			page, err := dao.GetOrders(ctx, diner, 1)
			require.NoError(t, err)
			assert.Len(t, page.Orders, 1)
		})

		t.Run("pagination is 1-indexed with empty overflow pages", func(t *testing.T) {
			for i := 0; i < perPage; i++ {
				_, err := dao.AddDinerOrder(ctx, diner, model.DinerOrder{
					FranchiseID: franchise.ID,
					StoreID:     store.ID,
					Items:       []model.OrderItem{{MenuID: menuItem.ID}},
				})
				require.NoError(t, err)
			}

			first, err := dao.GetOrders(ctx, diner, 1)
			require.NoError(t, err)
			assert.Equal(t, diner.ID, first.DinerID)
			assert.Equal(t, 1, first.Page)
			assert.Len(t, first.Orders, perPage)

			second, err := dao.GetOrders(ctx, diner, 2)
			require.NoError(t, err)
			assert.Len(t, second.Orders, 1)

			third, err := dao.GetOrders(ctx, diner, 3)
			require.NoError(t, err)
			assert.Empty(t, third.Orders)
		})

		t.Run("store revenue aggregates live orders", func(t *testing.T) {
			detail, err := dao.GetFranchise(ctx, franchise.ID)
			require.NoError(t, err)
			require.Len(t, detail.Stores, 1)
			require.NotNil(t, detail.Stores[0].TotalRevenue)
			assert.Equal(t, float64(2*(perPage+1)), *detail.Stores[0].TotalRevenue)

			empty, err := dao.CreateStore(ctx, franchise.ID, model.Store{Name: "idle"})
			require.NoError(t, err)
			detail, err = dao.GetFranchise(ctx, franchise.ID)
			require.NoError(t, err)
			for _, s := range detail.Stores {
				if s.ID == empty.ID {
					require.NotNil(t, s.TotalRevenue)
					assert.Zero(t, *s.TotalRevenue)
				}
			}
		})
	})

	t.Run("franchises", func(t *testing.T) {
		owner, err := dao.AddUser(ctx, model.User{
			Name: "Owner", Email: "owner@jwt.com", Password: "owner",
			Roles: []model.RoleAssignment{{Role: model.RoleDiner}},
		})
		require.NoError(t, err)

		t.Run("unknown admin email is a 404", func(t *testing.T) {
			_, err := dao.CreateFranchise(ctx, model.Franchise{
				Name:   "doomed",
				Admins: []model.User{{Email: "nobody@jwt.com"}},
			})
			require.Error(t, err)
			assert.Equal(t, http.StatusNotFound, StatusCode(err))
		})

		franchise, err := dao.CreateFranchise(ctx, model.Franchise{
			Name:   "pizzapocalypse",
			Admins: []model.User{{Email: owner.Email}},
		})
		require.NoError(t, err)
		require.Len(t, franchise.Admins, 1)
		assert.Equal(t, owner.ID, franchise.Admins[0].ID)

		t.Run("creation grants the franchisee role", func(t *testing.T) {
			owned, err := dao.GetUserFranchises(ctx, owner.ID)
			require.NoError(t, err)
			require.Len(t, owned, 1)
			assert.Equal(t, franchise.ID, owned[0].ID)
		})

		t.Run("anonymous listing hides admins", func(t *testing.T) {
			franchises, err := dao.GetFranchises(ctx, nil)
			require.NoError(t, err)
			require.NotEmpty(t, franchises)
			for _, f := range franchises {
				assert.Empty(t, f.Admins)
			}
		})

		t.Run("admin listing includes admins", func(t *testing.T) {
			admin, err := dao.GetUser(ctx, DefaultAdminEmail, DefaultAdminPassword)
			require.NoError(t, err)
			franchises, err := dao.GetFranchises(ctx, &admin)
			require.NoError(t, err)
			found := false
			for _, f := range franchises {
				if f.ID == franchise.ID {
					found = true
					require.Len(t, f.Admins, 1)
					assert.Equal(t, owner.Email, f.Admins[0].Email)
				}
			}
			assert.True(t, found)
		})

		t.Run("store create and delete", func(t *testing.T) {
			store, err := dao.CreateStore(ctx, franchise.ID, model.Store{Name: "fleeting"})
			require.NoError(t, err)
			assert.NotZero(t, store.ID)
			assert.Equal(t, franchise.ID, store.FranchiseID)

			require.NoError(t, dao.DeleteStore(ctx, franchise.ID, store.ID))
			detail, err := dao.GetFranchise(ctx, franchise.ID)
			require.NoError(t, err)
			for _, s := range detail.Stores {
				assert.NotEqual(t, store.ID, s.ID)
			}
			// deleting again is a no-op
			require.NoError(t, dao.DeleteStore(ctx, franchise.ID, store.ID))
		})

		t.Run("delete cascades and is idempotent", func(t *testing.T) {
			_, err := dao.CreateStore(ctx, franchise.ID, model.Store{Name: "cascade"})
			require.NoError(t, err)

			require.NoError(t, dao.DeleteFranchise(ctx, franchise.ID))
			_, err = dao.GetFranchise(ctx, franchise.ID)
			assert.Equal(t, http.StatusNotFound, StatusCode(err))

			owned, err := dao.GetUserFranchises(ctx, owner.ID)
			require.NoError(t, err)
			assert.Empty(t, owned)

			require.NoError(t, dao.DeleteFranchise(ctx, franchise.ID))
		})
	})

	t.Run("clear reseeds the admin", func(t *testing.T) {
		require.NoError(t, dao.Clear(ctx))

		admin, err := dao.GetUser(ctx, DefaultAdminEmail, DefaultAdminPassword)
		require.NoError(t, err)
		assert.True(t, admin.HasRole(model.RoleAdmin))

		menu, err := dao.GetMenu(ctx)
		require.NoError(t, err)
		assert.Empty(t, menu)

		page, err := dao.GetOrders(ctx, model.User{ID: admin.ID}, 1)
		require.NoError(t, err)
		assert.Empty(t, page.Orders)
	})
}

// duplicate emails are allowed; login resolves to the earliest account.
func runDuplicateEmailContract(t *testing.T, dao DAO) {
	ctx := context.Background()
	require.NoError(t, dao.Clear(ctx))

	var ids []int64
	for i := 0; i < 2; i++ {
		user, err := dao.AddUser(ctx, model.User{
			Name:     fmt.Sprintf("Twin %d", i),
			Email:    "twin@jwt.com",
			Password: "same",
			Roles:    []model.RoleAssignment{{Role: model.RoleDiner}},
		})
		require.NoError(t, err)
		ids = append(ids, user.ID)
	}

	fetched, err := dao.GetUser(ctx, "twin@jwt.com", "same")
	require.NoError(t, err)
	assert.Equal(t, ids[0], fetched.ID)
}
