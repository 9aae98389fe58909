package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghprime/jwt-pizza-service/internal/model"
)

func TestCreateFranchise(t *testing.T) {
	app := newTestApp(t)
	diner := app.register(t, "Pat", "pat@jwt.com", "secret")
	admin := app.loginAdmin(t)

	t.Run("diner is forbidden", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/franchise", diner.Token, model.Franchise{Name: "nope"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		msg := decode[map[string]string](t, rec)
		assert.Equal(t, "unable to create a franchise", msg["message"])
	})

	t.Run("admin creates with owners", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/franchise", admin.Token, model.Franchise{
			Name:   "pizzaPlace",
			Admins: []model.User{{Email: "pat@jwt.com"}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		franchise := decode[model.Franchise](t, rec)
		assert.NotZero(t, franchise.ID)
		require.Len(t, franchise.Admins, 1)
		assert.Equal(t, diner.User.ID, franchise.Admins[0].ID)
	})

	t.Run("unknown owner email is a 404", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/franchise", admin.Token, model.Franchise{
			Name:   "ghost town",
			Admins: []model.User{{Email: "nobody@jwt.com"}},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListFranchises(t *testing.T) {
	app := newTestApp(t)
	owner := app.register(t, "Owner", "owner@jwt.com", "secret")
	admin := app.loginAdmin(t)

	rec := app.do(t, http.MethodPost, "/api/franchise", admin.Token, model.Franchise{
		Name:   "visible",
		Admins: []model.User{{Email: "owner@jwt.com"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("anonymous callers see no admins", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/franchise", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		franchises := decode[[]model.Franchise](t, rec)
		require.Len(t, franchises, 1)
		assert.Empty(t, franchises[0].Admins)
	})

	t.Run("admins see the roster", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/franchise", admin.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		franchises := decode[[]model.Franchise](t, rec)
		require.Len(t, franchises, 1)
		require.Len(t, franchises[0].Admins, 1)
		assert.Equal(t, "owner@jwt.com", franchises[0].Admins[0].Email)
	})

	t.Run("owners see their own franchises", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/franchise/"+itoa(owner.User.ID), owner.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		franchises := decode[[]model.Franchise](t, rec)
		assert.Len(t, franchises, 1)
	})

	t.Run("strangers asking for another user get an empty list", func(t *testing.T) {
		stranger := app.register(t, "Nosy", "nosy@jwt.com", "secret")
		rec := app.do(t, http.MethodGet, "/api/franchise/"+itoa(owner.User.ID), stranger.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		franchises := decode[[]model.Franchise](t, rec)
		assert.Empty(t, franchises)
	})
}

func TestStoreLifecycle(t *testing.T) {
	app := newTestApp(t)
	owner := app.register(t, "Owner", "owner@jwt.com", "secret")
	stranger := app.register(t, "Stranger", "stranger@jwt.com", "secret")
	admin := app.loginAdmin(t)

	rec := app.do(t, http.MethodPost, "/api/franchise", admin.Token, model.Franchise{
		Name:   "storehouse",
		Admins: []model.User{{Email: "owner@jwt.com"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	franchise := decode[model.Franchise](t, rec)
	base := "/api/franchise/" + itoa(franchise.ID) + "/store"

	// the owner token predates the franchisee role grant; refresh it
	owner = app.login(t, "owner@jwt.com", "secret")

	t.Run("stranger may not create a store", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, base, stranger.Token, model.Store{Name: "nope"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		msg := decode[map[string]string](t, rec)
		assert.Equal(t, "unable to create a store", msg["message"])
	})

	var store model.Store
	t.Run("franchise owner creates a store", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, base, owner.Token, model.Store{Name: "downtown"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		store = decode[model.Store](t, rec)
		assert.NotZero(t, store.ID)
	})

	t.Run("stranger may not delete a store", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, base+"/"+itoa(store.ID), stranger.Token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		msg := decode[map[string]string](t, rec)
		assert.Equal(t, "unable to delete a store", msg["message"])
	})

	t.Run("owner deletes the store", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, base+"/"+itoa(store.ID), owner.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		msg := decode[map[string]string](t, rec)
		assert.Equal(t, "store deleted", msg["message"])
	})
}

func TestDeleteFranchise(t *testing.T) {
	app := newTestApp(t)
	diner := app.register(t, "Pat", "pat@jwt.com", "secret")
	admin := app.loginAdmin(t)

	rec := app.do(t, http.MethodPost, "/api/franchise", admin.Token, model.Franchise{Name: "doomed"})
	require.Equal(t, http.StatusOK, rec.Code)
	franchise := decode[model.Franchise](t, rec)

	t.Run("diner is forbidden", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/api/franchise/"+itoa(franchise.ID), diner.Token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		msg := decode[map[string]string](t, rec)
		assert.Equal(t, "unable to delete a franchise", msg["message"])
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/api/franchise/"+itoa(franchise.ID), admin.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		msg := decode[map[string]string](t, rec)
		assert.Equal(t, "franchise deleted", msg["message"])

		list := app.do(t, http.MethodGet, "/api/franchise", "", nil)
		franchises := decode[[]model.Franchise](t, list)
		assert.Empty(t, franchises)
	})
}
