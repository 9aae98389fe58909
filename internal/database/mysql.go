package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/ghprime/jwt-pizza-service/internal/model"
	"github.com/ghprime/jwt-pizza-service/internal/utils"
)

// MySQLConfig carries the connection settings the MySQL engine needs.
type MySQLConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	ConnectTimeout time.Duration
	PerPage        int
}

// MySQLDAO is the production engine. Every operation opens its own dedicated
// connection and closes it when done; the two inherently multi statement
// operations (franchise cascade delete, full clear) run inside explicit
// transactions.
type MySQLDAO struct {
	cfg MySQLConfig
	log zerolog.Logger
}

// NewMySQLDAO creates the database and tables if they do not exist, seeds the
// default administrator on a fresh database, and only then returns. Callers
// therefore never see an engine whose schema is still being built.
func NewMySQLDAO(cfg MySQLConfig, log zerolog.Logger) (*MySQLDAO, error) {
	m := &MySQLDAO{cfg: cfg, log: log}
	if err := m.initialize(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MySQLDAO) GetMenu(ctx context.Context) ([]model.MenuItem, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT id, title, description, image, price FROM menu")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	menu := []model.MenuItem{}
	for rows.Next() {
		var item model.MenuItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Image, &item.Price); err != nil {
			return nil, err
		}
		menu = append(menu, item)
	}
	return menu, rows.Err()
}

func (m *MySQLDAO) AddMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.MenuItem{}, err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx,
		"INSERT INTO menu (title, description, image, price) VALUES (?, ?, ?, ?)",
		item.Title, item.Description, item.Image, item.Price)
	if err != nil {
		return model.MenuItem{}, err
	}
	item.ID, err = res.LastInsertId()
	return item, err
}

func (m *MySQLDAO) AddUser(ctx context.Context, user model.User) (model.User, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.User{}, err
	}
	defer db.Close()
	return m.addUser(ctx, db, user)
}

// addUser resolves every franchisee role target before inserting the user so
// a bad franchise name leaves no partial state.
func (m *MySQLDAO) addUser(ctx context.Context, db *sql.DB, user model.User) (model.User, error) {
	assignments := make([]model.RoleAssignment, 0, len(user.Roles))
	for _, role := range user.Roles {
		switch role.Role {
		case model.RoleFranchisee:
			var franchiseID int64
			err := db.QueryRowContext(ctx, "SELECT id FROM franchise WHERE name=?", role.Object).Scan(&franchiseID)
			if err == sql.ErrNoRows {
				return model.User{}, Internal("no ID found")
			}
			if err != nil {
				return model.User{}, err
			}
			assignments = append(assignments, model.RoleAssignment{Role: role.Role, ObjectID: franchiseID})
		default:
			assignments = append(assignments, model.RoleAssignment{Role: role.Role})
		}
	}

	hash, err := utils.HashPassword(user.Password, bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO user (name, email, password) VALUES (?, ?, ?)",
		user.Name, user.Email, hash)
	if err != nil {
		return model.User{}, err
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}

	for _, a := range assignments {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO userRole (userId, role, objectId) VALUES (?, ?, ?)",
			userID, a.Role, a.ObjectID); err != nil {
			return model.User{}, err
		}
	}

	user.ID = userID
	user.Password = ""
	user.Roles = assignments
	return user, nil
}

func (m *MySQLDAO) GetUser(ctx context.Context, email, password string) (model.User, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.User{}, err
	}
	defer db.Close()

	var user model.User
	var hash string
	err = db.QueryRowContext(ctx,
		"SELECT id, name, email, password FROM user WHERE email=? ORDER BY id LIMIT 1",
		email).Scan(&user.ID, &user.Name, &user.Email, &hash)
	if err == sql.ErrNoRows {
		return model.User{}, NotFound("unknown user")
	}
	if err != nil {
		return model.User{}, err
	}
	if password == "" || !utils.VerifyPassword(hash, password) {
		return model.User{}, NotFound("unknown user")
	}

	user.Roles, err = m.userRoles(ctx, db, user.ID)
	return user, err
}

func (m *MySQLDAO) UpdateUser(ctx context.Context, userID int64, email, password string) (model.User, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.User{}, err
	}
	defer db.Close()

	var exists int64
	err = db.QueryRowContext(ctx, "SELECT id FROM user WHERE id=?", userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.User{}, BadRequest("unknown user")
	}
	if err != nil {
		return model.User{}, err
	}

	sets := []string{}
	args := []any{}
	if password != "" {
		hash, err := utils.HashPassword(password, bcryptCost)
		if err != nil {
			return model.User{}, err
		}
		sets = append(sets, "password=?")
		args = append(args, hash)
	}
	if email != "" {
		sets = append(sets, "email=?")
		args = append(args, email)
	}
	if len(sets) > 0 {
		query := "UPDATE user SET " + strings.Join(sets, ", ") + " WHERE id=?"
		args = append(args, userID)
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return model.User{}, err
		}
	}

	var user model.User
	if err := db.QueryRowContext(ctx,
		"SELECT id, name, email FROM user WHERE id=?", userID).Scan(&user.ID, &user.Name, &user.Email); err != nil {
		return model.User{}, err
	}
	user.Roles, err = m.userRoles(ctx, db, userID)
	return user, err
}

func (m *MySQLDAO) LoginUser(ctx context.Context, userID int64, token string) error {
	db, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx,
		"INSERT INTO auth (token, userId) VALUES (?, ?)",
		tokenSignature(token), userID)
	return err
}

func (m *MySQLDAO) IsLoggedIn(ctx context.Context, token string) (bool, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var userID int64
	err = db.QueryRowContext(ctx,
		"SELECT userId FROM auth WHERE token=?", tokenSignature(token)).Scan(&userID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *MySQLDAO) LogoutUser(ctx context.Context, token string) error {
	db, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, "DELETE FROM auth WHERE token=?", tokenSignature(token))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return Internal("cannot logout if not logged in")
	}
	return nil
}

func (m *MySQLDAO) GetOrders(ctx context.Context, user model.User, page int) (model.OrderPage, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.OrderPage{}, err
	}
	defer db.Close()

	if page < 1 {
		page = 1
	}
	rows, err := db.QueryContext(ctx,
		"SELECT id, franchiseId, storeId, date FROM dinerOrder WHERE dinerId=? ORDER BY id LIMIT ? OFFSET ?",
		user.ID, m.cfg.PerPage, pageOffset(page, m.cfg.PerPage))
	if err != nil {
		return model.OrderPage{}, err
	}
	defer rows.Close()

	orders := []model.DinerOrder{}
	for rows.Next() {
		var order model.DinerOrder
		if err := rows.Scan(&order.ID, &order.FranchiseID, &order.StoreID, &order.Date); err != nil {
			return model.OrderPage{}, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return model.OrderPage{}, err
	}

	for i := range orders {
		orders[i].Items, err = m.orderItems(ctx, db, orders[i].ID)
		if err != nil {
			return model.OrderPage{}, err
		}
	}
	return model.OrderPage{DinerID: user.ID, Orders: orders, Page: page}, nil
}

func (m *MySQLDAO) AddDinerOrder(ctx context.Context, user model.User, order model.DinerOrder) (model.DinerOrder, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.DinerOrder{}, err
	}
	defer db.Close()

	// Descriptions and prices always come from the menu row, never from the
	// caller, and every referenced item must exist before the order row is
	// written.
	resolved := make([]model.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		var description string
		var price float64
		err := db.QueryRowContext(ctx,
			"SELECT description, price FROM menu WHERE id=?", item.MenuID).Scan(&description, &price)
		if err == sql.ErrNoRows {
			return model.DinerOrder{}, Internal("unknown menu item")
		}
		if err != nil {
			return model.DinerOrder{}, err
		}
		resolved = append(resolved, model.OrderItem{MenuID: item.MenuID, Description: description, Price: price})
	}

	date := time.Now().UTC()
	res, err := db.ExecContext(ctx,
		"INSERT INTO dinerOrder (dinerId, franchiseId, storeId, date) VALUES (?, ?, ?, ?)",
		user.ID, order.FranchiseID, order.StoreID, date)
	if err != nil {
		return model.DinerOrder{}, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return model.DinerOrder{}, err
	}

	for i := range resolved {
		itemRes, err := db.ExecContext(ctx,
			"INSERT INTO orderItem (orderId, menuId, description, price) VALUES (?, ?, ?, ?)",
			orderID, resolved[i].MenuID, resolved[i].Description, resolved[i].Price)
		if err != nil {
			return model.DinerOrder{}, err
		}
		resolved[i].ID, err = itemRes.LastInsertId()
		if err != nil {
			return model.DinerOrder{}, err
		}
	}

	return model.DinerOrder{
		ID:          orderID,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		DinerID:     user.ID,
		Date:        date,
		Items:       resolved,
	}, nil
}

func (m *MySQLDAO) CreateFranchise(ctx context.Context, franchise model.Franchise) (model.Franchise, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.Franchise{}, err
	}
	defer db.Close()

	admins := make([]model.User, 0, len(franchise.Admins))
	for _, admin := range franchise.Admins {
		var user model.User
		err := db.QueryRowContext(ctx,
			"SELECT id, name FROM user WHERE email=? ORDER BY id LIMIT 1",
			admin.Email).Scan(&user.ID, &user.Name)
		if err == sql.ErrNoRows {
			return model.Franchise{}, NotFound("unknown user for franchise admin " + admin.Email + " provided")
		}
		if err != nil {
			return model.Franchise{}, err
		}
		user.Email = admin.Email
		admins = append(admins, user)
	}

	res, err := db.ExecContext(ctx, "INSERT INTO franchise (name) VALUES (?)", franchise.Name)
	if err != nil {
		return model.Franchise{}, err
	}
	franchise.ID, err = res.LastInsertId()
	if err != nil {
		return model.Franchise{}, err
	}

	for _, admin := range admins {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO userRole (userId, role, objectId) VALUES (?, ?, ?)",
			admin.ID, model.RoleFranchisee, franchise.ID); err != nil {
			return model.Franchise{}, err
		}
	}

	franchise.Admins = admins
	return franchise, nil
}

// DeleteFranchise removes the franchise, its stores, and every franchisee
// role pointing at it as one atomic transaction. Deleting an unknown id is
// not an error.
func (m *MySQLDAO) DeleteFranchise(ctx context.Context, franchiseID int64) error {
	db, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		"DELETE FROM store WHERE franchiseId=?",
		"DELETE FROM userRole WHERE objectId=?",
		"DELETE FROM franchise WHERE id=?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, franchiseID); err != nil {
			_ = tx.Rollback()
			return Internal("unable to delete franchise")
		}
	}
	if err := tx.Commit(); err != nil {
		return Internal("unable to delete franchise")
	}
	return nil
}

func (m *MySQLDAO) GetFranchises(ctx context.Context, authUser *model.User) ([]model.Franchise, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT id, name FROM franchise")
	if err != nil {
		return nil, err
	}
	franchises := []model.Franchise{}
	for rows.Next() {
		var f model.Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			rows.Close()
			return nil, err
		}
		franchises = append(franchises, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	admin := authUser != nil && authUser.HasRole(model.RoleAdmin)
	for i := range franchises {
		if admin {
			franchises[i], err = m.franchiseDetail(ctx, db, franchises[i])
		} else {
			franchises[i].Stores, err = m.storeSummaries(ctx, db, franchises[i].ID)
		}
		if err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

func (m *MySQLDAO) GetUserFranchises(ctx context.Context, userID int64) ([]model.Franchise, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		"SELECT f.id, f.name FROM userRole AS ur JOIN franchise AS f ON f.id=ur.objectId WHERE ur.role='franchisee' AND ur.userId=?",
		userID)
	if err != nil {
		return nil, err
	}
	franchises := []model.Franchise{}
	for rows.Next() {
		var f model.Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			rows.Close()
			return nil, err
		}
		franchises = append(franchises, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range franchises {
		franchises[i], err = m.franchiseDetail(ctx, db, franchises[i])
		if err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

func (m *MySQLDAO) GetFranchise(ctx context.Context, franchiseID int64) (model.Franchise, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.Franchise{}, err
	}
	defer db.Close()

	var f model.Franchise
	err = db.QueryRowContext(ctx,
		"SELECT id, name FROM franchise WHERE id=?", franchiseID).Scan(&f.ID, &f.Name)
	if err == sql.ErrNoRows {
		return model.Franchise{}, NotFound("unknown franchise")
	}
	if err != nil {
		return model.Franchise{}, err
	}
	return m.franchiseDetail(ctx, db, f)
}

func (m *MySQLDAO) CreateStore(ctx context.Context, franchiseID int64, store model.Store) (model.Store, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return model.Store{}, err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx,
		"INSERT INTO store (franchiseId, name) VALUES (?, ?)", franchiseID, store.Name)
	if err != nil {
		return model.Store{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Store{}, err
	}
	return model.Store{ID: id, FranchiseID: franchiseID, Name: store.Name}, nil
}

func (m *MySQLDAO) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	db, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx,
		"DELETE FROM store WHERE franchiseId=? AND id=?", franchiseID, storeID)
	return err
}

// Clear truncates every table with foreign key enforcement suspended for the
// duration of one transaction, then reseeds the default administrator.
func (m *MySQLDAO) Clear(ctx context.Context) error {
	db, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, table := range allTables {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=1"); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	return m.seed(ctx, db)
}

// ----- helpers -----

func (m *MySQLDAO) userRoles(ctx context.Context, db *sql.DB, userID int64) ([]model.RoleAssignment, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT role, objectId FROM userRole WHERE userId=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []model.RoleAssignment{}
	for rows.Next() {
		var role model.RoleAssignment
		if err := rows.Scan(&role.Role, &role.ObjectID); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (m *MySQLDAO) orderItems(ctx context.Context, db *sql.DB, orderID int64) ([]model.OrderItem, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, menuId, description, price FROM orderItem WHERE orderId=?", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.MenuID, &item.Description, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLDAO) storeSummaries(ctx context.Context, db *sql.DB, franchiseID int64) ([]model.Store, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name FROM store WHERE franchiseId=?", franchiseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []model.Store{}
	for rows.Next() {
		var store model.Store
		if err := rows.Scan(&store.ID, &store.Name); err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, rows.Err()
}

// franchiseDetail loads the owning admins and the per store revenue
// aggregate. The outer join keeps stores with no orders in the result with a
// revenue of zero.
func (m *MySQLDAO) franchiseDetail(ctx context.Context, db *sql.DB, f model.Franchise) (model.Franchise, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT u.id, u.name, u.email FROM userRole AS ur JOIN user AS u ON u.id=ur.userId WHERE ur.objectId=? AND ur.role='franchisee'",
		f.ID)
	if err != nil {
		return model.Franchise{}, err
	}
	f.Admins = []model.User{}
	for rows.Next() {
		var admin model.User
		if err := rows.Scan(&admin.ID, &admin.Name, &admin.Email); err != nil {
			rows.Close()
			return model.Franchise{}, err
		}
		f.Admins = append(f.Admins, admin)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return model.Franchise{}, err
	}
	rows.Close()

	rows, err = db.QueryContext(ctx,
		`SELECT s.id, s.name, COALESCE(SUM(oi.price), 0) AS totalRevenue
		 FROM dinerOrder AS ord
		 JOIN orderItem AS oi ON ord.id=oi.orderId
		 RIGHT JOIN store AS s ON s.id=ord.storeId
		 WHERE s.franchiseId=?
		 GROUP BY s.id, s.name`,
		f.ID)
	if err != nil {
		return model.Franchise{}, err
	}
	defer rows.Close()

	f.Stores = []model.Store{}
	for rows.Next() {
		var store model.Store
		var revenue float64
		if err := rows.Scan(&store.ID, &store.Name, &revenue); err != nil {
			return model.Franchise{}, err
		}
		store.TotalRevenue = &revenue
		f.Stores = append(f.Stores, store)
	}
	return f, rows.Err()
}

func (m *MySQLDAO) seed(ctx context.Context, db *sql.DB) error {
	_, err := m.addUser(ctx, db, model.User{
		Name:     DefaultAdminName,
		Email:    DefaultAdminEmail,
		Password: DefaultAdminPassword,
		Roles:    []model.RoleAssignment{{Role: model.RoleAdmin}},
	})
	return err
}

// conn opens a dedicated connection to the configured database. Callers own
// the returned handle and must close it when the operation completes.
func (m *MySQLDAO) conn(ctx context.Context) (*sql.DB, error) {
	return m.open(ctx, m.cfg.Name)
}

func (m *MySQLDAO) open(ctx context.Context, dbName string) (*sql.DB, error) {
	auth := m.cfg.User
	if m.cfg.Password != "" {
		auth = fmt.Sprintf("%s:%s", m.cfg.User, m.cfg.Password)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&timeout=%s",
		auth, m.cfg.Host, m.cfg.Port, dbName, m.cfg.ConnectTimeout)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (m *MySQLDAO) initialize(ctx context.Context) error {
	db, err := m.open(ctx, "")
	if err != nil {
		return err
	}

	var schema string
	err = db.QueryRowContext(ctx,
		"SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?",
		m.cfg.Name).Scan(&schema)
	fresh := err == sql.ErrNoRows
	if err != nil && !fresh {
		db.Close()
		return err
	}
	m.log.Info().Str("database", m.cfg.Name).Bool("fresh", fresh).Msg("initializing database")

	if _, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+m.cfg.Name); err != nil {
		db.Close()
		return err
	}
	db.Close()

	db, err = m.conn(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range tableCreateStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if fresh {
		if err := m.seed(ctx, db); err != nil {
			return err
		}
	}
	return nil
}
