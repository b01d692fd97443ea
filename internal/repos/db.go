package repos

import (
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// tsLayout sorts lexically in the same order as chronologically.
const tsLayout = "2006-01-02T15:04:05.000000Z"

func now() string { return time.Now().UTC().Format(tsLayout) }

// OpenDB connects to the configured store, applies the schema and seeds
// baseline data. Seeding is idempotent and safe on every start.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverSQLite, "":
		db, err = sqlx.Open("sqlite", sqlitePragmas(dsn))
		if err != nil {
			return nil, err
		}
		// one connection serializes writers and keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := seedAdmin(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	if err := seedProducts(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed products: %w", err)
	}
	return db, nil
}

func sqlitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func ensureSchema(db *sqlx.DB) error {
	stmts := sqliteSchema
	if db.DriverName() == "pgx" {
		stmts = postgresSchema
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user','admin')),
  created_at TEXT NOT NULL,
  updated_at TEXT
)`,
	`CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  category TEXT NOT NULL,
  images_json TEXT NOT NULL DEFAULT '[]',
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  added_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS cart(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT NOT NULL,
  updated_at TEXT,
  UNIQUE(user_id, product_id)
)`,
	`CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  items TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL DEFAULT 'cash-on-delivery',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','processing','completed','cancelled')),
  created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS outbox(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  event_key TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at TEXT NOT NULL,
  sent_at TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at, id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users(
  id BIGSERIAL PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user','admin')),
  created_at TEXT NOT NULL,
  updated_at TEXT
)`,
	`CREATE TABLE IF NOT EXISTS products(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
  category TEXT NOT NULL,
  images_json TEXT NOT NULL DEFAULT '[]',
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  added_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS cart(
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT NOT NULL,
  updated_at TEXT,
  UNIQUE(user_id, product_id)
)`,
	`CREATE TABLE IF NOT EXISTS orders(
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  items TEXT NOT NULL,
  total_amount NUMERIC(12,2) NOT NULL,
  payment_method TEXT NOT NULL DEFAULT 'cash-on-delivery',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','processing','completed','cancelled')),
  created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS outbox(
  id BIGSERIAL PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  event_key TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at TEXT NOT NULL,
  sent_at TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at, id)`,
}

// seedAdmin ensures the bootstrap admin account exists (idempotent).
func seedAdmin(db *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(db.Rebind(`
		INSERT INTO users(username,email,password_hash,role,created_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT DO NOTHING
	`), "admin", "admin@ecommerce.com", string(hash), "admin", now())
	return err
}

type seedProduct struct {
	Name, Description, Price, Category string
	Stock                              int
}

var sampleProducts = []seedProduct{
	{"Smartphone Pro Max", "Latest flagship smartphone with advanced camera system", "999.99", "Electronics", 50},
	{"Wireless Headphones", "Noise-cancelling over-ear headphones with 30h battery", "299.99", "Electronics", 30},
	{"Designer Jacket", "Premium water-resistant jacket for all seasons", "199.99", "Clothing", 25},
	{"Running Shoes", "Lightweight running shoes with responsive cushioning", "149.99", "Sports", 40},
	{"Coffee Maker", "Programmable drip coffee maker, 12 cups", "89.99", "Home", 20},
	{"Laptop Stand", "Adjustable aluminium stand for laptops up to 17 inches", "49.99", "Electronics", 35},
	{"Yoga Mat", "Non-slip exercise mat with carrying strap", "39.99", "Sports", 60},
	{"Smart Watch", "Fitness tracking smartwatch with heart-rate monitor", "399.99", "Electronics", 25},
}

// seedProducts inserts the sample catalog only into an empty products table.
func seedProducts(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var adminID int64
	if err := db.Get(&adminID, db.Rebind(`SELECT id FROM users WHERE username = ?`), "admin"); err != nil {
		return err
	}

	log.Println("[seed] inserting sample products")

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, p := range sampleProducts {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO products(name,description,price,category,images_json,stock_quantity,added_by,created_at)
			VALUES(?,?,?,?,'[]',?,?,?)
		`), p.Name, p.Description, p.Price, p.Category, p.Stock, adminID, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}
