// Command setup creates the schema, the bootstrap admin and the sample
// catalog, then exits. The server does the same on startup; this is for
// preparing a database ahead of time.
package main

import (
	"log"

	"storefront/internal/config"
	"storefront/internal/repos"
)

func main() {
	cfg := config.Load()
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("[setup] %v", err)
	}
	defer db.Close()

	var products, users int
	if err := db.Get(&users, `SELECT COUNT(*) FROM users`); err != nil {
		log.Fatalf("[setup] %v", err)
	}
	if err := db.Get(&products, `SELECT COUNT(*) FROM products`); err != nil {
		log.Fatalf("[setup] %v", err)
	}
	log.Printf("[setup] %s database ready: %d users, %d products", cfg.DBDriver, users, products)
}
