// Package catalog reads products, extras and store settings from SQLite.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/fjod/go_storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrStoreNotFound   = errors.New("store not found")
)

type Repository struct {
	db *sql.DB
}

// RepoInterface is what the rest of the service needs from the catalog.
type RepoInterface interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetCatalog(ctx context.Context) (domain.Catalog, error)
	GetStoreConfig(ctx context.Context, storeID string) (*domain.StoreConfig, error)
	SaveStoreConfig(ctx context.Context, cfg *domain.StoreConfig) error
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// DB exposes the connection so the order outbox can live in the same file.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return r.loadProducts(ctx, "", nil)
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.loadProducts(ctx, "WHERE id = ?", []any{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return products[0], nil
}

// loadProducts reads the matching products and then their sizes, flavors
// and extra links. Each result set is drained before the next query runs.
func (r *Repository) loadProducts(ctx context.Context, where string, args []any) ([]*domain.Product, error) {
	query := `
		SELECT id, names, base_price, flavors_count
		FROM products ` + where + `
		ORDER BY position, id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	var products []*domain.Product
	byID := make(map[string]*domain.Product)
	for rows.Next() {
		var (
			p     domain.Product
			names string
			price string
		)
		if err := rows.Scan(&p.ID, &names, &price, &p.FlavorsCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Names = parseNames(names)
		p.BasePrice = parseMoney(price)
		products = append(products, &p)
		byID[p.ID] = &p
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	childWhere := ""
	if where != "" {
		childWhere = "WHERE product_id = ?"
	}
	if err := r.loadSizes(ctx, byID, childWhere, args); err != nil {
		return nil, err
	}
	if err := r.loadFlavors(ctx, byID, childWhere, args); err != nil {
		return nil, err
	}
	if err := r.loadExtraLinks(ctx, byID, childWhere, args); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) loadSizes(ctx context.Context, byID map[string]*domain.Product, where string, args []any) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, id, names, price_delta
		FROM product_sizes `+where+`
		ORDER BY product_id, position, id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query sizes: %w", err)
	}
	for rows.Next() {
		var productID, id, names, delta string
		if err := rows.Scan(&productID, &id, &names, &delta); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan size: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Sizes = append(p.Sizes, domain.Size{ID: id, Names: parseNames(names), PriceDelta: parseMoney(delta)})
		}
	}
	return closeRows(rows)
}

func (r *Repository) loadFlavors(ctx context.Context, byID map[string]*domain.Product, where string, args []any) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, id, names
		FROM product_flavors `+where+`
		ORDER BY product_id, position, id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query flavors: %w", err)
	}
	for rows.Next() {
		var productID, id, names string
		if err := rows.Scan(&productID, &id, &names); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan flavor: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Flavors = append(p.Flavors, domain.Flavor{ID: id, Names: parseNames(names)})
		}
	}
	return closeRows(rows)
}

func (r *Repository) loadExtraLinks(ctx context.Context, byID map[string]*domain.Product, where string, args []any) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, group_id, free_limit
		FROM product_extra_groups `+where+`
		ORDER BY product_id, position, group_id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query product extra groups: %w", err)
	}
	for rows.Next() {
		var productID string
		var link domain.ProductExtraGroup
		if err := rows.Scan(&productID, &link.GroupID, &link.FreeLimit); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan product extra group: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.ExtraGroups = append(p.ExtraGroups, link)
		}
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT product_id, extra_id
		FROM product_extras `+where+`
		ORDER BY product_id, position, extra_id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query product extras: %w", err)
	}
	for rows.Next() {
		var productID, extraID string
		if err := rows.Scan(&productID, &extraID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan product extra: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.ExtraIDs = append(p.ExtraIDs, extraID)
		}
	}
	return closeRows(rows)
}

// GetCatalog returns every extra and extra group.
func (r *Repository) GetCatalog(ctx context.Context) (domain.Catalog, error) {
	catalog := domain.Catalog{
		Extras: make(map[string]domain.Extra),
		Groups: make(map[string]domain.ExtraGroup),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, names, price, is_default, is_hidden, is_frozen
		FROM extras
	`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to query extras: %w", err)
	}
	for rows.Next() {
		var (
			e           domain.Extra
			names       string
			price       string
			def, hidden int64
			frozen      int64
		)
		if err := rows.Scan(&e.ID, &names, &price, &def, &hidden, &frozen); err != nil {
			rows.Close()
			return domain.Catalog{}, fmt.Errorf("failed to scan extra: %w", err)
		}
		e.Names = parseNames(names)
		e.Price = parseMoney(price)
		e.IsDefault, e.IsHidden, e.IsFrozen = def != 0, hidden != 0, frozen != 0
		catalog.Extras[e.ID] = e
	}
	if err := closeRows(rows); err != nil {
		return domain.Catalog{}, err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT id, names FROM extra_groups`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to query extra groups: %w", err)
	}
	for rows.Next() {
		var g domain.ExtraGroup
		var names string
		if err := rows.Scan(&g.ID, &names); err != nil {
			rows.Close()
			return domain.Catalog{}, fmt.Errorf("failed to scan extra group: %w", err)
		}
		g.Names = parseNames(names)
		catalog.Groups[g.ID] = g
	}
	if err := closeRows(rows); err != nil {
		return domain.Catalog{}, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT group_id, extra_id
		FROM extra_group_members
		ORDER BY group_id, position, extra_id
	`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to query extra group members: %w", err)
	}
	for rows.Next() {
		var groupID, extraID string
		if err := rows.Scan(&groupID, &extraID); err != nil {
			rows.Close()
			return domain.Catalog{}, fmt.Errorf("failed to scan extra group member: %w", err)
		}
		if g, ok := catalog.Groups[groupID]; ok {
			g.ExtraIDs = append(g.ExtraIDs, extraID)
			catalog.Groups[groupID] = g
		}
	}
	if err := closeRows(rows); err != nil {
		return domain.Catalog{}, err
	}

	return catalog, nil
}

func (r *Repository) GetStoreConfig(ctx context.Context, storeID string) (*domain.StoreConfig, error) {
	var doc string
	err := r.db.QueryRowContext(ctx,
		`SELECT document FROM store_settings WHERE store_id = ?`, storeID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query store settings: %w", err)
	}
	return DecodeSettings(storeID, []byte(doc))
}

func (r *Repository) SaveStoreConfig(ctx context.Context, cfg *domain.StoreConfig) error {
	doc, err := EncodeSettings(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode store settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO store_settings (store_id, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(store_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`, cfg.ID, string(doc))
	if err != nil {
		return fmt.Errorf("failed to save store settings: %w", err)
	}
	return nil
}

func parseNames(raw string) domain.LocalizedText {
	var names domain.LocalizedText
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return domain.LocalizedText{}
	}
	return names
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("row iteration error: %w", err)
	}
	return rows.Close()
}
