package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"icecat-sync/models"
)

// PostgresStore persists the ledger, the attribute schema and the product
// fields this subsystem owns.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id                  BIGSERIAL PRIMARY KEY,
			article_number      TEXT NOT NULL UNIQUE,
			category_id         TEXT NOT NULL DEFAULT '',
			description_de      TEXT NOT NULL DEFAULT '',
			description_en      TEXT NOT NULL DEFAULT '',
			long_description_de TEXT NOT NULL DEFAULT '',
			long_description_en TEXT NOT NULL DEFAULT '',
			warranty_de         TEXT NOT NULL DEFAULT '',
			warranty_en         TEXT NOT NULL DEFAULT '',
			image_name          TEXT NOT NULL DEFAULT '',
			image_data          BYTEA
		);

		CREATE TABLE IF NOT EXISTS icecat_metadata (
			id                BIGSERIAL PRIMARY KEY,
			catalog_item_id   TEXT NOT NULL UNIQUE,
			path              TEXT NOT NULL DEFAULT '',
			prod_id           TEXT NOT NULL DEFAULT '',
			supplier_id       TEXT NOT NULL DEFAULT '',
			category_id       TEXT NOT NULL DEFAULT '',
			quality           TEXT NOT NULL DEFAULT '',
			market_status     TEXT NOT NULL DEFAULT '',
			model_name        TEXT NOT NULL DEFAULT '',
			product_view      TEXT NOT NULL DEFAULT '',
			icecat_updated_at TEXT NOT NULL DEFAULT '',
			product_id        BIGINT,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_metadata_prod_id    ON icecat_metadata(prod_id);
		CREATE INDEX IF NOT EXISTS idx_metadata_product_id ON icecat_metadata(product_id);

		CREATE TABLE IF NOT EXISTS attribute_groups (
			id        BIGSERIAL PRIMARY KEY,
			icecat_id TEXT NOT NULL UNIQUE,
			name_de   TEXT NOT NULL DEFAULT '',
			name_en   TEXT NOT NULL DEFAULT '',
			position  INT  NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS attributes (
			id        BIGSERIAL PRIMARY KEY,
			icecat_id TEXT NOT NULL UNIQUE,
			name_de   TEXT NOT NULL DEFAULT '',
			name_en   TEXT NOT NULL DEFAULT '',
			position  INT  NOT NULL DEFAULT 0,
			datatype  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS attribute_values (
			id           BIGSERIAL PRIMARY KEY,
			group_id     BIGINT NOT NULL DEFAULT 0,
			attribute_id BIGINT NOT NULL,
			product_id   BIGINT NOT NULL,
			datatype     TEXT   NOT NULL,
			flag         BOOLEAN NOT NULL DEFAULT FALSE,
			amount       DOUBLE PRECISION NOT NULL DEFAULT 0,
			title_de     TEXT NOT NULL DEFAULT '',
			title_en     TEXT NOT NULL DEFAULT '',
			unit_de      TEXT NOT NULL DEFAULT '',
			unit_en      TEXT NOT NULL DEFAULT '',
			UNIQUE (group_id, attribute_id, product_id, datatype)
		);

		CREATE INDEX IF NOT EXISTS idx_values_product ON attribute_values(product_id);

		CREATE TABLE IF NOT EXISTS product_relations (
			id                 BIGSERIAL PRIMARY KEY,
			product_id         BIGINT NOT NULL,
			related_product_id BIGINT NOT NULL,
			UNIQUE (product_id, related_product_id)
		);

		CREATE TABLE IF NOT EXISTS supply_relations (
			id         BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL,
			supply_id  BIGINT NOT NULL,
			UNIQUE (product_id, supply_id)
		);
	`)
	return err
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// --- MetadataStore ---

const metadataColumns = `id, catalog_item_id, path, prod_id, supplier_id, category_id,
	quality, market_status, model_name, product_view, icecat_updated_at,
	product_id, created_at, updated_at`

// UpsertMetadata finds-or-creates the ledger record by catalog item id and
// overwrites its descriptive fields. A missing model name in the entry does
// not clobber a previously stored one.
func (s *PostgresStore) UpsertMetadata(rec *models.MetadataRecord) error {
	err := s.db.QueryRow(`
		INSERT INTO icecat_metadata
			(catalog_item_id, path, prod_id, supplier_id, category_id,
			 quality, market_status, model_name, product_view, icecat_updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (catalog_item_id) DO UPDATE SET
			path              = EXCLUDED.path,
			prod_id           = EXCLUDED.prod_id,
			supplier_id       = EXCLUDED.supplier_id,
			category_id       = EXCLUDED.category_id,
			quality           = EXCLUDED.quality,
			market_status     = EXCLUDED.market_status,
			model_name        = COALESCE(NULLIF(EXCLUDED.model_name, ''), icecat_metadata.model_name),
			product_view      = EXCLUDED.product_view,
			icecat_updated_at = EXCLUDED.icecat_updated_at,
			updated_at        = NOW()
		RETURNING id, created_at, updated_at
	`,
		rec.CatalogItemID, rec.Path, rec.ProdID, rec.SupplierID, rec.CategoryID,
		rec.Quality, rec.MarketStatus, rec.ModelName, rec.ProductView, rec.IcecatUpdatedAt,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert metadata %s: %w", rec.CatalogItemID, err)
	}
	return nil
}

// MetadataByArticleNumber returns all ledger records carrying the given
// external article number; several catalog variants may share one.
func (s *PostgresStore) MetadataByArticleNumber(articleNumber string) ([]*models.MetadataRecord, error) {
	return s.queryMetadata(`SELECT `+metadataColumns+`
		FROM icecat_metadata WHERE prod_id = $1 ORDER BY id`, articleNumber)
}

// MetadataByItemIDs resolves external catalog item ids to ledger records.
func (s *PostgresStore) MetadataByItemIDs(itemIDs []string) ([]*models.MetadataRecord, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	return s.queryMetadata(`SELECT `+metadataColumns+`
		FROM icecat_metadata WHERE catalog_item_id = ANY($1) ORDER BY id`, pq.Array(itemIDs))
}

// LinkedMetadata returns records linked to a product, optionally restricted
// to those touched since the given time (zero time means no recency filter).
func (s *PostgresStore) LinkedMetadata(updatedSince time.Time) ([]*models.MetadataRecord, error) {
	if updatedSince.IsZero() {
		return s.queryMetadata(`SELECT ` + metadataColumns + `
			FROM icecat_metadata WHERE product_id IS NOT NULL ORDER BY id`)
	}
	return s.queryMetadata(`SELECT `+metadataColumns+`
		FROM icecat_metadata WHERE product_id IS NOT NULL AND updated_at > $1 ORDER BY id`, updatedSince)
}

// LinkMetadataProduct sets the weak product reference on a ledger record.
func (s *PostgresStore) LinkMetadataProduct(metadataID, productID int64) error {
	_, err := s.db.Exec(`UPDATE icecat_metadata SET product_id = $2, updated_at = NOW() WHERE id = $1`,
		metadataID, productID)
	if err != nil {
		return fmt.Errorf("postgres: link metadata %d to product %d: %w", metadataID, productID, err)
	}
	return nil
}

func (s *PostgresStore) queryMetadata(query string, args ...any) ([]*models.MetadataRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query metadata: %w", err)
	}
	defer rows.Close()

	var records []*models.MetadataRecord
	for rows.Next() {
		rec := &models.MetadataRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.CatalogItemID, &rec.Path, &rec.ProdID, &rec.SupplierID,
			&rec.CategoryID, &rec.Quality, &rec.MarketStatus, &rec.ModelName,
			&rec.ProductView, &rec.IcecatUpdatedAt, &rec.ProductID,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan metadata row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// --- ProductStore ---

const productColumns = `id, article_number, category_id, description_de, description_en,
	long_description_de, long_description_en, warranty_de, warranty_en, image_name`

// ProductsWithoutMetadata returns products with no ledger record linked yet.
func (s *PostgresStore) ProductsWithoutMetadata() ([]*models.Product, error) {
	return s.queryProducts(`SELECT ` + productColumns + ` FROM products p
		WHERE NOT EXISTS (SELECT 1 FROM icecat_metadata m WHERE m.product_id = p.id)
		ORDER BY p.id`)
}

// AllProducts returns every product.
func (s *PostgresStore) AllProducts() ([]*models.Product, error) {
	return s.queryProducts(`SELECT ` + productColumns + ` FROM products p ORDER BY p.id`)
}

// ProductByID fetches one product; (nil, nil) when it does not exist.
func (s *PostgresStore) ProductByID(id int64) (*models.Product, error) {
	products, err := s.queryProducts(`SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
	if err != nil || len(products) == 0 {
		return nil, err
	}
	return products[0], nil
}

// UpdateProductTexts rewrites the descriptive texts; short descriptions are
// only written on the first-ever import so user edits survive later passes.
func (s *PostgresStore) UpdateProductTexts(p *models.Product, includeShort bool) error {
	var err error
	if includeShort {
		_, err = s.db.Exec(`UPDATE products SET
			description_de = $2, description_en = $3,
			long_description_de = $4, long_description_en = $5,
			warranty_de = $6, warranty_en = $7
			WHERE id = $1`,
			p.ID, p.DescriptionDE, p.DescriptionEN,
			p.LongDescriptionDE, p.LongDescriptionEN, p.WarrantyDE, p.WarrantyEN)
	} else {
		_, err = s.db.Exec(`UPDATE products SET
			long_description_de = $2, long_description_en = $3,
			warranty_de = $4, warranty_en = $5
			WHERE id = $1`,
			p.ID, p.LongDescriptionDE, p.LongDescriptionEN, p.WarrantyDE, p.WarrantyEN)
	}
	if err != nil {
		return fmt.Errorf("postgres: update product %d texts: %w", p.ID, err)
	}
	return nil
}

// AttachProductImage stores the image bytes and original file name directly;
// no host-side validation runs on this write.
func (s *PostgresStore) AttachProductImage(productID int64, img *models.ImageFile) error {
	_, err := s.db.Exec(`UPDATE products SET image_name = $2, image_data = $3 WHERE id = $1`,
		productID, img.Name, img.Data)
	if err != nil {
		return fmt.Errorf("postgres: attach image %q to product %d: %w", img.Name, productID, err)
	}
	return nil
}

// ReplaceProductRelations clears both edge tables for the product and
// inserts the freshly derived edges in one transaction.
func (s *PostgresStore) ReplaceProductRelations(productID int64, sameCategory, crossCategory []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin relations tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM product_relations WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("postgres: clear product relations %d: %w", productID, err)
	}
	if _, err := tx.Exec(`DELETE FROM supply_relations WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("postgres: clear supply relations %d: %w", productID, err)
	}

	for _, related := range sameCategory {
		if _, err := tx.Exec(`INSERT INTO product_relations (product_id, related_product_id)
			VALUES ($1,$2) ON CONFLICT DO NOTHING`, productID, related); err != nil {
			return fmt.Errorf("postgres: insert product relation %d->%d: %w", productID, related, err)
		}
	}
	for _, supply := range crossCategory {
		if _, err := tx.Exec(`INSERT INTO supply_relations (product_id, supply_id)
			VALUES ($1,$2) ON CONFLICT DO NOTHING`, productID, supply); err != nil {
			return fmt.Errorf("postgres: insert supply relation %d->%d: %w", productID, supply, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) queryProducts(query string, args ...any) ([]*models.Product, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(
			&p.ID, &p.ArticleNumber, &p.CategoryID, &p.DescriptionDE, &p.DescriptionEN,
			&p.LongDescriptionDE, &p.LongDescriptionEN, &p.WarrantyDE, &p.WarrantyEN,
			&p.ImageName,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan product row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// --- SchemaStore ---

// EnsureAttributeGroup creates the group on first encounter. A concurrent
// or earlier creation wins; the stored row is returned unchanged.
func (s *PostgresStore) EnsureAttributeGroup(g *models.AttributeGroup) (*models.AttributeGroup, error) {
	_, err := s.db.Exec(`INSERT INTO attribute_groups (icecat_id, name_de, name_en, position)
		VALUES ($1,$2,$3,$4) ON CONFLICT (icecat_id) DO NOTHING`,
		g.IcecatID, g.NameDE, g.NameEN, g.Position)
	if err != nil {
		return nil, fmt.Errorf("postgres: create attribute group %s: %w", g.IcecatID, err)
	}
	return s.AttributeGroupByIcecatID(g.IcecatID)
}

// AttributeGroupByIcecatID looks a group up by external id; (nil, nil) when
// the id was never declared.
func (s *PostgresStore) AttributeGroupByIcecatID(icecatID string) (*models.AttributeGroup, error) {
	g := &models.AttributeGroup{}
	err := s.db.QueryRow(`SELECT id, icecat_id, name_de, name_en, position
		FROM attribute_groups WHERE icecat_id = $1`, icecatID).
		Scan(&g.ID, &g.IcecatID, &g.NameDE, &g.NameEN, &g.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find attribute group %s: %w", icecatID, err)
	}
	return g, nil
}

// EnsureAttribute creates the attribute on first encounter; the stored
// datatype is fixed then and a later differently-shaped value never
// changes it.
func (s *PostgresStore) EnsureAttribute(a *models.Attribute) (*models.Attribute, error) {
	_, err := s.db.Exec(`INSERT INTO attributes (icecat_id, name_de, name_en, position, datatype)
		VALUES ($1,$2,$3,$4,$5) ON CONFLICT (icecat_id) DO NOTHING`,
		a.IcecatID, a.NameDE, a.NameEN, a.Position, a.Datatype)
	if err != nil {
		return nil, fmt.Errorf("postgres: create attribute %s: %w", a.IcecatID, err)
	}

	stored := &models.Attribute{}
	err = s.db.QueryRow(`SELECT id, icecat_id, name_de, name_en, position, datatype
		FROM attributes WHERE icecat_id = $1`, a.IcecatID).
		Scan(&stored.ID, &stored.IcecatID, &stored.NameDE, &stored.NameEN, &stored.Position, &stored.Datatype)
	if err != nil {
		return nil, fmt.Errorf("postgres: find attribute %s: %w", a.IcecatID, err)
	}
	return stored, nil
}

// DeleteValuesForProduct drops every attribute value of the product; each
// normalization pass rebuilds the full set from the latest document.
func (s *PostgresStore) DeleteValuesForProduct(productID int64) error {
	_, err := s.db.Exec(`DELETE FROM attribute_values WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("postgres: delete values for product %d: %w", productID, err)
	}
	return nil
}

// SaveValue upserts an attribute value on its (group, attribute, product,
// datatype) identity.
func (s *PostgresStore) SaveValue(v *models.AttributeValue) error {
	err := s.db.QueryRow(`
		INSERT INTO attribute_values
			(group_id, attribute_id, product_id, datatype, flag, amount,
			 title_de, title_en, unit_de, unit_en)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (group_id, attribute_id, product_id, datatype) DO UPDATE SET
			flag = EXCLUDED.flag, amount = EXCLUDED.amount,
			title_de = EXCLUDED.title_de, title_en = EXCLUDED.title_en,
			unit_de = EXCLUDED.unit_de, unit_en = EXCLUDED.unit_en
		RETURNING id
	`,
		v.GroupID, v.AttributeID, v.ProductID, v.Datatype, v.Flag, v.Amount,
		v.TitleDE, v.TitleEN, v.UnitDE, v.UnitEN,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("postgres: save value attr %d product %d: %w", v.AttributeID, v.ProductID, err)
	}
	return nil
}
