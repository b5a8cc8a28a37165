package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"icecat-sync/config"
	"icecat-sync/icecat"
	"icecat-sync/models"
	"icecat-sync/services"
	"icecat-sync/storage"
	"icecat-sync/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Icecat Catalog Sync starting ===")
	logger.Info("Config — supplier: %s | window: %dh | concurrency: %d | rate: %dms",
		cfg.SupplierID, cfg.SyncWindowHours, cfg.MaxConcurrency, cfg.RateLimitMs)

	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	cache, err := storage.NewDocumentCache(cfg.CacheDir)
	if err != nil {
		logger.Error("Failed to create document cache: %v", err)
		os.Exit(1)
	}

	outcomeWriter, err := storage.NewOutcomeWriter(cfg.OutcomeCSVPath)
	if err != nil {
		logger.Error("Failed to create outcome CSV writer: %v", err)
		os.Exit(1)
	}
	defer outcomeWriter.Close()

	var all []models.Outcome

	// Stage 1: stream the master index into the ledger.
	indexPath := cfg.IndexPath(time.Now())
	indexFile, err := os.Open(indexPath)
	if err != nil {
		logger.Error("Failed to open index %s: %v", indexPath, err)
		os.Exit(1)
	}

	reader := icecat.NewIndexReader(cfg.SupplierID, logger)
	indexOutcomes, err := reader.Read(indexFile, store)
	indexFile.Close()
	if err != nil {
		logger.Error("Index pass aborted: %v", err)
	}
	all = append(all, indexOutcomes...)
	logger.Info("Index pass done — %d matching entries", len(indexOutcomes))

	// Stage 2: link ledger records to products by article number.
	linker := services.NewLinker(store, store, logger)
	linkOutcomes, err := linker.Link(true)
	if err != nil {
		logger.Error("Link pass failed: %v", err)
	}
	all = append(all, linkOutcomes...)
	logger.Info("Link pass done — %d products processed", len(linkOutcomes))

	// Stage 3: download detail documents for linked records touched within
	// the sync window.
	records, err := store.LinkedMetadata(time.Now().Add(-cfg.SyncWindow()))
	if err != nil {
		logger.Error("Failed to select records for download: %v", err)
		os.Exit(1)
	}

	fetcher := icecat.NewFetcher(cfg, logger, cache)
	all = append(all, fetcher.FetchBatch(records, false)...)
	logger.Info("Fetch pass done — %d records", len(records))

	// Stage 4: normalize, derive relations and import images. Parallel
	// across products, serialized per product: the rebuilds are
	// delete-then-recreate and must not interleave.
	normalizer := services.NewNormalizer(store, store, cache, logger)
	relations := services.NewRelationBuilder(store, store, cache, logger)
	images := services.NewImageImporter(store, cache, fetcher, logger)

	pool := utils.NewWorkerPool(cfg.MaxConcurrency, 0)
	locks := utils.NewKeyedLock()

	var mu sync.Mutex
	for _, rec := range records {
		rec := rec
		if !rec.ProductID.Valid {
			continue
		}
		pool.Submit(func() {
			productID := rec.ProductID.Int64
			locks.Lock(productID)
			defer locks.Unlock(productID)

			outcomes := processItem(normalizer, relations, images, store, rec)

			mu.Lock()
			all = append(all, outcomes...)
			mu.Unlock()
		})
	}
	pool.Wait()

	report := services.NewReportService(logger)
	report.Print(report.Generate(all))

	if err := outcomeWriter.WriteFailures(all); err != nil {
		logger.Error("Failed to export failures: %v", err)
	}

	fmt.Printf("  Done. Failures (if any) → %s\n\n", cfg.OutcomeCSVPath)
}

// processItem runs the three per-product consumers over one cached
// document. Each stage is best-effort; a failure becomes an outcome and the
// next stage still runs.
func processItem(normalizer *services.Normalizer, relations *services.RelationBuilder,
	images *services.ImageImporter, store *storage.PostgresStore,
	rec *models.MetadataRecord) []models.Outcome {

	outcomes := make([]models.Outcome, 0, 3)

	product, err := store.ProductByID(rec.ProductID.Int64)
	if err == nil && product == nil {
		err = services.ErrNoLinkedProduct
	}
	if err != nil {
		return append(outcomes, models.Outcome{Stage: "normalize", Key: rec.CatalogItemID, Err: err})
	}

	// first-ever import: no short description stored yet
	initialImport := product.DescriptionDE == "" && product.DescriptionEN == ""

	outcomes = append(outcomes, models.Outcome{
		Stage: "normalize", Key: rec.CatalogItemID,
		Err: normalizer.Normalize(rec, product, initialImport),
	})
	outcomes = append(outcomes, models.Outcome{
		Stage: "relations", Key: rec.CatalogItemID,
		Err: relations.Build(rec, product),
	})
	outcomes = append(outcomes, models.Outcome{
		Stage: "images", Key: rec.CatalogItemID,
		Err: images.Import(rec, product),
	})

	return outcomes
}
