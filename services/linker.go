package services

import (
	"icecat-sync/models"
	"icecat-sync/storage"
	"icecat-sync/utils"
)

// Linker matches ledger records to domain products by article number and
// sets the weak product reference on every match. One product may match
// zero, one or many records (catalog variants).
type Linker struct {
	metadata storage.MetadataStore
	products storage.ProductStore
	logger   *utils.Logger
}

// NewLinker creates a Linker over the given stores.
func NewLinker(metadata storage.MetadataStore, products storage.ProductStore, logger *utils.Logger) *Linker {
	return &Linker{metadata: metadata, products: products, logger: logger}
}

// Link processes either only products lacking linked metadata or all
// products, and returns one outcome per product. A failed link is logged
// and does not abort the batch.
func (l *Linker) Link(onlyMissing bool) ([]models.Outcome, error) {
	var (
		products []*models.Product
		err      error
	)
	if onlyMissing {
		products, err = l.products.ProductsWithoutMetadata()
	} else {
		products, err = l.products.AllProducts()
	}
	if err != nil {
		return nil, err
	}

	outcomes := make([]models.Outcome, 0, len(products))
	for _, product := range products {
		outcome := models.Outcome{Stage: "link", Key: product.ArticleNumber}

		records, err := l.metadata.MetadataByArticleNumber(product.ArticleNumber)
		if err != nil {
			l.logger.Error("[link] Lookup failed for product %s: %v", product.ArticleNumber, err)
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}

		if len(records) == 0 {
			outcome.Skipped = true
			outcomes = append(outcomes, outcome)
			continue
		}

		for _, rec := range records {
			if err := l.metadata.LinkMetadataProduct(rec.ID, product.ID); err != nil {
				l.logger.Error("[link] Product %s could not be assigned to metadatum %d: %v",
					product.ArticleNumber, rec.ID, err)
				outcome.Err = err
			}
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
