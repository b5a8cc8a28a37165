package services

import (
	"icecat-sync/icecat"
	"icecat-sync/models"
	"icecat-sync/storage"
	"icecat-sync/utils"
)

// ImageFetcher downloads an image from an absolute URL.
type ImageFetcher interface {
	FetchImage(url string) (*models.ImageFile, error)
}

// ImageImporter attaches the primary catalog image to products that do not
// have one yet. It never overwrites an existing image, and an import failure
// never aborts a batch.
type ImageImporter struct {
	products storage.ProductStore
	cache    *storage.DocumentCache
	fetcher  ImageFetcher
	logger   *utils.Logger
}

// NewImageImporter creates an ImageImporter.
func NewImageImporter(products storage.ProductStore, cache *storage.DocumentCache,
	fetcher ImageFetcher, logger *utils.Logger) *ImageImporter {
	return &ImageImporter{products: products, cache: cache, fetcher: fetcher, logger: logger}
}

// Import fetches and attaches the document's primary image. It is a no-op
// when the product already carries an image or the document declares none.
// Download and attach failures are warnings only.
func (ii *ImageImporter) Import(rec *models.MetadataRecord, target *models.Product) error {
	data, err := ii.cache.Read(rec.CatalogItemID)
	if err != nil {
		ii.logger.Error("[images] File not available for item %s: %v", rec.CatalogItemID, err)
		return err
	}

	doc, err := icecat.ParseDetail(data)
	if err != nil {
		ii.logger.Error("[images] Item %s: %v", rec.CatalogItemID, err)
		return err
	}

	if target == nil {
		if !rec.ProductID.Valid {
			return ErrNoLinkedProduct
		}
		target, err = ii.products.ProductByID(rec.ProductID.Int64)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrNoLinkedProduct
		}
	}

	if target.ImageName != "" {
		return nil // no overwriting intended
	}

	url := doc.Product.HighPic
	if url == "" {
		return nil // no image available
	}

	img, err := ii.fetcher.FetchImage(url)
	if err != nil {
		ii.logger.Warn("[images] Image %s could not be loaded: %v", url, err)
		return nil
	}

	if err := ii.products.AttachProductImage(target.ID, img); err != nil {
		ii.logger.Warn("[images] Image %s for product %d could not be saved: %v", img.Name, target.ID, err)
	}
	return nil
}
