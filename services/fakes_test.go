package services

import (
	"errors"
	"time"

	"icecat-sync/models"
	"icecat-sync/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

// fakeMetadataStore is an in-memory ledger.
type fakeMetadataStore struct {
	records []*models.MetadataRecord
	nextID  int64
}

func (f *fakeMetadataStore) UpsertMetadata(rec *models.MetadataRecord) error {
	for _, existing := range f.records {
		if existing.CatalogItemID == rec.CatalogItemID {
			id := existing.ID
			productID := existing.ProductID
			modelName := existing.ModelName
			*existing = *rec
			existing.ID = id
			existing.ProductID = productID
			if rec.ModelName == "" {
				existing.ModelName = modelName
			}
			existing.UpdatedAt = time.Now()
			rec.ID = id
			return nil
		}
	}
	f.nextID++
	rec.ID = f.nextID
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	clone := *rec
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeMetadataStore) MetadataByArticleNumber(articleNumber string) ([]*models.MetadataRecord, error) {
	var out []*models.MetadataRecord
	for _, rec := range f.records {
		if rec.ProdID == articleNumber {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeMetadataStore) MetadataByItemIDs(itemIDs []string) ([]*models.MetadataRecord, error) {
	ids := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	var out []*models.MetadataRecord
	for _, rec := range f.records {
		if _, ok := ids[rec.CatalogItemID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeMetadataStore) LinkedMetadata(updatedSince time.Time) ([]*models.MetadataRecord, error) {
	var out []*models.MetadataRecord
	for _, rec := range f.records {
		if rec.ProductID.Valid && (updatedSince.IsZero() || rec.UpdatedAt.After(updatedSince)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeMetadataStore) LinkMetadataProduct(metadataID, productID int64) error {
	for _, rec := range f.records {
		if rec.ID == metadataID {
			rec.ProductID.Int64 = productID
			rec.ProductID.Valid = true
			return nil
		}
	}
	return errors.New("metadata record not found")
}

// fakeProductStore is an in-memory product table plus relation edges.
type fakeProductStore struct {
	products     []*models.Product
	linked       map[int64]bool // product ids with linked metadata
	images       map[int64]*models.ImageFile
	sameEdges    map[int64][]int64
	crossEdges   map[int64][]int64
	textUpdates  int
	shortUpdates int
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	return &fakeProductStore{
		products:   products,
		linked:     make(map[int64]bool),
		images:     make(map[int64]*models.ImageFile),
		sameEdges:  make(map[int64][]int64),
		crossEdges: make(map[int64][]int64),
	}
}

func (f *fakeProductStore) ProductsWithoutMetadata() ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		if !f.linked[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) AllProducts() ([]*models.Product, error) {
	return f.products, nil
}

func (f *fakeProductStore) ProductByID(id int64) (*models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) UpdateProductTexts(p *models.Product, includeShort bool) error {
	f.textUpdates++
	if includeShort {
		f.shortUpdates++
	}
	return nil
}

func (f *fakeProductStore) AttachProductImage(productID int64, img *models.ImageFile) error {
	f.images[productID] = img
	for _, p := range f.products {
		if p.ID == productID {
			p.ImageName = img.Name
		}
	}
	return nil
}

func (f *fakeProductStore) ReplaceProductRelations(productID int64, sameCategory, crossCategory []int64) error {
	f.sameEdges[productID] = sameCategory
	f.crossEdges[productID] = crossCategory
	return nil
}

// fakeSchemaStore is an in-memory attribute schema.
type fakeSchemaStore struct {
	groups     []*models.AttributeGroup
	attributes []*models.Attribute
	values     []*models.AttributeValue
	nextID     int64
	saveErr    error // injected failure for SaveValue
}

func newFakeSchemaStore() *fakeSchemaStore { return &fakeSchemaStore{} }

func (f *fakeSchemaStore) EnsureAttributeGroup(g *models.AttributeGroup) (*models.AttributeGroup, error) {
	for _, existing := range f.groups {
		if existing.IcecatID == g.IcecatID {
			return existing, nil
		}
	}
	f.nextID++
	clone := *g
	clone.ID = f.nextID
	f.groups = append(f.groups, &clone)
	return &clone, nil
}

func (f *fakeSchemaStore) AttributeGroupByIcecatID(icecatID string) (*models.AttributeGroup, error) {
	for _, g := range f.groups {
		if g.IcecatID == icecatID {
			return g, nil
		}
	}
	return nil, nil
}

func (f *fakeSchemaStore) EnsureAttribute(a *models.Attribute) (*models.Attribute, error) {
	for _, existing := range f.attributes {
		if existing.IcecatID == a.IcecatID {
			return existing, nil
		}
	}
	f.nextID++
	clone := *a
	clone.ID = f.nextID
	f.attributes = append(f.attributes, &clone)
	return &clone, nil
}

func (f *fakeSchemaStore) DeleteValuesForProduct(productID int64) error {
	kept := f.values[:0]
	for _, v := range f.values {
		if v.ProductID != productID {
			kept = append(kept, v)
		}
	}
	f.values = kept
	return nil
}

func (f *fakeSchemaStore) SaveValue(v *models.AttributeValue) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, existing := range f.values {
		if existing.GroupID == v.GroupID && existing.AttributeID == v.AttributeID &&
			existing.ProductID == v.ProductID && existing.Datatype == v.Datatype {
			*existing = *v
			return nil
		}
	}
	f.nextID++
	clone := *v
	clone.ID = f.nextID
	f.values = append(f.values, &clone)
	return nil
}
