package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"icecat-sync/icecat"
	"icecat-sync/models"
	"icecat-sync/storage"
	"icecat-sync/utils"
)

// ErrNoLinkedProduct is returned when a normalization pass has neither an
// explicit target product nor a linked one on the ledger record.
var ErrNoLinkedProduct = errors.New("metadata record has no linked product")

// Normalizer rewrites a product's descriptive texts and its typed attribute
// set from the cached detail document. Attribute values are rebuilt
// destructively on every pass: the schema holds the latest snapshot only.
type Normalizer struct {
	schema   storage.SchemaStore
	products storage.ProductStore
	cache    *storage.DocumentCache
	logger   *utils.Logger
}

// NewNormalizer creates a Normalizer over the given stores and cache.
func NewNormalizer(schema storage.SchemaStore, products storage.ProductStore,
	cache *storage.DocumentCache, logger *utils.Logger) *Normalizer {
	return &Normalizer{schema: schema, products: products, cache: cache, logger: logger}
}

// Normalize processes the cached document for the given ledger record.
// target may be nil, in which case the record's linked product is used; an
// explicit target exists because one document can populate several products.
// initialImport additionally writes the short descriptions, which later
// passes must not clobber (they may have been edited by hand).
func (n *Normalizer) Normalize(rec *models.MetadataRecord, target *models.Product, initialImport bool) error {
	data, err := n.cache.Read(rec.CatalogItemID)
	if err != nil {
		n.logger.Error("[normalize] File not available for item %s: %v", rec.CatalogItemID, err)
		return err
	}

	doc, err := icecat.ParseDetail(data)
	if err != nil {
		n.logger.Error("[normalize] Item %s: %v", rec.CatalogItemID, err)
		return err
	}
	product := &doc.Product

	target, err = n.resolveTarget(rec, target)
	if err != nil {
		return err
	}

	n.applyTexts(product, target, initialImport)
	if err := n.products.UpdateProductTexts(target, initialImport); err != nil {
		n.logger.Error("[normalize] Product %d texts could not be saved: %v", target.ID, err)
	}

	n.ensureGroups(product)

	// full rebuild: everything below repopulates from the current document
	if err := n.schema.DeleteValuesForProduct(target.ID); err != nil {
		return fmt.Errorf("clear values for product %d: %w", target.ID, err)
	}

	for i := range product.Features {
		n.importFeature(&product.Features[i], target)
	}

	return nil
}

func (n *Normalizer) resolveTarget(rec *models.MetadataRecord, target *models.Product) (*models.Product, error) {
	if target != nil {
		return target, nil
	}
	if !rec.ProductID.Valid {
		return nil, ErrNoLinkedProduct
	}
	product, err := n.products.ProductByID(rec.ProductID.Int64)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNoLinkedProduct
	}
	return product, nil
}

// applyTexts extracts the language-tagged description texts. A missing
// description node for a language just leaves those fields unset.
func (n *Normalizer) applyTexts(p *icecat.DetailProduct, target *models.Product, initialImport bool) {
	if de := p.Description(icecat.LangDE); de != nil {
		target.LongDescriptionDE = FixText(de.LongDesc)
		target.WarrantyDE = FixText(de.WarrantyInfo)
		if initialImport {
			target.DescriptionDE = FixText(de.ShortDesc)
		}
	}
	if en := p.Description(icecat.LangEN); en != nil {
		target.LongDescriptionEN = FixText(en.LongDesc)
		target.WarrantyEN = FixText(en.WarrantyInfo)
		if initialImport {
			target.DescriptionEN = FixText(en.ShortDesc)
		}
	}
}

// ensureGroups creates attribute groups for every group block with an
// unseen external id. Naming is first-writer-wins: a later document with a
// different name for the same id does not update it.
func (n *Normalizer) ensureGroups(p *icecat.DetailProduct) {
	for _, fg := range p.FeatureGroups {
		group := &models.AttributeGroup{
			IcecatID: fg.ID,
			NameEN:   icecat.NameIn(fg.Names, icecat.LangEN),
			NameDE:   icecat.NameFallback(fg.Names, icecat.LangDE, icecat.LangEN),
			Position: atoiOrZero(fg.ID), // no better ordering available
		}
		if _, err := n.schema.EnsureAttributeGroup(group); err != nil {
			n.logger.Error("[normalize] AttributeGroup %s could not be created: %v", fg.ID, err)
		}
	}
}

// importFeature stores one attribute entry: the attribute definition on
// first encounter, then the value keyed on (group, attribute, product,
// datatype). A persistence failure is logged and the pass moves on.
func (n *Normalizer) importFeature(feature *icecat.ProductFeature, target *models.Product) {
	raw := feature.Value
	if raw == "" {
		raw = EmptyValueSentinel
	}
	datatype := InferDatatype(raw)

	attribute := &models.Attribute{
		IcecatID: feature.Feature.ID,
		NameEN:   icecat.NameIn(feature.Feature.Names, icecat.LangEN),
		NameDE:   icecat.NameFallback(feature.Feature.Names, icecat.LangDE, icecat.LangEN),
		Position: atoiOrZero(feature.Feature.ID),
		Datatype: datatype,
	}
	stored, err := n.schema.EnsureAttribute(attribute)
	if err != nil {
		n.logger.Error("[normalize] Attribute %s could not be saved: %v", feature.Feature.ID, err)
		return
	}

	// The referenced group should exist from the group pass; when it does
	// not, the value is stored group-less. Known data-quality gap.
	var groupID int64
	if feature.GroupID != "" {
		group, err := n.schema.AttributeGroupByIcecatID(feature.GroupID)
		if err != nil {
			n.logger.Error("[normalize] Group lookup %s failed: %v", feature.GroupID, err)
		} else if group != nil {
			groupID = group.ID
		}
	}

	value := &models.AttributeValue{
		GroupID:     groupID,
		AttributeID: stored.ID,
		ProductID:   target.ID,
		Datatype:    datatype,
	}

	switch datatype {
	case models.DatatypeFlag:
		value.Flag = raw == "Y"
	case models.DatatypeNumeric:
		value.Amount, _ = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		value.UnitEN = icecat.SignIn(feature.Feature.Signs, icecat.LangEN)
		value.UnitDE = icecat.SignFallback(feature.Feature.Signs, icecat.LangDE, icecat.LangEN)
	case models.DatatypeTextual:
		// single-language source text, duplicated into both slots
		title := Truncate(raw, TitleMaxLen)
		value.TitleDE = title
		value.TitleEN = title
		value.UnitEN = icecat.SignIn(feature.Feature.Signs, icecat.LangEN)
		value.UnitDE = icecat.SignFallback(feature.Feature.Signs, icecat.LangDE, icecat.LangEN)
	}

	if err := n.schema.SaveValue(value); err != nil {
		n.logger.Error("[normalize] Value could not be saved: %v for product %d", err, target.ID)
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
