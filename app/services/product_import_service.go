package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services/lookup"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// ImportOutcome says what an import did to the catalogue.
type ImportOutcome string

const (
	ImportExisting ImportOutcome = "existing"
	ImportCreated  ImportOutcome = "created"
	ImportUpdated  ImportOutcome = "updated"
)

// ImportOptions tune a single import. Price and Stock are admin input and,
// when set, are written even over existing values.
type ImportOptions struct {
	Update bool
	Price  *int64
	Stock  *int
}

// ProductLookup is what the import needs from the lookup layer.
// *lookup.Aggregator satisfies it.
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (*lookup.Result, error)
	LookupExternal(ctx context.Context, source, externalID string) (*lookup.Result, error)
}

// ProductBarcodeImportService creates or back-fills catalogue products from
// barcode lookups.
type ProductBarcodeImportService struct {
	repo   *repositories.Repository
	lookup ProductLookup
	images *ImageImporter
}

// NewProductBarcodeImportService wires the import. images may be nil, in
// which case no remote images are fetched.
func NewProductBarcodeImportService(repo *repositories.Repository, lookup ProductLookup, images *ImageImporter) *ProductBarcodeImportService {
	return &ProductBarcodeImportService{repo: repo, lookup: lookup, images: images}
}

// ImportByBarcode is idempotent: a known barcode returns the stored product
// untouched unless opts.Update is set.
func (s *ProductBarcodeImportService) ImportByBarcode(ctx context.Context, barcode string, opts ImportOptions) (*models.Product, ImportOutcome, error) {
	code := lookup.NormalizeBarcode(barcode)
	if code == "" {
		return nil, "", ErrInvalidBarcode
	}

	existing, err := s.repo.Products.FindByBarcode(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if existing != nil && !opts.Update {
		return existing, ImportExisting, nil
	}

	res, err := s.lookup.Lookup(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if res == nil {
		return nil, "", ErrLookupNotFound
	}
	// The requested code is the product's key, whatever form of it the
	// provider reports (UPCitemdb answers a UPC-A query with the EAN).
	res.Barcode = code

	return s.persist(ctx, existing, res, opts, importKey{
		apply: func(p *models.Product) { p.Barcode = &code },
		find: func(ctx context.Context, repo *repositories.Repository) (*models.Product, error) {
			return repo.Products.FindByBarcode(ctx, code)
		},
	})
}

// ImportByExternalID is ImportByBarcode keyed on a provider's own id.
func (s *ProductBarcodeImportService) ImportByExternalID(ctx context.Context, source, externalID string, opts ImportOptions) (*models.Product, ImportOutcome, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	id := normalizeExternalID(source, externalID)
	if id == "" {
		return nil, "", ErrInvalidExternalID
	}

	existing, err := s.repo.Products.FindByExternal(ctx, source, id)
	if err != nil {
		return nil, "", err
	}
	if existing != nil && !opts.Update {
		return existing, ImportExisting, nil
	}

	res, err := s.lookup.LookupExternal(ctx, source, id)
	if err != nil {
		return nil, "", err
	}
	if res == nil {
		return nil, "", ErrLookupNotFound
	}

	return s.persist(ctx, existing, res, opts, importKey{
		apply: func(p *models.Product) {
			p.ExternalSource = &source
			p.ExternalID = &id
		},
		find: func(ctx context.Context, repo *repositories.Repository) (*models.Product, error) {
			return repo.Products.FindByExternal(ctx, source, id)
		},
		barcodeOptional: true,
	})
}

func normalizeExternalID(source, id string) string {
	switch source {
	case lookup.WikidataName:
		return lookup.NormalizeQID(id)
	case "":
		return ""
	default:
		return strings.TrimSpace(id)
	}
}

// ApplyLookup copies lookup fields into product where the product field is
// empty and reports whether anything changed.
func ApplyLookup(p *models.Product, res *lookup.Result) bool {
	changed := false
	fill := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if strings.TrimSpace(*dst) == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	fill(&p.Name, res.Name)
	fill(&p.Description, res.Description)
	fill(&p.Brand, res.Brand)
	fill(&p.Color, res.Color)

	if p.Barcode == nil || *p.Barcode == "" {
		if code := lookup.NormalizeBarcode(res.Barcode); code != "" {
			p.Barcode = &code
			changed = true
		}
	}
	return changed
}

// importKey identifies the product an import writes to. find re-reads the
// owner of the key inside the write transaction. barcodeOptional is set
// when the barcode is not the key and may be dropped on a collision.
type importKey struct {
	apply           func(*models.Product)
	find            func(context.Context, *repositories.Repository) (*models.Product, error)
	barcodeOptional bool
}

func (s *ProductBarcodeImportService) persist(ctx context.Context, existing *models.Product, res *lookup.Result, opts ImportOptions, key importKey) (*models.Product, ImportOutcome, error) {
	outcome := ImportUpdated
	p := existing
	if p == nil {
		outcome = ImportCreated
		p = &models.Product{}
	}

	ApplyLookup(p, res)
	key.apply(p)
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Product " + p.BarcodeValue()
	}
	if opts.Price != nil {
		p.Price = *opts.Price
	}
	if opts.Stock != nil {
		p.Stock = *opts.Stock
	}

	// Downloads happen outside the transaction; rows are written only once
	// the files are on disk.
	var images []models.ProductImage
	if s.images != nil && len(p.Images) == 0 && len(res.Images) > 0 {
		images = s.images.Import(ctx, p.ID, res.Images, 0, MaxImportedImages)
	}

	var owner *models.Product
	err := s.repo.WithTx(ctx, func(tx *repositories.Repository) error {
		if outcome == ImportCreated {
			found, err := key.find(ctx, tx)
			if err != nil {
				return err
			}
			if found != nil {
				owner = found
				return nil
			}
		}
		if key.barcodeOptional {
			if err := s.releaseForeignBarcode(ctx, tx, p); err != nil {
				return err
			}
		}

		if outcome == ImportCreated {
			slug, err := uniqueSlug(ctx, tx, p.Name)
			if err != nil {
				return err
			}
			p.Slug = slug
			if err := tx.Products.Create(ctx, p); err != nil {
				return err
			}
		} else if err := tx.Products.Save(ctx, p); err != nil {
			return err
		}

		for i := range images {
			images[i].ProductID = p.ID
		}
		return tx.Products.AddImages(ctx, images)
	})
	if err != nil && outcome == ImportCreated {
		// A concurrent import of the same key wins the unique index.
		if found, findErr := key.find(ctx, s.repo); findErr == nil && found != nil {
			owner, err = found, nil
		}
	}
	if err != nil || owner != nil {
		if s.images != nil {
			s.images.Discard(ctx, images)
		}
	}
	if err != nil {
		return nil, "", err
	}
	if owner != nil {
		logger.WithCtx(ctx).Info("catalog: product already imported", "product_id", owner.ID, "slug", owner.Slug)
		return owner, ImportExisting, nil
	}
	p.Images = append(p.Images, images...)

	logger.WithCtx(ctx).Info("catalog: product imported",
		"product_id", p.ID, "slug", p.Slug, "source", res.Source, "outcome", outcome, "images", len(images))
	event.Fire(event.ProductImported, p)
	return p, outcome, nil
}

// releaseForeignBarcode drops a looked-up barcode that already belongs to a
// different product; the unique index would reject it otherwise. Only used
// when the barcode is not the import key.
func (s *ProductBarcodeImportService) releaseForeignBarcode(ctx context.Context, tx *repositories.Repository, p *models.Product) error {
	if p.Barcode == nil {
		return nil
	}
	owner, err := tx.Products.FindByBarcode(ctx, *p.Barcode)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != p.ID {
		logger.WithCtx(ctx).Warn("catalog: barcode already assigned", "barcode", *p.Barcode, "owner_id", owner.ID)
		p.Barcode = nil
	}
	return nil
}

func uniqueSlug(ctx context.Context, tx *repositories.Repository, name string) (string, error) {
	base := Slugify(name)
	slug := base
	for n := 2; ; n++ {
		taken, err := tx.Products.SlugTaken(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("catalog: slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

// Slugify lowercases s and joins its letter and digit runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "product"
	}
	return out
}
