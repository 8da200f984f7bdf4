package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/lookup"
	"github.com/shashiranjanraj/storefront/pkg/resource"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

type AdminController struct {
	importer *services.ProductBarcodeImportService
	lookup   *lookup.Aggregator
	settings *services.SettingsService
	toJSON   resource.Transformer[models.Product]
}

func NewAdminController(importer *services.ProductBarcodeImportService, agg *lookup.Aggregator, settings *services.SettingsService, disk storage.Disk) *AdminController {
	return &AdminController{
		importer: importer,
		lookup:   agg,
		settings: settings,
		toJSON:   resources.Product(disk),
	}
}

type importRequest struct {
	Barcode    string `json:"barcode"     validate:"nullable,max=32"`
	Source     string `json:"source"      validate:"nullable,in=wikidata|upcitemdb"`
	ExternalID string `json:"external_id" validate:"nullable,max=64"`
	Update     bool   `json:"update"`
	Price      *int64 `json:"price"       validate:"nullable,gte=0"`
	Stock      *int   `json:"stock"       validate:"nullable,gte=0"`
}

// Import creates or back-fills a product from a barcode, or from a
// provider's own id when source and external_id are given.
func (c *AdminController) Import(w http.ResponseWriter, r *http.Request) {
	var body importRequest
	if !decode(w, r, &body) {
		return
	}
	opts := services.ImportOptions{Update: body.Update, Price: body.Price, Stock: body.Stock}

	var (
		p       *models.Product
		outcome services.ImportOutcome
		err     error
	)
	switch {
	case body.Source != "" && body.ExternalID != "":
		p, outcome, err = c.importer.ImportByExternalID(r.Context(), body.Source, body.ExternalID, opts)
	case strings.TrimSpace(body.Barcode) != "":
		p, outcome, err = c.importer.ImportByBarcode(r.Context(), body.Barcode, opts)
	default:
		response.ValidationError(w, map[string]string{"barcode": "barcode or source with external_id is required"})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := resource.Map{"outcome": outcome, "product": c.toJSON(*p)}
	if outcome == services.ImportCreated {
		response.Created(w, out)
		return
	}
	response.Success(w, out)
}

// Search queries the lookup providers: ?q=&limit=
func (c *AdminController) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.ValidationError(w, map[string]string{"q": "q is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	items, err := c.lookup.Search(r.Context(), q, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []lookup.Result{}
	}
	response.Success(w, items)
}

func (c *AdminController) ShowSettings(w http.ResponseWriter, r *http.Request) {
	response.Success(w, c.settings.View(r.Context()))
}

func (c *AdminController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body services.SettingsInput
	if !decode(w, r, &body) {
		return
	}
	view, err := c.settings.Update(r.Context(), body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, view)
}
