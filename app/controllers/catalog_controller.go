package controllers

import (
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/resource"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

type CatalogController struct {
	catalog *services.CatalogService
	toJSON  resource.Transformer[models.Product]
}

func NewCatalogController(catalog *services.CatalogService, disk storage.Disk) *CatalogController {
	return &CatalogController{catalog: catalog, toJSON: resources.Product(disk)}
}

// Index lists products: ?search=&page=&limit=
func (c *CatalogController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := c.catalog.List(r.Context(), q.Get("search"), page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Paginated(w, resource.Many(result.Products, c.toJSON), result.Pagination)
}

func (c *CatalogController) Show(w http.ResponseWriter, r *http.Request) {
	p, err := c.catalog.Show(r.Context(), router.Param(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if p == nil {
		response.NotFound(w)
		return
	}
	response.Success(w, resource.One(*p, c.toJSON))
}
