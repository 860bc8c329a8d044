package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"go-buildmart/middleware"
	"go-buildmart/repository"
	"go-buildmart/services"
	"go-buildmart/utils"
)

// ProductController handles product-related requests
type ProductController struct {
	Catalog *services.Catalog
}

func NewProductController(catalog *services.Catalog) *ProductController {
	return &ProductController{Catalog: catalog}
}

func productFilter(r *http.Request) repository.ProductFilter {
	q := r.URL.Query()
	search := q.Get("search")
	if search == "" {
		search = q.Get("q")
	}
	inStock, _ := strconv.ParseBool(q.Get("inStock"))
	f := repository.ProductFilter{
		Category:    q.Get("category"),
		Search:      search,
		MinPrice:    queryFloat(r, "minPrice"),
		MaxPrice:    queryFloat(r, "maxPrice"),
		InStockOnly: inStock,
		Sort:        q.Get("sort"),
		Page:        utils.ParsePage(r),
	}
	return f
}

// GetProducts lists products priced for the caller's role.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	page, err := pc.Catalog.List(ctx, productFilter(r), middleware.RoleOf(r))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	body := utils.Envelope{
		Success:    true,
		Data:       page.Items,
		Pagination: utils.NewPagination(page.Page.Number, page.Page.Limit, page.Total),
	}
	if page.Fallback {
		body.Message = "Showing sample catalog while the database is unavailable"
	}
	utils.JSON(w, http.StatusOK, body)
}

// GetProductByID retrieves a single product
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Catalog.Get(ctx, id, middleware.RoleOf(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = utils.NotFound("Product")
		}
		utils.WriteError(w, r, err)
		return
	}
	utils.OK(w, product)
}

func (pc *ProductController) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()
	cats, err := pc.Catalog.Categories(ctx)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.OK(w, cats)
}

// CreateProduct adds a new product (admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Catalog.Create(ctx, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Created(w, "Product created", product)
}

// UpdateProduct replaces a product's editable fields (admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in services.ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Catalog.Update(ctx, id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Product updated", Data: product})
}

// DeleteProduct removes a product (admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := pc.Catalog.Delete(ctx, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Message(w, "Product deleted")
}

// ExportProducts downloads the catalog as an xlsx workbook (admin only).
func (pc *ProductController) ExportProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var buf bytes.Buffer
	if err := pc.Catalog.Export(ctx, &buf); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=products.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}
