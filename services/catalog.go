package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/cache"
	"go-buildmart/logger"
	"go-buildmart/metrics"
	"go-buildmart/models"
	"go-buildmart/repository"
)

const productCachePrefix = "products:"

// ProductView is a product as a given role sees it.
type ProductView struct {
	models.Product
	EffectivePrice float64     `json:"effective_price"`
	Tier           models.Tier `json:"tier"`
}

// ProductPage is one page of a listing. Fallback is set when the page came
// from the sample catalog.
type ProductPage struct {
	Items    []ProductView
	Total    int64
	Page     repository.Page
	Fallback bool
}

// ProductInput is the admin payload for products.
type ProductInput struct {
	Name           string             `json:"name" validate:"required,max=200"`
	Description    string             `json:"description" validate:"max=5000"`
	Category       string             `json:"category" validate:"required,category"`
	Unit           string             `json:"unit" validate:"required"`
	Price          float64            `json:"price" validate:"gte=0"`
	Prices         map[string]float64 `json:"prices" validate:"dive,gte=0"`
	Stock          int                `json:"stock" validate:"gte=0"`
	IsAvailable    *bool              `json:"is_available"`
	Specifications map[string]string  `json:"specifications"`
	Images         []string           `json:"images" validate:"dive,url"`
}

func (in ProductInput) apply(p *models.Product, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Category = in.Category
	p.Unit = in.Unit
	p.Price = in.Price
	p.Prices = in.Prices
	p.Stock = in.Stock
	p.Specifications = in.Specifications
	p.Images = in.Images
	switch {
	case in.IsAvailable != nil:
		p.IsAvailable = *in.IsAvailable
	case p.ID.IsZero():
		p.IsAvailable = true
	}
	p.NormalizeTiers()
	p.UpdatedAt = now
}

type cachedPage struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
}

type Catalog struct {
	repo  repository.ProductRepository
	cache *cache.Cache
}

func NewCatalog(repo repository.ProductRepository, c *cache.Cache) *Catalog {
	return &Catalog{repo: repo, cache: c}
}

// View prices p for role.
func View(p models.Product, role models.Role) ProductView {
	return ProductView{
		Product:        p,
		EffectivePrice: ToFloat(ResolvePrice(&p, role)),
		Tier:           TierForRole(role),
	}
}

func views(list []models.Product, role models.Role) []ProductView {
	out := make([]ProductView, 0, len(list))
	for _, p := range list {
		out = append(out, View(p, role))
	}
	return out
}

func filterKey(f repository.ProductFilter) string {
	key := fmt.Sprintf("c=%s|q=%s|in=%t|s=%s|p=%d|l=%d", f.Category, strings.ToLower(f.Search), f.InStockOnly, f.Sort, f.Page.Number, f.Page.Limit)
	if f.MinPrice != nil {
		key += fmt.Sprintf("|min=%g", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		key += fmt.Sprintf("|max=%g", *f.MaxPrice)
	}
	return productCachePrefix + "list:" + key
}

// List returns a page of products priced for role. When the database does
// not answer a ping the page is cut from the sample catalog instead.
func (c *Catalog) List(ctx context.Context, f repository.ProductFilter, role models.Role) (*ProductPage, error) {
	f.Page = f.Page.Normalize()
	log := logger.FromContext(ctx)

	if err := c.repo.Ping(ctx); err != nil {
		log.Warn("product store unavailable, serving sample catalog", "error", err)
		return c.fallbackList(f, role), nil
	}

	key := filterKey(f)
	var cp cachedPage
	if !c.cache.Get(ctx, key, &cp) {
		items, total, err := c.repo.List(ctx, f)
		if errors.Is(err, repository.ErrUnavailable) {
			log.Warn("product list failed, serving sample catalog", "error", err)
			return c.fallbackList(f, role), nil
		}
		if err != nil {
			return nil, err
		}
		cp = cachedPage{Items: items, Total: total}
		if err := c.cache.Set(ctx, key, cp); err != nil {
			log.Warn("cache product page", "error", err)
		}
	}
	return &ProductPage{Items: views(cp.Items, role), Total: cp.Total, Page: f.Page}, nil
}

func (c *Catalog) fallbackList(f repository.ProductFilter, role models.Role) *ProductPage {
	metrics.CatalogFallbacks.Inc()
	var matched []models.Product
	for _, p := range SampleCatalog() {
		if repository.MatchProduct(p, f) {
			matched = append(matched, p)
		}
	}
	repository.SortProducts(matched, f.Sort)
	total := int64(len(matched))
	start := int(f.Page.Skip())
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return &ProductPage{Items: views(matched[start:end], role), Total: total, Page: f.Page, Fallback: true}
}

// Get returns one product priced for role, falling back to the sample
// catalog when the store is unreachable.
func (c *Catalog) Get(ctx context.Context, id primitive.ObjectID, role models.Role) (*ProductView, error) {
	key := productCachePrefix + "id:" + id.Hex()
	var p models.Product
	if !c.cache.Get(ctx, key, &p) {
		found, err := c.repo.FindByID(ctx, id)
		if err != nil && c.storeDown(ctx, err) {
			for _, s := range SampleCatalog() {
				if s.ID == id {
					metrics.CatalogFallbacks.Inc()
					v := View(s, role)
					return &v, nil
				}
			}
			return nil, repository.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		p = *found
		if err := c.cache.Set(ctx, key, p); err != nil {
			logger.FromContext(ctx).Warn("cache product", "error", err)
		}
	}
	v := View(p, role)
	return &v, nil
}

func (c *Catalog) storeDown(ctx context.Context, err error) bool {
	if errors.Is(err, repository.ErrUnavailable) {
		return true
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false
	}
	return c.repo.Ping(ctx) != nil
}

func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	cats, err := c.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		cats = append([]string(nil), models.Categories...)
		sort.Strings(cats)
	}
	return cats, nil
}

func (c *Catalog) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	now := time.Now().UTC()
	p := &models.Product{CreatedAt: now}
	in.apply(p, now)
	if err := c.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	c.Invalidate(ctx)
	return p, nil
}

func (c *Catalog) Update(ctx context.Context, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	p, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p, time.Now().UTC())
	if err := c.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	c.Invalidate(ctx)
	return p, nil
}

func (c *Catalog) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// Invalidate drops every cached product list and detail.
func (c *Catalog) Invalidate(ctx context.Context) {
	if err := c.cache.Invalidate(ctx, productCachePrefix); err != nil {
		logger.FromContext(ctx).Warn("invalidate product cache", "error", err)
	}
}

var exportHeaders = []string{
	"ID", "Name", "Category", "Unit", "Price", "Standard", "Primary", "Secondary",
	"Stock", "Available", "CreatedAt", "UpdatedAt",
}

// Export writes the whole catalog as an xlsx workbook.
func (c *Catalog) Export(ctx context.Context, w io.Writer) error {
	products, err := c.repo.All(ctx)
	if err != nil {
		return err
	}
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID.Hex())
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetValue(p.Unit)
		row.AddCell().SetValue(p.Price)
		for _, t := range []models.Tier{models.TierStandard, models.TierPrimary, models.TierSecondary} {
			cell := row.AddCell()
			if v, ok := p.Prices[string(t)]; ok {
				cell.SetValue(v)
			}
		}
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(p.IsAvailable)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file.Write(w)
}
