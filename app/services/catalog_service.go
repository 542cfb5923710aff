package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/repositories"
	"github.com/hsmarket/storefront/pkg/logger"
	"github.com/hsmarket/storefront/pkg/storage"
	"github.com/hsmarket/storefront/pkg/validate"
)

// ProductInput is the admin product form.
type ProductInput struct {
	Name          string   `json:"name"          validate:"required,max=255"`
	Price         float64  `json:"price"         validate:"gt=0"`
	OriginalPrice float64  `json:"originalPrice" validate:"gte=0"`
	Image         string   `json:"image"         validate:"nullable,max=1024"`
	Images        []string `json:"images"`
	Description   string   `json:"description"   validate:"nullable,max=5000"`
	Category      string   `json:"category"      validate:"nullable,max=64"`
}

// CategoryInput is the admin category form.
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=255"`
	Kind string `json:"kind" validate:"nullable,in=audio,watch,accessory,offer,other"`
}

// Collection is a category as the collections view renders it.
type Collection struct {
	models.Category
	Motif        models.Motif `json:"motif"`
	ProductCount int          `json:"productCount"`
}

type CatalogService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	disk       storage.Disk
	now        func() time.Time
}

// NewCatalogService wires the catalog. disk may be nil when uploads are
// not needed.
func NewCatalogService(store repositories.Store, disk storage.Disk) *CatalogService {
	return &CatalogService{
		products:   store.Products,
		categories: store.Categories,
		disk:       disk,
		now:        time.Now,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	return s.products.Find(ctx, id)
}

// CreateProduct stores a new product. Unset optional fields stay unset and
// a missing image falls back to the placeholder.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	product, err := productFromInput(in)
	if err != nil {
		return models.Product{}, err
	}
	if err := s.products.Create(ctx, &product); err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	logger.WithCtx(ctx).Info("product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct replaces every field of product id with in.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	product, err := productFromInput(in)
	if err != nil {
		return models.Product{}, err
	}
	product.ID = id
	if err := s.products.Replace(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Product{}, err
		}
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	logger.WithCtx(ctx).Info("product updated", "product_id", id)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("product deleted", "product_id", id)
	return nil
}

func productFromInput(in ProductInput) (models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Image = strings.TrimSpace(in.Image)
	in.Category = strings.TrimSpace(in.Category)

	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Product{}, invalid(errs)
	}

	p := models.Product{
		Name:          in.Name,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Image:         in.Image,
		Description:   in.Description,
		Category:      in.Category,
	}
	if p.Image == "" {
		p.Image = models.DefaultProductImage
	}
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			p.Images = append(p.Images, img)
		}
	}
	return p, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Category{}, invalid(errs)
	}
	c := models.Category{Name: in.Name, Kind: models.ParseCategoryKind(in.Kind)}
	if err := s.categories.Create(ctx, &c); err != nil {
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes the category only; products keep the dangling id.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}

// ProductCountForCategory counts products whose category equals id.
func ProductCountForCategory(products []models.Product, id string) int {
	n := 0
	for _, p := range products {
		if p.Category == id {
			n++
		}
	}
	return n
}

// CategoryLabel resolves a category id to its name.
func CategoryLabel(categories []models.Category, id string) string {
	if id != "" {
		for _, c := range categories {
			if c.ID == id {
				return c.Name
			}
		}
	}
	return models.UncategorizedLabel
}

// Collections returns every category with its motif and product count.
func (s *CatalogService) Collections(ctx context.Context) ([]Collection, error) {
	var (
		categories []models.Category
		products   []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		categories, err = s.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.ListProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Collection, 0, len(categories))
	for _, c := range categories {
		out = append(out, Collection{
			Category:     c,
			Motif:        c.Motif(),
			ProductCount: ProductCountForCategory(products, c.ID),
		})
	}
	return out, nil
}

// SeedCategories inserts the default categories concurrently. When
// categories already exist it refuses unless confirm is set, in which case
// the defaults are added again alongside the existing ones.
func (s *CatalogService) SeedCategories(ctx context.Context, confirm bool) ([]models.Category, error) {
	n, err := s.categories.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	if n > 0 && !confirm {
		return nil, ErrSeedNeedsConfirmation
	}

	defaults := models.DefaultCategories()
	g, gctx := errgroup.WithContext(ctx)
	for i := range defaults {
		c := &defaults[i]
		g.Go(func() error {
			return s.categories.Create(gctx, c)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	logger.WithCtx(ctx).Info("categories seeded", "count", len(defaults), "existing", n)
	return defaults, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UploadImage stores an image under products/ and returns its public URL.
func (s *CatalogService) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if s.disk == nil {
		return "", errors.New("upload image: no storage disk configured")
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(filename))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}

	key := fmt.Sprintf("products/%d_%s", s.now().UnixMilli(), sanitizeFilename(filename))
	if err := s.disk.Put(ctx, key, r, contentType); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	logger.WithCtx(ctx).Info("image uploaded", "key", key)
	return s.disk.URL(key), nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "image"
	}
	return name
}
