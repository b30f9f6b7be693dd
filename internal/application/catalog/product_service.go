package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// AllowedImageContentTypes is the whitelist for product image uploads.
// SVG is excluded because it can carry scripts.
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ObjectStorageService is the port for object storage operations.
// Implemented by the infrastructure layer (S3).
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading an object
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading an object
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
}

// DefaultProductServiceConfig returns the default configuration
func DefaultProductServiceConfig() ProductServiceConfig {
	return ProductServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	storage      ObjectStorageService
	config       ProductServiceConfig
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	storage ObjectStorageService,
	config ProductServiceConfig,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		storage:      storage,
		config:       config,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, tenantID, strings.ToUpper(req.SKU))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
	}

	product, err := catalog.NewProduct(tenantID, req.SKU, req.Name, req.Price, valueobject.Currency(req.Currency))
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		product.SetCategory(req.CategoryID)
	}
	if req.SortOrder != nil {
		product.SetSortOrder(*req.SortOrder)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	return ToProductResponse(product), nil
}

// GetByID returns a product by ID
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return s.withImageURL(ctx, ToProductResponse(product)), nil
}

// List returns products for the back office with filtering and pagination
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := toSharedFilter(filter)

	products, err := s.productRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	return s.paginate(ctx, products, total, f), nil
}

// ListActive returns active products for the storefront
func (s *ProductService) ListActive(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := toSharedFilter(filter)

	var (
		products []catalog.Product
		err      error
	)
	if filter.CategoryID != nil {
		products, err = s.productRepo.FindByCategory(ctx, tenantID, *filter.CategoryID, f)
	} else {
		products, err = s.productRepo.FindActiveForTenant(ctx, tenantID, f)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.productRepo.CountActiveForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	return s.paginate(ctx, products, total, f), nil
}

// GetActiveByID returns an active product for the storefront
func (s *ProductService) GetActiveByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, shared.ErrNotFound
	}
	return s.withImageURL(ctx, ToProductResponse(product)), nil
}

// Update updates a product
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		description := product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.Price != nil {
		price, err := valueobject.NewMoney(*req.Price, product.Currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
		}
		if err := product.SetPrice(price); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	if req.SortOrder != nil {
		product.SetSortOrder(*req.SortOrder)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	return ToProductResponse(product), nil
}

// Activate activates a product
func (s *ProductService) Activate(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, tenantID, productID, (*catalog.Product).Activate)
}

// Deactivate deactivates a product
func (s *ProductService) Deactivate(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, tenantID, productID, (*catalog.Product).Deactivate)
}

// Delete removes a product and its stored image
func (s *ProductService) Delete(ctx context.Context, tenantID, productID uuid.UUID) error {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, tenantID, productID); err != nil {
		return err
	}

	if product.ImageKey != "" && s.storage != nil {
		// Best effort; an orphaned object is not worth failing the delete
		_ = s.storage.DeleteObject(ctx, product.ImageKey)
	}

	return nil
}

// GenerateImageUploadURL returns a presigned URL for uploading a product image
func (s *ProductService) GenerateImageUploadURL(ctx context.Context, tenantID, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}
	if !AllowedImageContentTypes[req.ContentType] {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type is not allowed for product images")
	}

	if _, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	key := fmt.Sprintf("tenants/%s/products/%s/%s%s", tenantID, productID, uuid.New(), ext)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}

	return &ImageUploadResponse{
		UploadURL: uploadURL,
		ImageKey:  key,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmImage records an uploaded image on the product after verifying it exists
func (s *ProductService) ConfirmImage(ctx context.Context, tenantID, productID uuid.UUID, req ConfirmImageRequest) (*ProductResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("tenants/%s/products/%s/", tenantID, productID)
	if !strings.HasPrefix(req.ImageKey, prefix) {
		return nil, shared.NewDomainError("INVALID_IMAGE_KEY", "Image key does not belong to this product")
	}

	exists, err := s.storage.ObjectExists(ctx, req.ImageKey)
	if err != nil {
		return nil, fmt.Errorf("check object: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("IMAGE_NOT_UPLOADED", "Image was not found in storage")
	}

	oldKey := product.ImageKey
	if err := product.SetImageKey(req.ImageKey); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	if oldKey != "" && oldKey != req.ImageKey {
		_ = s.storage.DeleteObject(ctx, oldKey)
	}

	return s.withImageURL(ctx, ToProductResponse(product)), nil
}

func (s *ProductService) changeStatus(ctx context.Context, tenantID, productID uuid.UUID, change func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if err := change(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

func (s *ProductService) paginate(ctx context.Context, products []catalog.Product, total int64, f shared.Filter) *shared.Paginated[ProductResponse] {
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		resp := s.withImageURL(ctx, ToProductResponse(&products[i]))
		items = append(items, *resp)
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page
}

func (s *ProductService) withImageURL(ctx context.Context, resp *ProductResponse) *ProductResponse {
	if resp.ImageKey == "" || s.storage == nil {
		return resp
	}
	url, _, err := s.storage.GenerateDownloadURL(ctx, resp.ImageKey, s.config.DownloadURLExpiry)
	if err == nil {
		resp.ImageURL = url
	}
	return resp
}

func toSharedFilter(filter ProductListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.CategoryID != nil {
		f.Filters["category_id"] = *filter.CategoryID
	}
	return f
}
