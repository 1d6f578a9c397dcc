package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius-api/middleware"
	"github.com/MarcoRipari/SalesGenius/internal/catalog"
	"github.com/MarcoRipari/SalesGenius/internal/knowledge"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// ProductsHandler handles catalog endpoints.
type ProductsHandler struct {
	logger    *observability.Logger
	products  *storage.ProductRepository
	knowledge *knowledge.Service
	resolver  *catalog.Resolver
}

func NewProductsHandler(logger *observability.Logger, products *storage.ProductRepository, knowledgeSvc *knowledge.Service, resolver *catalog.Resolver) *ProductsHandler {
	return &ProductsHandler{
		logger:    logger,
		products:  products,
		knowledge: knowledgeSvc,
		resolver:  resolver,
	}
}

type productRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Price       *string  `json:"price,omitempty"`
	PriceValue  *float64 `json:"price_value,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	ProductURL  *string  `json:"product_url,omitempty"`
	Category    *string  `json:"category,omitempty"`
	InStock     *bool    `json:"in_stock,omitempty"`
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	limit := queryInt(r, "limit", 200)
	products, err := h.products.ListByTenant(r.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Listing products failed")
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Create handles POST /api/products: a manual catalog entry. Semantic
// attributes are derived server-side the same way scraped entries get them.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	product := &storage.Product{
		ID:        uuid.New(),
		SourceID:  storage.ManualSourceID,
		TenantID:  user.ID,
		InStock:   true,
		CreatedAt: time.Now().UTC(),
	}
	applyProductRequest(product, &req)

	if err := h.products.Create(r.Context(), product); err != nil {
		h.logger.Error().Err(err).Msg("Creating product failed")
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.resolver.InvalidateTenant(r.Context(), user.ID)
	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{productID}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}

	product, err := h.products.GetByID(r.Context(), user.ID, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	applyProductRequest(product, &req)

	if err := h.products.Update(r.Context(), product); err != nil {
		h.logger.Error().Err(err).Msg("Updating product failed")
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	h.resolver.InvalidateTenant(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{productID}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.Delete(r.Context(), user.ID, productID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.resolver.InvalidateTenant(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Rescan handles POST /api/products/rescan/{sourceID}: delete-then-reinsert
// of the source's product set.
func (h *ProductsHandler) Rescan(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	sourceID, err := uuid.Parse(chi.URLParam(r, "sourceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	count, err := h.knowledge.Rescan(r.Context(), user.ID, sourceID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "source not found")
		case errors.Is(err, knowledge.ErrNotURLSource):
			writeError(w, http.StatusBadRequest, "source is not a url source")
		default:
			h.logger.Error().Err(err).Msg("Rescan failed")
			writeError(w, http.StatusInternalServerError, "rescan failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"products_count": count})
}

// Search handles GET /api/products/search?q=...&limit=...: the same tiered
// resolution that grounds the chat assistant, exposed for the dashboard.
func (h *ProductsHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	products, err := h.resolver.Search(r.Context(), user.ID, query, queryInt(r, "limit", 10))
	if err != nil {
		h.logger.Error().Err(err).Msg("Catalog search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// applyProductRequest copies the writable fields onto the record and
// re-derives price value and semantic attributes.
func applyProductRequest(product *storage.Product, req *productRequest) {
	if req.Name != "" {
		product.Name = req.Name
	}
	product.Description = req.Description
	product.Price = req.Price
	product.PriceValue = req.PriceValue
	product.ImageURL = req.ImageURL
	product.ProductURL = req.ProductURL
	product.Category = req.Category
	if req.InStock != nil {
		product.InStock = *req.InStock
	}

	if product.PriceValue == nil && product.Price != nil {
		product.PriceValue = catalog.ParsePrice(*product.Price)
	}

	text := product.Name
	if product.Description != nil {
		text += " " + *product.Description
	}
	attrs := catalog.Classify(text)
	product.ProductType = attrs.ProductType
	product.Color = attrs.Color
	product.Gender = attrs.Gender
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
