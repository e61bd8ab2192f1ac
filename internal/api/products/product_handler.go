package products

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/shophub-api/internal/api"
	"github.com/FACorreiaa/shophub-api/internal/api/auth"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

type ProductHandler struct {
	productService ProductService
	logger         *slog.Logger
}

func NewProductHandler(productService ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// ListProducts godoc
// @Summary      List products
// @Tags         Products
// @Produce      json
// @Param        limit query int    false "Maximum number of products"
// @Param        sort  query string false "Creation order" Enums(asc, desc)
// @Success      200 {array}  types.Product
// @Failure      400 {object} api.MessageResponse
// @Router       /products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

// ListByCategory godoc
// @Summary      List products of one category
// @Tags         Products
// @Produce      json
// @Param        category path  string true  "Category"
// @Param        limit    query int    false "Maximum number of products"
// @Param        sort     query string false "Creation order" Enums(asc, desc)
// @Success      200 {array}  types.Product
// @Failure      400 {object} api.MessageResponse
// @Router       /products/category/{category} [get]
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if unescaped, err := url.PathUnescape(category); err == nil {
		category = unescaped
	}
	h.list(w, r, category)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, category string) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "ListProducts", trace.WithAttributes(
		attribute.String("category", category),
	))
	defer span.End()

	filter, err := parseFilter(r)
	if err != nil {
		span.SetStatus(codes.Error, "invalid query")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter.Category = category

	products, err := h.productService.ListProducts(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list products", slog.Any("error", err))
		span.SetStatus(codes.Error, "list failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
		return
	}
	span.SetStatus(codes.Ok, "listed")
	api.WriteJSONResponse(w, r, http.StatusOK, products)
}

// ListCategories godoc
// @Summary      List product categories
// @Tags         Products
// @Produce      json
// @Success      200 {array} string
// @Router       /products/categories [get]
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.ListCategories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list categories", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, CategoriesResponse(categories))
}

// GetProduct godoc
// @Summary      Get one product
// @Tags         Products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} types.Product
// @Failure      400 {object} api.MessageResponse
// @Failure      404 {object} api.MessageResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.productService.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "GetProduct", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

// CreateProduct godoc
// @Summary      Create a product
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        body body ProductRequest true "Product"
// @Success      201 {object} types.Product
// @Failure      400 {object} api.ValidationResponse
// @Failure      401 {object} api.MessageResponse
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "CreateProduct")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "no identity in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, auth.UnauthorizedMessage)
		return
	}

	var req ProductRequest
	if !h.decode(w, r, &req) {
		span.SetStatus(codes.Error, "invalid body")
		return
	}
	req.Normalize()
	if !h.validate(w, r, &req) {
		span.SetStatus(codes.Error, "validation failed")
		return
	}

	p, err := h.productService.CreateProduct(ctx, userID, req.params())
	if err != nil {
		span.SetStatus(codes.Error, "create failed")
		h.writeError(w, r, "CreateProduct", err)
		return
	}
	span.SetStatus(codes.Ok, "created")
	api.WriteJSONResponse(w, r, http.StatusCreated, p)
}

// ReplaceProduct godoc
// @Summary      Replace a product
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        id   path string         true "Product ID"
// @Param        body body ProductRequest true "Product"
// @Success      200 {object} types.Product
// @Failure      400 {object} api.ValidationResponse
// @Failure      401 {object} api.MessageResponse
// @Failure      404 {object} api.MessageResponse
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if !h.validate(w, r, &req) {
		return
	}

	p, err := h.productService.ReplaceProduct(r.Context(), chi.URLParam(r, "id"), req.params())
	if err != nil {
		h.writeError(w, r, "ReplaceProduct", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

// PatchProduct godoc
// @Summary      Update some fields of a product
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        id   path string              true "Product ID"
// @Param        body body ProductPatchRequest true "Fields to change"
// @Success      200 {object} types.Product
// @Failure      400 {object} api.ValidationResponse
// @Failure      401 {object} api.MessageResponse
// @Failure      404 {object} api.MessageResponse
// @Security     BearerAuth
// @Router       /products/{id} [patch]
func (h *ProductHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if !h.validate(w, r, &req) {
		return
	}

	p, err := h.productService.PatchProduct(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		h.writeError(w, r, "PatchProduct", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

// DeleteProduct godoc
// @Summary      Delete a product
// @Tags         Products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} api.MessageResponse
// @Failure      401 {object} api.MessageResponse
// @Failure      404 {object} api.MessageResponse
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, "DeleteProduct", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.MessageResponse{Message: "Product deleted"})
}

func (h *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidID):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID")
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Product not found")
	default:
		h.logger.ErrorContext(r.Context(), "Product request failed", slog.String("op", op), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
	}
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := api.DecodeJSONBody(w, r, dst); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid request format: %s", err.Error()))
		return false
	}
	return true
}

func (h *ProductHandler) validate(w http.ResponseWriter, r *http.Request, req any) bool {
	err := api.Validate(req)
	if err == nil {
		return true
	}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		api.ValidationErrorResponse(w, r, verr)
		return false
	}
	h.logger.ErrorContext(r.Context(), "Validator failed", slog.Any("error", err))
	api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
	return false
}

func parseFilter(r *http.Request) (types.ProductFilter, error) {
	filter := types.ProductFilter{Sort: types.SortDesc}
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = limit
	}
	switch sort := types.SortOrder(q.Get("sort")); sort {
	case "", types.SortDesc:
	case types.SortAsc:
		filter.Sort = types.SortAsc
	default:
		return filter, fmt.Errorf("sort must be %q or %q", types.SortAsc, types.SortDesc)
	}
	return filter, nil
}
