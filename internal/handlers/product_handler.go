package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"footballshop/internal/middleware"
	"footballshop/internal/models"
	"footballshop/internal/repositories"
	"footballshop/internal/services"
	"footballshop/web"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler serves the catalog pages and the product CRUD endpoints in
// both their form and AJAX variants.
type ProductHandler struct {
	service  *services.ProductService
	auth     *services.AuthService
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, auth *services.AuthService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		auth:     auth,
		validate: newValidator(),
		log:      log,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	loginRequired := middleware.LoginRequired(h.auth)

	router.Get("/", loginRequired, h.HandleMain)
	router.Get("/product/:id", loginRequired, h.HandleProductDetail)

	router.Get("/create-product", h.HandleCreateForm)
	router.Post("/create-product", h.HandleCreate)
	router.Get("/edit-product/:id", h.HandleEditForm)
	router.Post("/edit-product/:id", h.HandleEdit)
	router.Get("/delete/:id", h.HandleDelete)

	router.All("/create-ajax", h.HandleCreateAjax)
	router.All("/edit-ajax/:id", h.HandleEditAjax)
	router.All("/delete-ajax/:id", h.HandleDeleteAjax)

	router.All("/flutter/create-product", h.HandleCreateMobile)
}

// HandleMain renders the product listing, filtered by ?filter=all|mine.
func (h *ProductHandler) HandleMain(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c, h.auth)
	filter := c.Query("filter", services.FilterAll)
	if filter != services.FilterMine {
		filter = services.FilterAll
	}

	products, err := h.service.ListProducts(filter, user)
	if err != nil {
		h.log.Error("failed to list products", zap.String("filter", filter), zap.Error(err))
		return err
	}

	return c.Render("main", fiber.Map{
		"Title":     "Products",
		"User":      user,
		"Filter":    filter,
		"Products":  products,
		"LastLogin": c.Cookies(middleware.LastLoginCookie),
	}, web.Layout)
}

// HandleProductDetail renders a product. Every call counts as one view.
func (h *ProductHandler) HandleProductDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.ViewProduct(id)
	if err != nil {
		return h.lookupError(err, id)
	}

	seller, _, err := h.service.OwnerUsername(product)
	if err != nil {
		return err
	}
	return c.Render("product_detail", fiber.Map{
		"Title":   product.Name,
		"User":    middleware.CurrentUser(c, h.auth),
		"Product": product,
		"Seller":  seller,
	}, web.Layout)
}

// HandleCreateForm renders an empty product form.
func (h *ProductHandler) HandleCreateForm(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, "Add product", "/create-product",
		&models.Product{Category: "other", Brand: "other"}, map[string]string{})
}

// HandleCreate handles the form submission of a new product.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var product models.Product
	if errs := bindProductForm(c, h.validate, &product, false); errs != nil {
		return h.renderForm(c, fiber.StatusBadRequest, "Add product", "/create-product", &product, errs)
	}
	if err := h.service.CreateProduct(&product, middleware.CurrentUser(c, h.auth)); err != nil {
		h.log.Error("failed to create product", zap.Error(err))
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleEditForm renders the form of an existing product.
func (h *ProductHandler) HandleEditForm(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(id)
	if err != nil {
		return h.lookupError(err, id)
	}
	return h.renderForm(c, fiber.StatusOK, "Edit product", "/edit-product/"+id, product, map[string]string{})
}

// HandleEdit handles the form submission of an existing product. Ownership
// is not checked.
func (h *ProductHandler) HandleEdit(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(id)
	if err != nil {
		return h.lookupError(err, id)
	}
	if errs := bindProductForm(c, h.validate, product, false); errs != nil {
		return h.renderForm(c, fiber.StatusBadRequest, "Edit product", "/edit-product/"+id, product, errs)
	}
	if err := h.service.UpdateProduct(product); err != nil {
		return h.lookupError(err, id)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleDelete deletes a product and returns to the listing. Ownership is
// not checked.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(id); err != nil {
		return h.lookupError(err, id)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleCreateAjax creates a product from a form-encoded AJAX submission.
func (h *ProductHandler) HandleCreateAjax(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}

	var product models.Product
	if errs := bindProductForm(c, h.validate, &product, true); errs != nil {
		return jsonStatus(c, fiber.StatusBadRequest, "error", fiber.Map{"errors": errs})
	}
	if err := h.service.CreateProduct(&product, middleware.CurrentUser(c, h.auth)); err != nil {
		h.log.Error("failed to create product", zap.Error(err))
		return jsonStatus(c, fiber.StatusInternalServerError, "error", fiber.Map{"message": err.Error()})
	}
	return jsonStatus(c, fiber.StatusCreated, "success", fiber.Map{
		"message": "Product created successfully",
		"id":      product.ID,
	})
}

// HandleEditAjax overwrites a product from a form-encoded AJAX submission.
func (h *ProductHandler) HandleEditAjax(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}

	id := c.Params("id")
	product, err := h.service.GetProductByID(id)
	if err != nil {
		return h.ajaxLookupError(c, err, id)
	}
	if errs := bindProductForm(c, h.validate, product, true); errs != nil {
		return jsonStatus(c, fiber.StatusBadRequest, "error", fiber.Map{"errors": errs})
	}
	if err := h.service.UpdateProduct(product); err != nil {
		return h.ajaxLookupError(c, err, id)
	}
	return jsonStatus(c, fiber.StatusOK, "success", fiber.Map{
		"message": "Product updated successfully",
		"id":      product.ID,
	})
}

// HandleDeleteAjax deletes a product.
func (h *ProductHandler) HandleDeleteAjax(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}

	id := c.Params("id")
	if err := h.service.DeleteProduct(id); err != nil {
		return h.ajaxLookupError(c, err, id)
	}
	return jsonStatus(c, fiber.StatusOK, "success", fiber.Map{
		"message": "Product deleted successfully",
	})
}

// mobileProductRequest is the JSON body sent by the mobile client.
type mobileProductRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       lenientInt `json:"price"`
	Thumbnail   string     `json:"thumbnail"`
	Category    string     `json:"category"`
	Brand       string     `json:"brand"`
	IsFeatured  bool       `json:"is_featured"`
}

// lenientInt accepts a JSON number, a numeric string or null. Fractions are
// truncated toward zero; null and "" decode to 0.
type lenientInt int

func (n *lenientInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("price %q is not a number", raw)
	}
	*n = lenientInt(f)
	return nil
}

// HandleCreateMobile ingests a product from the mobile client. Fields are
// stored as sent: category and brand are not checked against the choices
// and markup is kept.
func (h *ProductHandler) HandleCreateMobile(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return jsonStatus(c, fiber.StatusUnauthorized, "error", nil)
	}

	var req mobileProductRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonStatus(c, fiber.StatusBadRequest, "error", fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       int(req.Price),
		Thumbnail:   req.Thumbnail,
		Category:    orDefault(req.Category, "other"),
		Brand:       orDefault(req.Brand, "other"),
		IsFeatured:  req.IsFeatured,
	}
	if err := h.service.CreateProduct(&product, middleware.CurrentUser(c, h.auth)); err != nil {
		h.log.Error("failed to ingest mobile product", zap.Error(err))
		return jsonStatus(c, fiber.StatusInternalServerError, "error", fiber.Map{"message": err.Error()})
	}
	return jsonStatus(c, fiber.StatusOK, "success", nil)
}

func (h *ProductHandler) renderForm(c *fiber.Ctx, code int, title, action string, product *models.Product, errs map[string]string) error {
	return c.Status(code).Render("product_form", fiber.Map{
		"Title":      title,
		"User":       middleware.CurrentUser(c, h.auth),
		"Action":     action,
		"Product":    product,
		"Errors":     errs,
		"Categories": models.Categories,
		"Brands":     models.Brands,
	}, web.Layout)
}

func (h *ProductHandler) lookupError(err error, id string) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Product not found")
	}
	h.log.Error("product lookup failed", zap.String("id", id), zap.Error(err))
	return err
}

func (h *ProductHandler) ajaxLookupError(c *fiber.Ctx, err error, id string) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return jsonStatus(c, fiber.StatusNotFound, "error", fiber.Map{"message": "Product not found"})
	}
	h.log.Error("product lookup failed", zap.String("id", id), zap.Error(err))
	return jsonStatus(c, fiber.StatusInternalServerError, "error", fiber.Map{"message": err.Error()})
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
