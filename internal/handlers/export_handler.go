package handlers

import (
	"encoding/xml"
	"errors"
	"time"

	"footballshop/internal/middleware"
	"footballshop/internal/models"
	"footballshop/internal/repositories"
	"footballshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// productJSON is the flattened product shape; the owner is its raw id.
type productJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        int       `json:"price"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail"`
	Category     string    `json:"category"`
	Brand        string    `json:"brand"`
	IsFeatured   bool      `json:"is_featured"`
	ProductViews uint      `json:"product_views"`
	UserID       *string   `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// productDetailJSON adds the owner's username and the trending flag.
type productDetailJSON struct {
	productJSON
	UserUsername *string `json:"user_username"`
	IsTrending   bool    `json:"is_trending"`
}

type productXML struct {
	XMLName      xml.Name `xml:"product"`
	ID           string   `xml:"pk,attr"`
	Name         string   `xml:"name"`
	Price        int      `xml:"price"`
	Description  string   `xml:"description"`
	Thumbnail    string   `xml:"thumbnail"`
	Category     string   `xml:"category"`
	Brand        string   `xml:"brand"`
	IsFeatured   bool     `xml:"is_featured"`
	ProductViews uint     `xml:"product_views"`
	UserID       string   `xml:"user_id,omitempty"`
}

type productsXML struct {
	XMLName  xml.Name     `xml:"products"`
	Products []productXML `xml:"product"`
}

func toProductJSON(p *models.Product) productJSON {
	return productJSON{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Description:  p.Description,
		Thumbnail:    p.Thumbnail,
		Category:     p.Category,
		Brand:        p.Brand,
		IsFeatured:   p.IsFeatured,
		ProductViews: p.ProductViews,
		UserID:       p.UserID,
		CreatedAt:    p.CreatedAt,
	}
}

func toProductsJSON(products []models.Product) []productJSON {
	out := make([]productJSON, 0, len(products))
	for i := range products {
		out = append(out, toProductJSON(&products[i]))
	}
	return out
}

func toProductXML(p *models.Product) productXML {
	return productXML{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Description:  p.Description,
		Thumbnail:    p.Thumbnail,
		Category:     p.Category,
		Brand:        p.Brand,
		IsFeatured:   p.IsFeatured,
		ProductViews: p.ProductViews,
		UserID:       p.OwnerID(),
	}
}

// ExportHandler serves the read-only XML/JSON views of the catalog used by
// the mobile client.
type ExportHandler struct {
	service *services.ProductService
	auth    *services.AuthService
	log     *zap.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(service *services.ProductService, auth *services.AuthService, log *zap.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

// RegisterRoutes registers the export routes with the Fiber app.
func (h *ExportHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/xml", h.HandleXML)
	router.Get("/json", h.HandleJSON)
	router.Get("/xml/:id", h.HandleXMLByID)
	router.Get("/json/:id", h.HandleJSONByID)
	router.Get("/my-products-json", h.HandleMyProductsJSON)
	router.Get("/username/:id", h.HandleUsername)
}

// HandleXML serializes every product to XML.
func (h *ExportHandler) HandleXML(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		h.log.Error("failed to export products", zap.Error(err))
		return err
	}
	doc := productsXML{Products: make([]productXML, 0, len(products))}
	for i := range products {
		doc.Products = append(doc.Products, toProductXML(&products[i]))
	}
	return sendXML(c, doc)
}

// HandleJSON serializes every product to a JSON array.
func (h *ExportHandler) HandleJSON(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		h.log.Error("failed to export products", zap.Error(err))
		return err
	}
	return c.JSON(toProductsJSON(products))
}

// HandleXMLByID serializes one product to XML; unknown ids get an empty 404.
func (h *ExportHandler) HandleXMLByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return err
	}
	return sendXML(c, productsXML{Products: []productXML{toProductXML(product)}})
}

// HandleJSONByID serializes one product with its owner's username and
// trending flag.
func (h *ExportHandler) HandleJSONByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Product not found"})
		}
		return err
	}

	detail := productDetailJSON{
		productJSON: toProductJSON(product),
		IsTrending:  product.IsTrending(),
	}
	username, ok, err := h.service.OwnerUsername(product)
	if err != nil {
		return err
	}
	if ok {
		detail.UserUsername = &username
	}
	return c.JSON(detail)
}

// HandleMyProductsJSON lists the products of the session's account.
func (h *ExportHandler) HandleMyProductsJSON(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c, h.auth)
	if user == nil {
		return jsonStatus(c, fiber.StatusUnauthorized, "error", fiber.Map{"message": "Authentication required"})
	}
	products, err := h.service.GetProductsByOwner(user.ID)
	if err != nil {
		h.log.Error("failed to export own products", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	return c.JSON(toProductsJSON(products))
}

// HandleUsername returns {"username": name} or {"username": null}; the
// status is 200 either way.
func (h *ExportHandler) HandleUsername(c *fiber.Ctx) error {
	username, err := h.auth.Username(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.JSON(fiber.Map{"username": nil})
		}
		return err
	}
	return c.JSON(fiber.Map{"username": username})
}

func sendXML(c *fiber.Ctx, doc interface{}) error {
	body, err := xml.Marshal(doc)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(append([]byte(xml.Header), body...))
}
