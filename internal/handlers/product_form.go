package handlers

import (
	"html"
	"strconv"
	"strings"

	"footballshop/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// stripTags removes markup until the text is stable, so entity-encoded tags
// cannot survive one pass.
func stripTags(s string) string {
	for i := 0; i < 4; i++ {
		out := html.UnescapeString(stripPolicy.Sanitize(s))
		if out == s {
			break
		}
		s = out
	}
	return strings.TrimSpace(s)
}

// checkboxChecked follows HTML checkbox encoding: the key is only sent when
// the box is ticked.
func checkboxChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "false", "0", "off":
		return false
	default:
		return true
	}
}

// bindProductForm copies the submitted form fields onto p and validates the
// result. strip removes markup from name and description first.
func bindProductForm(c *fiber.Ctx, validate *validator.Validate, p *models.Product, strip bool) map[string]string {
	errs := make(map[string]string)

	p.Name = strings.TrimSpace(c.FormValue("name"))
	p.Description = strings.TrimSpace(c.FormValue("description"))
	if strip {
		p.Name = stripTags(p.Name)
		p.Description = stripTags(p.Description)
	}
	p.Category = strings.TrimSpace(c.FormValue("category"))
	p.Brand = strings.TrimSpace(c.FormValue("brand"))
	p.Thumbnail = strings.TrimSpace(c.FormValue("thumbnail"))
	p.IsFeatured = checkboxChecked(c.FormValue("is_featured"))

	p.Price = 0
	if raw := strings.TrimSpace(c.FormValue("price")); raw != "" {
		price, err := strconv.Atoi(raw)
		if err != nil {
			errs["price"] = "Enter a whole number."
		} else {
			p.Price = price
		}
	}

	if err := validate.Struct(p); err != nil {
		for field, msg := range validationErrors(err) {
			if _, seen := errs[field]; !seen {
				errs[field] = msg
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
