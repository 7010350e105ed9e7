package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DefaultImageContentType is used when the upstream omits Content-Type.
const DefaultImageContentType = "image/jpeg"

// ProxyHandler fetches external images server-side so pages can show them
// without cross-origin restrictions.
type ProxyHandler struct {
	client *http.Client
	log    *zap.Logger
}

// NewProxyHandler creates a ProxyHandler whose fetches time out after timeout.
func NewProxyHandler(timeout time.Duration, log *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// RegisterRoutes registers the proxy route with the Fiber app.
func (h *ProxyHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/proxy-image", h.HandleProxyImage)
}

// HandleProxyImage streams the image at ?url= back to the caller. Any fetch
// failure is a 500 carrying the error text; nothing is retried.
func (h *ProxyHandler) HandleProxyImage(c *fiber.Ctx) error {
	imageURL := c.Query("url")
	if imageURL == "" {
		return c.Status(fiber.StatusBadRequest).SendString("No URL provided")
	}

	resp, err := h.fetch(c, imageURL)
	if err != nil {
		h.log.Warn("image proxy fetch failed", zap.String("url", imageURL), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("Error fetching image: %v", err))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultImageContentType
	}
	c.Set(fiber.HeaderContentType, contentType)
	// The body is closed once it has been written out.
	return c.SendStream(resp.Body, int(resp.ContentLength))
}

// fetch returns the upstream response of a successful fetch; its body is
// left open for the caller.
func (h *ProxyHandler) fetch(c *fiber.Ctx, imageURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("upstream responded %s", resp.Status)
	}
	return resp, nil
}
