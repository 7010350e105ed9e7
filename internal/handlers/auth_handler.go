package handlers

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode"

	"footballshop/internal/middleware"
	"footballshop/internal/models"
	"footballshop/internal/services"
	"footballshop/web"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LastLoginLayout formats the informational last_login cookie.
const LastLoginLayout = "2006-01-02 15:04:05"

// AuthHandler handles registration, login and logout, as pages and as AJAX
// endpoints.
type AuthHandler struct {
	authService   *services.AuthService
	validate      *validator.Validate
	sessionLength time.Duration
	log           *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessionLength time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		validate:      newValidator(),
		sessionLength: sessionLength,
		log:           log,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/register", h.HandleRegisterPage)
	router.Post("/register", h.HandleRegister)
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)

	router.All("/register-ajax", h.HandleRegisterAjax)
	router.All("/login-ajax", h.HandleLoginAjax)
	router.All("/logout-ajax", h.HandleLogoutAjax)
}

// RegisterRequest represents the registration form.
type RegisterRequest struct {
	Username  string `json:"username" form:"username" validate:"required,max=150"`
	Password  string `json:"password1" form:"password1" validate:"required,min=8"`
	Password2 string `json:"password2" form:"password2" validate:"required,eqfield=Password"`
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleRegisterPage renders the registration form.
func (h *AuthHandler) HandleRegisterPage(c *fiber.Ctx) error {
	return h.renderRegister(c, fiber.StatusOK, "", map[string]string{})
}

// HandleRegister handles the registration form and redirects to the login
// page on success.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderRegister(c, fiber.StatusBadRequest, "", map[string]string{
			"__all__": "Invalid request body",
		})
	}
	if errs := h.register(&req); errs != nil {
		return h.renderRegister(c, fiber.StatusBadRequest, req.Username, errs)
	}
	return c.Redirect(middleware.LoginURL+"?registered=1", fiber.StatusFound)
}

// HandleRegisterAjax handles registration from the client-side scripts.
func (h *AuthHandler) HandleRegisterAjax(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonStatus(c, fiber.StatusBadRequest, "error", fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if errs := h.register(&req); errs != nil {
		return jsonStatus(c, fiber.StatusBadRequest, "error", fiber.Map{"errors": errs})
	}
	return jsonStatus(c, fiber.StatusCreated, "success", fiber.Map{
		"message":      "Your account has been successfully created!",
		"redirect_url": middleware.LoginURL,
	})
}

func (h *AuthHandler) register(req *RegisterRequest) map[string]string {
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validate.Struct(req); err != nil {
		return validationErrors(err)
	}

	user := models.User{Username: req.Username, Password: req.Password}
	if err := h.authService.RegisterUser(&user); err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			return map[string]string{"username": "A user with that username already exists."}
		}
		h.log.Error("failed to register user", zap.String("username", req.Username), zap.Error(err))
		return map[string]string{"__all__": "Could not register user"}
	}
	h.log.Info("user registered", zap.String("username", user.Username))
	return nil
}

// HandleLoginPage renders the login form.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	message := ""
	if c.Query("registered") != "" {
		message = "Your account has been successfully created!"
	}
	return h.renderLogin(c, fiber.StatusOK, "", "", message)
}

// HandleLogin handles the login form, redirecting to ?next= or the listing.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderLogin(c, fiber.StatusBadRequest, "", "Invalid request body", "")
	}
	if err := h.login(c, &req); err != nil {
		return h.renderLogin(c, fiber.StatusBadRequest, req.Username, "Please enter a correct username and password.", "")
	}
	return c.Redirect(safeNext(c.Query("next")), fiber.StatusFound)
}

// HandleLoginAjax handles login from the client-side scripts.
func (h *AuthHandler) HandleLoginAjax(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonStatus(c, fiber.StatusBadRequest, "error", fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.login(c, &req); err != nil {
		return jsonStatus(c, fiber.StatusBadRequest, "error", fiber.Map{
			"message": "Invalid username or password",
		})
	}
	return jsonStatus(c, fiber.StatusOK, "success", fiber.Map{
		"message":      "Login successful",
		"username":     req.Username,
		"redirect_url": "/",
	})
}

// login authenticates req and sets the session and last_login cookies.
func (h *AuthHandler) login(c *fiber.Ctx, req *LoginRequest) error {
	if err := h.validate.Struct(req); err != nil {
		return services.ErrInvalidCredentials
	}
	token, user, err := h.authService.LoginUser(req.Username, req.Password)
	if err != nil {
		h.log.Info("login failed", zap.String("username", req.Username), zap.Error(err))
		return err
	}

	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(h.sessionLength),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:  middleware.LastLoginCookie,
		Value: now.Format(LastLoginLayout),
		Path:  "/",
	})
	h.log.Info("user logged in", zap.String("user_id", user.ID))
	return nil
}

// HandleLogout ends the session and returns to the login page.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.logout(c); err != nil {
		return err
	}
	return c.Redirect(middleware.LoginURL, fiber.StatusFound)
}

// HandleLogoutAjax ends the session from the client-side scripts.
func (h *AuthHandler) HandleLogoutAjax(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}
	if err := h.logout(c); err != nil {
		return jsonStatus(c, fiber.StatusInternalServerError, "error", fiber.Map{"message": err.Error()})
	}
	return jsonStatus(c, fiber.StatusOK, "success", fiber.Map{
		"message":      "Logged out successfully",
		"redirect_url": middleware.LoginURL,
	})
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(middleware.SessionToken(c)); err != nil {
		h.log.Error("failed to end session", zap.Error(err))
		return err
	}
	for _, name := range []string{middleware.SessionCookie, middleware.LastLoginCookie} {
		c.Cookie(&fiber.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			Expires: time.Now().Add(-time.Hour),
		})
	}
	return nil
}

func (h *AuthHandler) renderLogin(c *fiber.Ctx, code int, username, errMsg, message string) error {
	return c.Status(code).Render("login", fiber.Map{
		"Title":    "Login",
		"User":     nil,
		"Username": username,
		"Error":    errMsg,
		"Message":  message,
		"Next":     c.Query("next"),
	}, web.Layout)
}

func (h *AuthHandler) renderRegister(c *fiber.Ctx, code int, username string, errs map[string]string) error {
	return c.Status(code).Render("register", fiber.Map{
		"Title":    "Register",
		"User":     nil,
		"Username": username,
		"Errors":   errs,
	}, web.Layout)
}

// safeNext only follows local redirect targets. Browsers read a backslash
// as a slash and drop tabs and newlines, so either can turn a path into a
// host.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	if strings.IndexFunc(next, func(r rune) bool { return r == '\\' || unicode.IsControl(r) }) >= 0 {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
