package auth

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/readonly"
)

// Auditor receives authentication events.
type Auditor interface {
	LogAuth(actor audit.Actor, action, username string, success bool)
}

// isLocalPath reports whether path is safe to redirect to after login.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs, schemes and backslashes can all escape the host.
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// Controller serves the login, logout and first-run setup pages.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	auditor        Auditor
	logger         *zap.Logger

	// setupMu serializes setup so two requests cannot both create the first admin.
	setupMu sync.Mutex
}

// NewController creates the authentication controller. auditor may be nil.
func NewController(service *Service, sessionManager *SessionManager, auditor Auditor, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		auditor:        auditor,
		logger:         logger.Named("auth"),
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *Controller) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout)
	router.GET("/setup", ac.SetupPage)
	router.POST("/setup", ac.Setup)
}

// LoginPage renders the login form.
func (ac *Controller) LoginPage(c *gin.Context) {
	ctx := c.Request.Context()
	if ac.sessionManager.IsAuthenticated(ctx) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	hasUsers, err := ac.service.HasUsers(ctx)
	if err != nil {
		ac.logger.Error("failed to count users", zap.Error(err))
	} else if !hasUsers {
		c.Redirect(http.StatusFound, "/setup")
		return
	}

	ac.render(c, http.StatusOK, "login", gin.H{
		"Next":  sanitizeRedirectPath(c.Query("next")),
		"Error": c.Query("error"),
	})
}

// Login handles the login form submission.
func (ac *Controller) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))

	user, err := ac.service.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		ac.audit(c, 0, "login", username, false)

		message := "Invalid username or password"
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, ErrAccountLocked):
			message = "Account is locked. Please try again later."
			status = http.StatusTooManyRequests
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
		default:
			ac.logger.Error("login failed", zap.String("username", username), zap.Error(err))
		}

		ac.render(c, status, "login", gin.H{
			"Next":     next,
			"Username": username,
			"Error":    message,
		})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request.Context(), user); err != nil {
		ac.logger.Error("failed to create session", zap.Error(err))
		ac.render(c, http.StatusInternalServerError, "login", gin.H{
			"Next":     next,
			"Username": username,
			"Error":    "Failed to create session",
		})
		return
	}

	ac.audit(c, user.ID, "login", user.Username, true)
	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to login.
func (ac *Controller) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if data := ac.sessionManager.GetSessionData(ctx); data != nil {
		ac.audit(c, data.UserID, "logout", data.Username, true)
	}
	if err := ac.sessionManager.DestroySession(ctx); err != nil {
		ac.logger.Warn("failed to destroy session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/login")
}

// SetupPage renders the first-admin form while no users exist.
func (ac *Controller) SetupPage(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers(c.Request.Context())
	if err != nil {
		ac.render(c, http.StatusInternalServerError, "setup", gin.H{
			"Error": "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	ac.render(c, http.StatusOK, "setup", gin.H{
		"Error": c.Query("error"),
	})
}

// Setup creates the first admin account and signs it in.
func (ac *Controller) Setup(c *gin.Context) {
	ac.setupMu.Lock()
	defer ac.setupMu.Unlock()

	ctx := c.Request.Context()
	hasUsers, err := ac.service.HasUsers(ctx)
	if err != nil {
		ac.render(c, http.StatusInternalServerError, "setup", gin.H{
			"Error": "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	fail := func(message string) {
		ac.render(c, http.StatusUnprocessableEntity, "setup", gin.H{
			"Username": username,
			"Email":    email,
			"Error":    message,
		})
	}

	if password != c.PostForm("confirm_password") {
		fail("Passwords do not match")
		return
	}

	user, err := ac.service.CreateUser(ctx, username, email, password, entities.UserRoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.Redirect(http.StatusFound, "/login")
		case errors.Is(err, ErrPasswordTooShort):
			fail("Password must be at least 12 characters")
		case errors.Is(err, ErrPasswordTooLong):
			fail("Password exceeds maximum length of 72 characters")
		case errors.Is(err, ErrUsernameRequired):
			fail("Username is required")
		case errors.Is(err, ErrUsernameInvalid):
			fail("Username must be 3-64 characters, alphanumeric with underscore/hyphen only")
		case errors.Is(err, ErrEmailRequired):
			fail("Email is required")
		case errors.Is(err, ErrEmailInvalid):
			fail("Invalid email format")
		case errors.Is(err, ErrPasswordRequired):
			fail("Password is required")
		default:
			ac.logger.Error("failed to create admin", zap.Error(err))
			fail("Failed to create user")
		}
		return
	}

	ac.audit(c, user.ID, "setup", user.Username, true)
	if err := ac.sessionManager.CreateSession(ctx, user); err != nil {
		ac.logger.Warn("failed to sign in new admin", zap.Error(err))
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (ac *Controller) render(c *gin.Context, status int, name string, data gin.H) {
	data["Title"] = map[string]string{"login": "Log in", "setup": "Initial Setup"}[name]
	data["CSRFToken"] = GetCSRFToken(c)
	data["AuthEnabled"] = IsAuthEnabled(c)
	data["CurrentUser"] = GetUsername(c)
	data["ReadOnly"] = readonly.IsReadOnly(c)
	c.HTML(status, name, data)
}

func (ac *Controller) audit(c *gin.Context, userID uint, action, username string, success bool) {
	if ac.auditor == nil {
		return
	}
	ac.auditor.LogAuth(audit.Actor{
		UserID:    userID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, action, username, success)
}
