package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AuthHandler serves the login, registration and logout pages.
type AuthHandler struct {
	service *service.AuthService
	pages   *Pages
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, pages *Pages) *AuthHandler {
	return &AuthHandler{service: authService, pages: pages}
}

// Index GET /.
func (h *AuthHandler) Index(c *fiber.Ctx) error {
	rc := auth.RequestContextFrom(c)
	if !rc.Authenticated() {
		return c.Redirect(auth.LoginPath)
	}
	return c.Redirect(auth.LandingPath(rc.Identity.Role))
}

// LoginPage GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return h.pages.Render(c, fiber.StatusOK, "login", "Log in", fiber.Map{"Username": ""})
}

// Login POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	_ = c.BodyParser(&form)

	user, err := h.service.Login(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			return err
		}
		h.pages.Sessions().Flash(c, auth.FlashError, apperrors.ToDomainError(err).Message)
		return h.pages.Render(c, fiber.StatusUnauthorized, "login", "Log in", fiber.Map{"Username": form.Username})
	}

	if err := h.pages.Sessions().Login(c, user); err != nil {
		return err
	}
	return h.pages.Redirect(c, auth.LandingPath(user.Role), auth.FlashSuccess,
		fmt.Sprintf("Welcome back, %s!", user.Username))
}

// RegisterPage GET /register.
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return h.pages.Render(c, fiber.StatusOK, "register", "Register", fiber.Map{
		"Form": dto.RegisterForm{Role: "user"},
	})
}

// Register POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form dto.RegisterForm
	_ = c.BodyParser(&form)

	_, err := h.service.Register(c.UserContext(), service.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		Role:     form.Role,
	})
	if err != nil {
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) || domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			return err
		}
		h.pages.Sessions().Flash(c, auth.FlashError, domainErr.Message)
		return h.pages.Render(c, domainErr.HTTPStatus, "register", "Register", fiber.Map{"Form": form.Echo()})
	}

	return h.pages.Redirect(c, auth.LoginPath, auth.FlashSuccess, "Registration successful! Please log in.")
}

// Logout GET /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.pages.Sessions().Logout(c); err != nil {
		return err
	}
	return h.pages.Redirect(c, auth.LoginPath, auth.FlashInfo, "You have been logged out")
}
