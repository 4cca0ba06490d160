package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtc-ibs/borrowing-api/internal/api/metrics"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a pending account and emails a verification link.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := h.authService.Signup(c.Request().Context(), req.Email, req.Password)
	metrics.ObserveAuth("signup", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Verification email sent. Please check your inbox."})
}

// Verify consumes a verification token and activates the account.
//
// @Summary      Verify email
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	_, err := h.authService.Verify(c.Request().Context(), c.QueryParam("token"))
	metrics.ObserveAuth("verify", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Email verified. You can now log in."})
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	meta := ports.LoginMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
	token, account, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, meta)
	metrics.ObserveAuth("login", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token: token,
		User:  userResponse{ID: account.ID, Email: account.Email, Role: account.Role},
	})
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change password
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = h.authService.ChangePassword(c.Request().Context(), session.AccountID, req.CurrentPassword, req.NewPassword)
	metrics.ObserveAuth("change_password", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password updated."})
}

// ResendVerification issues a fresh verification link for a pending signup.
//
// @Summary      Resend verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resendRequest  true  "Email"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req resendRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := h.authService.ResendVerification(c.Request().Context(), req.Email)
	metrics.ObserveAuth("resend_verification", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Verification email sent again."})
}
