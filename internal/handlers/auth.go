package handlers

import (
	"errors"
	"net/http"

	"cellscan/internal/service"
	"cellscan/internal/session"

	"github.com/gin-gonic/gin"
)

// Single, shared credentials payload for both sign-up and sign-in.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("auth_bad_request_body", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary  Register a user
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    input  body      authCredentials  true  "username and password"
// @Success  200    {object}  map[string]int   "id"
// @Failure  400    {object}  map[string]string
// @Failure  409    {object}  map[string]string
// @Failure  500    {object}  map[string]string
// @Router   /api/v1/auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.SignUp(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.log.Infow("auth_sign_up_failed", "username", input.Username, "err", err)
		switch {
		case errors.Is(err, service.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		case errors.Is(err, service.ErrMissingCredentials), errors.Is(err, service.ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary  Obtain a bearer token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    input  body      authCredentials    true  "username and password"
// @Success  200    {object}  map[string]string  "token"
// @Failure  400    {object}  map[string]string
// @Failure  401    {object}  map[string]string
// @Failure  500    {object}  map[string]string
// @Router   /api/v1/auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	token, err := h.sessions.IssueToken(id)
	if err != nil {
		h.log.Errorw("auth_token_failed", "user_id", id.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{"title": "Register"})
}

func (h *Handler) register(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")

	_, err := h.services.SignUp(c.Request.Context(), username, password)
	switch {
	case err == nil:
		h.log.Infow("auth_registered", "username", username)
		h.flash(c, session.FlashSuccess, msgRegistered)
		c.Redirect(http.StatusFound, "/")
		return
	case errors.Is(err, service.ErrDuplicateUsername):
		h.flash(c, session.FlashDanger, msgUsernameTaken)
	case errors.Is(err, service.ErrMissingCredentials):
		h.flash(c, session.FlashDanger, msgMissingFields)
	case errors.Is(err, service.ErrPasswordTooLong):
		h.flash(c, session.FlashDanger, msgPasswordTooLong)
	default:
		h.log.Errorw("auth_sign_up_failed", "username", username, "err", err)
		h.flash(c, session.FlashDanger, "Registration failed, please try again.")
	}
	c.Redirect(http.StatusFound, "/register")
}

func (h *Handler) login(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")

	id, err := h.services.Authenticate(c.Request.Context(), username, password)
	if err == nil {
		err = h.sessions.Start(c.Writer, id)
	}
	if err != nil {
		h.log.Infow("auth_sign_in_failed", "username", username, "err", err)
		h.flash(c, session.FlashDanger, msgInvalidCredentials)
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.log.Infow("auth_signed_in", "user_id", id.UserID)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) logout(c *gin.Context) {
	h.sessions.End(c.Writer)
	c.Redirect(http.StatusFound, "/")
}
