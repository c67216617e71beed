package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ai-financer/internal/account"
	"ai-financer/internal/session"
	"ai-financer/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Sessions is the session surface driven over HTTP.
type Sessions interface {
	State() session.State
	SignIn(ctx context.Context, email, password string) (session.Identity, error)
	SignUp(ctx context.Context, email, password string) (session.Identity, error)
	EnterGuest() (session.Identity, error)
	SignOut() error
}

// AuthHandler serves sign-in, sign-up, guest mode and sign-out.
type AuthHandler struct {
	Sessions Sessions
	Log      zerolog.Logger
}

func NewAuthHandler(sess Sessions, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Sessions: sess, Log: log}
}

type credentialsReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func identityJSON(st session.State) gin.H {
	return gin.H{
		"pending": st.Pending,
		"kind":    st.Identity.Kind().String(),
		"id":      st.Identity.ID(),
		"email":   st.Email,
	}
}

// State reports the current session; it never requires one.
func (h *AuthHandler) State(c *gin.Context) {
	util.Success(c, util.Response{"session": identityJSON(h.Sessions.State())})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	h.authenticate(c, h.Sessions.SignUp)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	h.authenticate(c, h.Sessions.SignIn)
}

func (h *AuthHandler) authenticate(c *gin.Context, fn func(context.Context, string, string) (session.Identity, error)) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Please enter email and password")
		return
	}

	_, err := fn(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	switch {
	case err == nil:
		util.Success(c, util.Response{"session": identityJSON(h.Sessions.State())})
	case errors.Is(err, account.ErrInvalidEmail), errors.Is(err, account.ErrWeakPassword):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.Is(err, account.ErrUserNotFound), errors.Is(err, account.ErrWrongPassword):
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, err.Error())
	case errors.Is(err, account.ErrEmailInUse):
		util.Error(c, http.StatusConflict, util.CodeConflict, err.Error())
	default:
		h.Log.Error().Err(err).Msg("authenticate")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Authentication failed, please try again")
	}
}

func (h *AuthHandler) Guest(c *gin.Context) {
	if _, err := h.Sessions.EnterGuest(); err != nil {
		h.Log.Error().Err(err).Msg("enter guest mode")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Could not start guest session")
		return
	}
	util.Success(c, util.Response{"session": identityJSON(h.Sessions.State())})
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.Sessions.SignOut(); err != nil {
		h.Log.Warn().Err(err).Msg("sign out")
	}
	util.Success(c, util.Response{"redirect": "/"})
}
