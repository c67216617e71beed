package handler

import (
	"context"
	"net/http"
	"strings"

	"ai-financer/internal/middleware"
	"ai-financer/internal/models"
	"ai-financer/internal/session"
	"ai-financer/internal/util"

	"github.com/gin-gonic/gin"
)

// AccountLookup finds the stored account of a signed-in user.
type AccountLookup interface {
	Lookup(ctx context.Context, uid string) (models.Account, error)
}

// UserHandler serves the profile header.
type UserHandler struct {
	Accounts AccountLookup
	Sessions Sessions
}

func NewUserHandler(accounts AccountLookup, sess Sessions) *UserHandler {
	return &UserHandler{Accounts: accounts, Sessions: sess}
}

// GetMe returns the display name and role of the current identity.
func (h *UserHandler) GetMe(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	switch id.Kind() {
	case session.KindGuest:
		util.Success(c, util.Response{
			"user": gin.H{"id": id.ID(), "name": "Guest", "role": "Guest User", "guest": true},
		})
		return
	case session.KindNone:
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Please sign in")
		return
	}

	email := h.Sessions.State().Email
	name := ""
	if acc, err := h.Accounts.Lookup(c.Request.Context(), id.ID()); err == nil {
		email = acc.Email
		name = acc.DisplayName
	}
	if name == "" && email != "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if name == "" {
		name = "User"
	}

	util.Success(c, util.Response{
		"user": gin.H{"id": id.ID(), "name": name, "email": email, "role": "Finance Manager", "guest": false},
	})
}
