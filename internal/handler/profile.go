package handler

import (
	"context"
	"errors"
	"net/http"

	"ai-financer/internal/account"
	"ai-financer/internal/middleware"
	"ai-financer/internal/models"
	"ai-financer/internal/session"
	"ai-financer/internal/util"

	"github.com/gin-gonic/gin"
)

// ProfileEditor changes account settings of signed-in users.
type ProfileEditor interface {
	UpdateDisplayName(ctx context.Context, uid, name string) (models.Account, error)
	ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error
}

type ProfileHandler struct {
	Accounts ProfileEditor
}

func NewProfileHandler(accounts ProfileEditor) *ProfileHandler {
	return &ProfileHandler{Accounts: accounts}
}

type updateProfileReq struct {
	DisplayName string `json:"display_name" binding:"max=64"`
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=64"`
}

// accountUID returns the uid of a signed-in user; guests have no account.
func accountUID(c *gin.Context) (string, bool) {
	id := middleware.CurrentIdentity(c)
	if id.Kind() != session.KindAuthenticated {
		util.Error(c, http.StatusForbidden, util.CodeAuth, "Sign in to manage your profile")
		return "", false
	}
	return id.ID(), true
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	uid, ok := accountUID(c)
	if !ok {
		return
	}
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid display name")
		return
	}

	acc, err := h.Accounts.UpdateDisplayName(c.Request.Context(), uid, req.DisplayName)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "Account not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Update failed")
		return
	}
	util.Success(c, util.Response{
		"user": gin.H{"id": acc.UID, "email": acc.Email, "display_name": acc.DisplayName},
	})
}

func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	uid, ok := accountUID(c)
	if !ok {
		return
	}
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "New password must be at least 6 characters")
		return
	}

	err := h.Accounts.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		util.Success(c, util.Response{"message": "Password changed"})
	case errors.Is(err, account.ErrWrongPassword):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Current password is incorrect")
	case errors.Is(err, account.ErrWeakPassword):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.Is(err, account.ErrUserNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "Account not found")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Update failed")
	}
}
