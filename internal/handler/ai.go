package handler

import (
	"context"
	"errors"
	"net/http"

	"ai-financer/internal/ai"
	"ai-financer/internal/middleware"
	"ai-financer/internal/models"
	"ai-financer/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BillReader extracts expense details from a bill photo.
type BillReader interface {
	Extract(ctx context.Context, dataURI string) (ai.BillDetails, error)
}

// Assistant answers questions about the user's finances.
type Assistant interface {
	Ask(ctx context.Context, question string, incomes, expenses []models.Record) (string, error)
}

type AIHandler struct {
	Bills     BillReader
	Assistant Assistant
	Log       zerolog.Logger
}

func NewAIHandler(bills BillReader, assistant Assistant, log zerolog.Logger) *AIHandler {
	return &AIHandler{Bills: bills, Assistant: assistant, Log: log}
}

// aiError writes the response for a collaborator failure. fallback is the
// message used for transient upstream errors.
func aiError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		util.Error(c, http.StatusServiceUnavailable, util.CodeNotConfigured, "AI API key not configured")
	case errors.Is(err, ai.ErrInvalidCredentials):
		util.Error(c, http.StatusServiceUnavailable, util.CodeNotConfigured, "Invalid AI API key")
	case errors.Is(err, ai.ErrInvalidImage):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam,
			"Invalid image. Please upload a clear photo of a bill or receipt (JPG, PNG).")
	case errors.Is(err, ai.ErrEmptyQuestion):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Please enter a question")
	case errors.Is(err, ai.ErrUnreachable):
		util.Error(c, http.StatusBadGateway, util.CodeUpstream, "Unable to connect to the AI service. Please check your internet connection.")
	default:
		util.Error(c, http.StatusBadGateway, util.CodeUpstream, fallback)
	}
}

type extractReq struct {
	Image string `json:"image" binding:"required"`
}

// ExtractBill reads a bill photo and returns prefilled expense fields. The
// expense is not saved.
func (h *AIHandler) ExtractBill(c *gin.Context) {
	var req extractReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Please upload a bill photo")
		return
	}
	d, err := h.Bills.Extract(c.Request.Context(), req.Image)
	if err != nil {
		h.Log.Warn().Err(err).Msg("extract bill")
		aiError(c, err, "Failed to extract bill details.")
		return
	}
	util.Success(c, util.Response{"bill": d})
}

type askReq struct {
	Question string `json:"question"`
}

func (h *AIHandler) Ask(c *gin.Context) {
	var req askReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Please enter a question")
		return
	}
	book := middleware.CurrentBook(c)
	answer, err := h.Assistant.Ask(c.Request.Context(), req.Question,
		book.Records(models.KindIncomes), book.Records(models.KindExpenses))
	if err != nil {
		h.Log.Warn().Err(err).Msg("assistant")
		aiError(c, err, "Failed to get a response from the assistant.")
		return
	}
	util.Success(c, util.Response{"answer": answer})
}
