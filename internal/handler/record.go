package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ai-financer/internal/ledger"
	"ai-financer/internal/middleware"
	"ai-financer/internal/models"
	"ai-financer/internal/syncer"
	"ai-financer/internal/util"

	"github.com/gin-gonic/gin"
)

// RecordHandler serves one record kind (incomes or expenses) of the current
// book.
type RecordHandler struct {
	Kind models.Kind
}

func NewRecordHandler(kind models.Kind) *RecordHandler {
	return &RecordHandler{Kind: kind}
}

type recordReq struct {
	Name        string  `json:"name" binding:"required"`
	Amount      string  `json:"amount" binding:"required"`
	Date        string  `json:"date" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Status      string  `json:"status"`
	Paid        bool    `json:"paid"`
	Photo       *string `json:"photo"`
}

// toRecord validates the request. An unset status means DUE.
func (h *RecordHandler) toRecord(req recordReq) (models.Record, error) {
	r := models.Record{
		Name:        strings.TrimSpace(req.Name),
		Amount:      strings.TrimSpace(req.Amount),
		Date:        strings.TrimSpace(req.Date),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Status:      models.StatusDue,
		Photo:       req.Photo,
	}
	if req.Paid || strings.EqualFold(req.Status, string(models.StatusPaid)) {
		r.Status = models.StatusPaid
	}
	if r.Name == "" || r.Description == "" {
		return r, errors.New("please fill in all fields")
	}
	if err := util.ValidateAmount(r.Amount); err != nil {
		return r, err
	}
	if err := util.ValidateDate(r.Date); err != nil {
		return r, err
	}
	if err := util.ValidateCategory(h.Kind, r.Category); err != nil {
		return r, err
	}
	return r, nil
}

func (h *RecordHandler) Create(c *gin.Context) {
	book := middleware.CurrentBook(c)

	var req recordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Please fill in all fields")
		return
	}
	rec, err := h.toRecord(req)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	rec = book.Add(h.Kind, rec)
	util.Success(c, util.Response{"record": rec})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid id")
		return 0, false
	}
	return id, true
}

// Update edits a record in place, keeping its id.
func (h *RecordHandler) Update(c *gin.Context) {
	book := middleware.CurrentBook(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req recordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Please fill in all fields")
		return
	}
	rec, err := h.toRecord(req)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	rec.ID = id
	if rec.Photo == nil {
		// keep the stored photo unless a new one is sent
		if old, ok := book.Find(h.Kind, id); ok {
			rec.Photo = old.Photo
		}
	}

	if err := book.Update(h.Kind, rec); err != nil {
		if errors.Is(err, syncer.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "Record not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Save failed, please try again")
		return
	}
	util.Success(c, util.Response{"record": rec})
}

func (h *RecordHandler) Delete(c *gin.Context) {
	book := middleware.CurrentBook(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := book.Remove(h.Kind, id); err != nil {
		if errors.Is(err, syncer.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "Record not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Delete failed, please try again")
		return
	}
	util.Success(c, util.Response{"id": id})
}

// maxPage caps the page query; anything past the last page is empty anyway.
const maxPage = 1 << 20

// List returns one page of records, optionally filtered by q.
func (h *RecordHandler) List(c *gin.Context) {
	book := middleware.CurrentBook(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(ledger.DefaultPageSize)))
	if size <= 0 || size > 100 {
		size = ledger.DefaultPageSize
	}

	all := book.Records(h.Kind)
	matched := ledger.Search(all, c.Query("q"))
	items := ledger.Paginate(matched, page, size)

	util.Success(c, util.Response{
		"items":      items,
		"total":      len(matched),
		"page":       page,
		"page_size":  size,
		"amount_sum": ledger.Total(all).StringFixed(2),
		"categories": h.Kind.Categories(),
	})
}

// Trend returns the date ordered series for the kind's chart.
func (h *RecordHandler) Trend(c *gin.Context) {
	book := middleware.CurrentBook(c)
	util.Success(c, util.Response{"points": ledger.Trend(book.Records(h.Kind))})
}

// Summary returns the dashboard totals over both kinds.
func Summary(c *gin.Context) {
	book := middleware.CurrentBook(c)
	s := ledger.Summarize(book.Records(models.KindIncomes), book.Records(models.KindExpenses))
	util.Success(c, util.Response{
		"total_income":     s.TotalIncome.StringFixed(2),
		"total_expense":    s.TotalExpense.StringFixed(2),
		"balance":          s.Balance.StringFixed(2),
		"total":            s.Combined.StringFixed(2),
		"income_count":     s.IncomeCount,
		"expense_count":    s.ExpenseCount,
		"income_by_month":  s.IncomeByMonth,
		"expense_by_month": s.ExpenseByMonth,
	})
}
