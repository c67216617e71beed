package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"ai-financer/internal/export"
	"ai-financer/internal/ledger"
	"ai-financer/internal/middleware"
	"ai-financer/internal/models"
	"ai-financer/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler downloads the current book as spreadsheets.
type ExportHandler struct {
	Log zerolog.Logger
}

func NewExportHandler(log zerolog.Logger) *ExportHandler {
	return &ExportHandler{Log: log}
}

func bookSheets(c *gin.Context, kinds ...models.Kind) []export.Sheet {
	book := middleware.CurrentBook(c)
	sheets := make([]export.Sheet, 0, len(kinds))
	for _, k := range kinds {
		sheets = append(sheets, export.Sheet{Kind: k, Records: book.Records(k)})
	}
	return sheets
}

func (h *ExportHandler) sendXLSX(c *gin.Context, filename string, sheets []export.Sheet) {
	// render first so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sheets...); err != nil {
		h.Log.Error().Err(err).Msg("export xlsx")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Export failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportXLSX writes both kinds as sheets "Incomes" and "Expenses".
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	name := fmt.Sprintf("finance_%s.xlsx", time.Now().Format("20060102"))
	h.sendXLSX(c, name, bookSheets(c, models.Kinds...))
}

// ExportKind returns a handler writing a single-sheet workbook such as
// "Incomes.xlsx".
func (h *ExportHandler) ExportKind(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.sendXLSX(c, kind.Title()+".xlsx", bookSheets(c, kind))
	}
}

func (h *ExportHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, bookSheets(c, models.Kinds...)...); err != nil {
		h.Log.Error().Err(err).Msg("export csv")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Export failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
		fmt.Sprintf("finance_%s.csv", time.Now().Format("20060102"))))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportPDF writes a statement with the dashboard totals and every record.
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	sheets := bookSheets(c, models.Kinds...)
	sum := ledger.Summarize(sheets[0].Records, sheets[1].Records)

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, "Finance Statement", sum, sheets...); err != nil {
		h.Log.Error().Err(err).Msg("export pdf")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Export failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
		fmt.Sprintf("statement_%s.pdf", time.Now().Format("20060102"))))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
