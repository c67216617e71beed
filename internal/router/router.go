package router

import (
	"ai-financer/internal/handler"
	"ai-financer/internal/middleware"
	"ai-financer/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Sessions  handler.Sessions
	Books     middleware.BookSource
	Accounts  handler.AccountLookup
	Profiles  handler.ProfileEditor
	Bills     handler.BillReader
	Assistant handler.Assistant
	Log       zerolog.Logger
}

// SetupRouter configures the Gin engine and the JSON API.
func SetupRouter(mode string, d Deps) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(d.Log), gin.Recovery())

	api := r.Group("/api")

	// session endpoints work in every state
	authHandler := handler.NewAuthHandler(d.Sessions, d.Log)
	api.GET("/session", authHandler.State)
	api.POST("/auth/signup", authHandler.SignUp)
	api.POST("/auth/signin", authHandler.SignIn)
	api.POST("/auth/guest", authHandler.Guest)
	api.POST("/auth/signout", authHandler.SignOut)

	protected := api.Group("")
	protected.Use(middleware.RequireSession(d.Sessions, d.Books))

	userHandler := handler.NewUserHandler(d.Accounts, d.Sessions)
	protected.GET("/me", userHandler.GetMe)
	protected.GET("/summary", handler.Summary)

	profileHandler := handler.NewProfileHandler(d.Profiles)
	protected.POST("/profile", profileHandler.UpdateProfile)
	protected.POST("/profile/password", profileHandler.ChangePassword)

	exportHandler := handler.NewExportHandler(d.Log)
	for _, kind := range models.Kinds {
		h := handler.NewRecordHandler(kind)
		g := protected.Group("/" + string(kind))
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/trend", h.Trend)
		g.GET("/export", exportHandler.ExportKind(kind))
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/pdf", exportHandler.ExportPDF)

	aiHandler := handler.NewAIHandler(d.Bills, d.Assistant, d.Log)
	protected.POST("/bills/extract", aiHandler.ExtractBill)
	protected.POST("/assistant/ask", aiHandler.Ask)

	return r
}
