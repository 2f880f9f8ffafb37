package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"cellscan/internal/logger"
	"cellscan/internal/service"
	"cellscan/internal/session"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Handler wires HTTP layer to services, sessions and logging.
type Handler struct {
	services  *service.Service
	sessions  *session.Manager
	log       *logger.Logger
	maxUpload int64
	accept    string
}

// Options carries request limits taken from configuration.
type Options struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// NewHandler constructs a new HTTP handler with dependencies. A nil log
// discards output.
func NewHandler(services *service.Service, sessions *session.Manager, log *logger.Logger, o Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		services:  services,
		sessions:  sessions,
		log:       log,
		maxUpload: o.MaxUploadBytes,
		accept:    acceptAttr(o.AllowedExtensions),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))
	static, _ := fs.Sub(staticFS, "static")
	router.StaticFS("/static", http.FS(static))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	h.registerPageRoutes(router)

	// Versioned JSON API
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerPageRoutes(r *gin.Engine) {
	r.GET("/", h.index)
	r.GET("/about", h.about)
	r.GET("/register", h.registerForm)
	r.POST("/register", h.register)
	r.POST("/login", h.login)

	pages := r.Group("/", h.requireSession(""))
	{
		pages.GET("/dashboard", h.dashboard)
		pages.GET("/result", h.result)
		pages.GET("/uploads/:key", h.uploadedImage)
		pages.GET("/history", h.history)
		pages.GET("/logout", h.logout)
	}

	// these two tell the user why they were sent back
	flashed := r.Group("/", h.requireSession(msgLoginFirst))
	{
		flashed.POST("/upload", h.upload)
		flashed.GET("/download_pdf", h.downloadPDF)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}

	protected := api.Group("", h.bearerAuth)
	{
		protected.GET("/history", h.listHistory)
		protected.POST("/classify", h.classify)
	}
}

// @Summary  Health check
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
