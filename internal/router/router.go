package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk-api/internal/handler"
	"github.com/noah-isme/complaint-desk-api/internal/middleware"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	"github.com/noah-isme/complaint-desk-api/pkg/config"
	"github.com/noah-isme/complaint-desk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/complaint-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/complaint-desk-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth      *handler.AuthHandler
	Complaint *handler.ComplaintHandler
	Dashboard *handler.DashboardHandler
	Admin     *handler.AdminComplaintHandler
	Metrics   *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators used by middleware.
type Dependencies struct {
	Tokens   middleware.TokenValidator
	Audit    middleware.AuditRecorder
	Requests middleware.RequestObserver
	Attempts middleware.AttemptCounter
	Throttle middleware.ThrottleRecorder
	Logger   *zap.Logger
}

// New builds the gin engine with every route registered.
func New(cfg *config.Config, h Handlers, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Attachments.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Requests))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	registerAuth(api, cfg, h.Auth, deps)
	registerComplaints(api, cfg, h, deps)
	registerAdmin(api, h.Admin, deps)

	return r
}

func registerAuth(api *gin.RouterGroup, cfg *config.Config, h *handler.AuthHandler, deps Dependencies) {
	auth := api.Group("/auth")
	auth.POST("/signup/", h.Signup)
	auth.POST("/login/", middleware.LoginRateLimit(cfg.RateLimit, deps.Attempts, deps.Throttle, deps.Logger), h.Login)
	auth.POST("/refresh/", h.Refresh)
	auth.POST("/logout/", middleware.JWT(deps.Tokens), h.Logout)
	auth.GET("/me/", middleware.JWT(deps.Tokens), h.Me)
}

func registerComplaints(api *gin.RouterGroup, cfg *config.Config, h Handlers, deps Dependencies) {
	listAuth := middleware.JWT(deps.Tokens)
	if cfg.Complaints.PublicListing {
		listAuth = middleware.OptionalJWT(deps.Tokens)
	}
	api.GET("/complaints/", listAuth, h.Complaint.List)

	g := api.Group("", middleware.JWT(deps.Tokens))
	g.GET("/dashboard/", h.Dashboard.Summary)
	g.POST("/complaints/create/", h.Complaint.Create)
	g.GET("/complaints/mine/", h.Complaint.Mine)
	g.GET("/my_complaints/", h.Complaint.Mine)
	g.GET("/complaints/:id/", h.Complaint.Detail)
	g.GET("/complaints/:id/attachment/", h.Complaint.AttachmentURL)
	g.GET("/complaints/:id/attachment/download/",
		middleware.Audit(deps.Audit, deps.Logger, models.AuditActionAttachmentDownload, "complaints"),
		h.Complaint.DownloadAttachment,
	)
	g.GET("/search/", h.Complaint.Search)
	g.GET("/api/unread/", h.Complaint.Unread)
}

func registerAdmin(api *gin.RouterGroup, h *handler.AdminComplaintHandler, deps Dependencies) {
	admin := api.Group("/admin", middleware.JWT(deps.Tokens), middleware.RequireStaff())
	admin.GET("/complaints/", h.List)
	admin.GET("/complaints/export/", h.Export)
	admin.POST("/complaints/:id/update/", h.Update)
}
