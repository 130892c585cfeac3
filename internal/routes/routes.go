package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/config"
	"github.com/BruksfildServices01/barber-saas/internal/handlers"
	"github.com/BruksfildServices01/barber-saas/internal/infra/payment"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	infraRepo "github.com/BruksfildServices01/barber-saas/internal/infra/repository"
	"github.com/BruksfildServices01/barber-saas/internal/infra/storage"
	"github.com/BruksfildServices01/barber-saas/internal/metrics"
	"github.com/BruksfildServices01/barber-saas/internal/middleware"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/notify"
	ucAppointment "github.com/BruksfildServices01/barber-saas/internal/usecase/appointment"
	ucCampaign "github.com/BruksfildServices01/barber-saas/internal/usecase/campaign"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/dashboard"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/reminders"
	ucSales "github.com/BruksfildServices01/barber-saas/internal/usecase/sales"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/subscription"
)

// Deps are the long lived pieces main owns and shuts down.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Audit  *audit.Dispatcher

	// Events is realtime.Nop{} when Redis is not configured; Feed is nil then.
	Events    realtime.Publisher
	Feed      handlers.Subscriber
	Dashboard *dashboard.Service
}

func RegisterRoutes(r *gin.Engine, d Deps) error {
	db, cfg := d.DB, d.Config

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ======================================================
	// INFRA
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	salesRepo := infraRepo.NewSalesGormRepository(db)
	campaignRepo := infraRepo.NewCampaignGormRepository(db)
	reminderRepo := infraRepo.NewReminderGormRepository(db)
	subscriptionRepo := infraRepo.NewSubscriptionGormRepository(db)

	var s3Client storage.S3API
	if cfg.S3Bucket != "" {
		s3Client = storage.NewS3Client(storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	}
	photos := storage.NewPhotoStore(s3Client, cfg.S3Bucket, cfg.S3PublicBaseURL)

	email := notify.NewEmailSenderFromConfig(cfg)
	whatsapp := notify.NewWhatsAppFromConfig(cfg)

	mp, err := payment.NewMercadoPago(payment.MercadoPagoConfig{
		AccessToken:     cfg.MercadoPagoAccessToken,
		NotificationURL: cfg.PublicBaseURL + "/api/webhooks/mercadopago",
		BackURL:         cfg.PublicBaseURL + "/app/subscription",
	})
	if err != nil {
		return err
	}
	var gateway subscription.Gateway
	if mp != nil {
		gateway = mp
	}

	events := d.Events
	if events == nil {
		events = realtime.Nop{}
	}
	stats := d.Dashboard
	if stats == nil {
		stats = dashboard.NewService(infraRepo.NewDashboardGormRepository(db), cfg.DashboardCacheTTL)
	}

	// ======================================================
	// USE CASES
	// ======================================================
	appointmentUC := handlers.AppointmentUseCases{
		Create:       ucAppointment.NewCreateAppointment(appointmentRepo, d.Audit, events),
		Availability: ucAppointment.NewGetAvailability(appointmentRepo),
		Confirm:      ucAppointment.NewConfirmAppointment(appointmentRepo, d.Audit, events),
		Cancel:       ucAppointment.NewCancelAppointment(appointmentRepo, d.Audit, events),
		Complete:     ucAppointment.NewCompleteAppointment(appointmentRepo, d.Audit, events, photos),
		NoShow:       ucAppointment.NewMarkNoShow(appointmentRepo, d.Audit, events),
		Reschedule:   ucAppointment.NewRescheduleAppointment(appointmentRepo, d.Audit, events),
		Notes:        ucAppointment.NewUpdateNotes(appointmentRepo, d.Audit, events),
		Photo:        ucAppointment.NewUpdateResultPhoto(appointmentRepo, d.Audit, events, photos),
		Delete:       ucAppointment.NewDeleteAppointment(appointmentRepo, d.Audit, events),
		ListByDate:   ucAppointment.NewListAppointmentsByDate(appointmentRepo),
		ListByMonth:  ucAppointment.NewListAppointmentsByMonth(appointmentRepo),
	}

	processSaleUC := ucSales.NewProcessSale(salesRepo, d.Audit, events)
	validateCouponUC := ucSales.NewValidateCoupon(salesRepo)
	moveStockUC := ucSales.NewMoveStock(salesRepo, d.Audit)

	sendCampaignUC := ucCampaign.NewSendCampaign(campaignRepo, email, whatsapp, d.Audit)
	sendRemindersUC := reminders.NewSendReminders(reminderRepo, email, events)

	checkoutUC := subscription.NewStartCheckout(subscriptionRepo, gateway, d.Audit)
	paymentUC := subscription.NewHandlePayment(subscriptionRepo, gateway)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg, d.Audit)
	meHandler := handlers.NewMeHandler(db)
	barbershopHandler := handlers.NewBarbershopHandler(db, d.Audit)
	staffHandler := handlers.NewStaffHandler(db, d.Audit)
	workingHoursHandler := handlers.NewWorkingHoursHandler(db, d.Audit)
	scheduleHandler := handlers.NewScheduleHandler(db, d.Audit)
	serviceHandler := handlers.NewServiceHandler(db, d.Audit)
	clientHandler := handlers.NewClientHandler(db, d.Audit, events)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentUC)
	waitlistHandler := handlers.NewWaitlistHandler(db, d.Audit, events)
	productHandler := handlers.NewProductHandler(db, d.Audit, moveStockUC)
	salesHandler := handlers.NewSalesHandler(db, d.Audit, processSaleUC, validateCouponUC)
	notificationHandler := handlers.NewNotificationHandler(db, events)
	campaignHandler := handlers.NewCampaignHandler(db, d.Audit, sendCampaignUC)
	dashboardHandler := handlers.NewDashboardHandler(stats)
	realtimeHandler := handlers.NewRealtimeHandler(d.Feed)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionRepo, checkoutUC, paymentUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)
	adminHandler := handlers.NewAdminHandler(db, d.Audit, sendRemindersUC)

	publicHandler := handlers.NewPublicHandler(
		db,
		appointmentUC.Create,
		appointmentUC.Availability,
		events,
		cfg.PublicBaseURL,
	)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimitRPS),
		Burst: cfg.RateLimitBurst,
		TTL:   10 * time.Minute,
	})
	ownerOnly := middleware.RequireRole(models.RoleOwner)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// API PÚBLICA
		// ------------------------------
		publicAPI := api.Group("/public")
		publicAPI.Use(limiter.RateLimit())
		{
			publicAPI.GET("/:shop", publicHandler.Company)
			publicAPI.GET("/:shop/services", publicHandler.ListServices)
			publicAPI.GET("/:shop/availability", publicHandler.Availability)
			publicAPI.POST("/:shop/appointments", publicHandler.CreateAppointment)
			publicAPI.POST("/:shop/waitlist", publicHandler.JoinWaitlist)
			publicAPI.GET("/:shop/qrcode", publicHandler.QRCode)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		authAPI := api.Group("/auth")
		authAPI.Use(limiter.RateLimit())
		{
			authAPI.POST("/register", authHandler.Register)
			authAPI.POST("/login", authHandler.Login)
		}

		api.POST("/webhooks/mercadopago", subscriptionHandler.MercadoPagoWebhook)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/me")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("", meHandler.GetMe)

			secured.GET("/barbershop", barbershopHandler.GetMeBarbershop)
			secured.PATCH("/barbershop", ownerOnly, barbershopHandler.UpdateMeBarbershop)

			// STAFF / AGENDA
			secured.GET("/staff", staffHandler.List)
			secured.POST("/staff", ownerOnly, staffHandler.Create)
			secured.PATCH("/staff/:id", ownerOnly, staffHandler.Update)
			secured.GET("/staff/:id/shifts", workingHoursHandler.GetShifts)
			secured.PUT("/staff/:id/shifts", ownerOnly, workingHoursHandler.UpdateShifts)

			secured.GET("/business-hours", workingHoursHandler.GetBusinessHours)
			secured.PUT("/business-hours", ownerOnly, workingHoursHandler.UpdateBusinessHours)

			secured.GET("/absences", scheduleHandler.ListAbsences)
			secured.POST("/absences", scheduleHandler.CreateAbsence)
			secured.DELETE("/absences/:id", scheduleHandler.DeleteAbsence)

			secured.GET("/blocked-slots", scheduleHandler.ListBlockedSlots)
			secured.POST("/blocked-slots", scheduleHandler.CreateBlockedSlot)
			secured.DELETE("/blocked-slots/:id", scheduleHandler.DeleteBlockedSlot)

			// SERVICES
			secured.GET("/services", serviceHandler.List)
			secured.POST("/services", ownerOnly, serviceHandler.Create)
			secured.PATCH("/services/:id", ownerOnly, serviceHandler.Update)
			secured.DELETE("/services/:id", ownerOnly, serviceHandler.Delete)

			// CLIENTS
			secured.GET("/clients", clientHandler.List)
			secured.POST("/clients", clientHandler.Create)
			secured.GET("/clients/:id", clientHandler.Get)
			secured.PATCH("/clients/:id", clientHandler.Update)
			secured.DELETE("/clients/:id", clientHandler.Delete)
			secured.GET("/clients/:id/history", clientHandler.History)
			secured.GET("/clients/:id/loyalty", salesHandler.Loyalty)

			// APPOINTMENTS
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.GET("/appointments/availability", appointmentHandler.Availability)
			secured.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.PATCH("/appointments/:id/no-show", appointmentHandler.NoShow)
			secured.PATCH("/appointments/:id/reschedule", appointmentHandler.Reschedule)
			secured.PATCH("/appointments/:id/notes", appointmentHandler.UpdateNotes)
			secured.PATCH("/appointments/:id/photo", appointmentHandler.UpdatePhoto)
			secured.DELETE("/appointments/:id", appointmentHandler.Delete)

			// WAITLIST
			secured.GET("/waitlist", waitlistHandler.List)
			secured.POST("/waitlist", waitlistHandler.Create)
			secured.PATCH("/waitlist/:id", waitlistHandler.UpdateStatus)

			// PRODUCTS / STOCK
			secured.GET("/products", productHandler.List)
			secured.POST("/products", ownerOnly, productHandler.Create)
			secured.PATCH("/products/:id", ownerOnly, productHandler.Update)
			secured.POST("/products/:id/stock", productHandler.MoveStock)
			secured.GET("/products/:id/movements", productHandler.ListMovements)

			// POINT OF SALE
			secured.GET("/coupons", salesHandler.ListCoupons)
			secured.POST("/coupons", ownerOnly, salesHandler.CreateCoupon)
			secured.PATCH("/coupons/:id", ownerOnly, salesHandler.UpdateCoupon)
			secured.POST("/coupons/validate", salesHandler.ValidateCoupon)

			secured.GET("/sales", salesHandler.ListSales)
			secured.POST("/sales", salesHandler.CreateSale)
			secured.GET("/sales/:id", salesHandler.GetSale)

			// NOTIFICATIONS / CAMPAIGNS
			secured.GET("/notifications", notificationHandler.List)
			secured.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)
			secured.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

			campaigns := secured.Group("/campaigns", ownerOnly)
			{
				campaigns.GET("", campaignHandler.List)
				campaigns.POST("", campaignHandler.Create)
				campaigns.GET("/:id", campaignHandler.Get)
				campaigns.PATCH("/:id", campaignHandler.Update)
				campaigns.DELETE("/:id", campaignHandler.Delete)
				campaigns.POST("/:id/send", campaignHandler.Send)
				campaigns.GET("/:id/deliveries", campaignHandler.Deliveries)
			}

			// DASHBOARD / REALTIME
			secured.GET("/dashboard", dashboardHandler.Stats)
			secured.GET("/realtime", realtimeHandler.Stream)

			// SUBSCRIPTION
			secured.GET("/subscription", ownerOnly, subscriptionHandler.Get)
			secured.POST("/subscription/checkout", ownerOnly, subscriptionHandler.Checkout)

			secured.GET("/audit-logs", ownerOnly, auditLogsHandler.List)
		}

		// ------------------------------
		// SUPER ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg), middleware.RequireRole(models.RoleSuperAdmin))
		{
			admin.GET("/barbershops", adminHandler.ListTenants)
			admin.PATCH("/barbershops/:id/active", adminHandler.SetTenantActive)
			admin.POST("/reminders/run", adminHandler.RunReminders)
		}
	}

	return nil
}
