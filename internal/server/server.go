package server

import (
	"context"
	"net/http"
	"time"

	"quickcourt/internal/auth"
	"quickcourt/internal/booking"
	"quickcourt/internal/config"
	"quickcourt/internal/email"
	"quickcourt/internal/events"
	"quickcourt/internal/otp"
	"quickcourt/internal/user"
	"quickcourt/internal/venue"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router   *gin.Engine
	srv      *http.Server
	db       *sqlx.DB
	config   *config.Config
	email    *email.Service
	bookings booking.Service
}

func New(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, emailService *email.Service, publisher events.Publisher) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware(cfg.CORSOrigin))

	tokens := auth.NewRedisTokenStore(rdb)

	userService := user.NewService(user.NewRepository(db), cfg.JWTSecret, otp.NewStore(rdb), emailService, tokens)
	venueService := venue.NewService(venue.NewRepository(db), userService)
	bookingService := booking.NewService(
		booking.NewRepository(db),
		venueService,
		userService,
		booking.NewChecker(cfg.Location()),
		publisher,
		emailService,
	)

	userHandler := user.NewHandler(userService)
	venueHandler := venue.NewHandler(venueService)
	bookingHandler := booking.NewHandler(bookingService)

	router.GET("/health", Health(db, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }))
	router.GET("/metrics", Metrics(emailService))
	SetupSwagger(router)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret, tokens)
	staff := auth.RequireRole(auth.RoleFacilityOwner, auth.RoleAdmin)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.POST("/signup", userHandler.Register)
		public.POST("/signup/request-otp", userHandler.RequestOTP)
		public.POST("/signup/verify-otp", userHandler.VerifyOTP)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
		public.GET("/me", authMiddleware, userHandler.GetMe)
		public.POST("/logout", authMiddleware, userHandler.Logout)
	}

	router.GET("/venues", venueHandler.ListVenues)
	router.GET("/venues/:id", venueHandler.GetVenue)
	router.GET("/venues/:id/courts/:courtRef/availability", bookingHandler.Availability)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/bookings", bookingHandler.ListBookings)
		protected.POST("/bookings", bookingHandler.CreateBooking)
		protected.GET("/bookings/:id", bookingHandler.GetBooking)
		protected.PATCH("/bookings/:id/cancel", bookingHandler.CancelBooking)
		protected.POST("/venues/:id/reviews", venueHandler.AddReview)

		protected.POST("/venues", staff, venueHandler.CreateVenue)
		protected.POST("/venues/:id/courts", staff, venueHandler.AddCourt)
		protected.PATCH("/venues/:id/courts/:courtId", staff, venueHandler.UpdateCourt)
	}

	admin := router.Group("/")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.DELETE("/venues/:id", venueHandler.DeleteVenue)
		admin.GET("/admin/bookings/export", bookingHandler.ExportBookings)
	}

	return &Server{
		router: router,
		srv:    &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		db:       db,
		config:   cfg,
		email:    emailService,
		bookings: bookingService,
	}
}

// Bookings exposes the booking service for background workers.
func (s *Server) Bookings() booking.Service {
	return s.bookings
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
