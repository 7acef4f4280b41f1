package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/controllers"
	"github.com/yeremiapane/table-reservation/middlewares"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
	"gorm.io/gorm"
)

type Deps struct {
	DB                 *gorm.DB
	Reservations       *services.ReservationService
	Tokens             *utils.TokenManager
	TablesFile         string
	RateLimitPerSecond int
	CORSAllowedOrigins []string
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSAllowedOrigins...))
	r.Use(middlewares.LoggerMiddleware())
	if deps.RateLimitPerSecond > 0 {
		r.Use(middlewares.NewRateLimiter(deps.RateLimitPerSecond, deps.RateLimitPerSecond).RateLimit())
	}

	// Inisialisasi controller
	reservationCtrl := controllers.NewReservationController(deps.Reservations)
	tableCtrl := controllers.NewTableController(deps.Reservations, deps.TablesFile)
	userCtrl := controllers.NewUserController(deps.DB, deps.Tokens)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)

	r.GET("/tables", tableCtrl.GetAllTables)
	r.GET("/tables/:table_id", tableCtrl.GetTableByID)

	r.GET("/availability", reservationCtrl.CheckAvailability)
	r.POST("/reservations", reservationCtrl.Book)
	r.POST("/reservations/cancel", reservationCtrl.Cancel)
	r.POST("/reservations/change", reservationCtrl.Change)
	r.POST("/commands", reservationCtrl.Execute)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	if deps.Tokens == nil {
		return r
	}

	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware(deps.Tokens))
	auth.Use(middlewares.RequireRole(models.RoleAdmin, models.RoleStaff))

	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/reservations", reservationCtrl.GetAllReservations)
	auth.GET("/reservations/:reservation_id", reservationCtrl.GetReservationByID)

	admin := auth.Group("")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	admin.POST("/tables/reload", tableCtrl.ReloadTables)

	return r
}
