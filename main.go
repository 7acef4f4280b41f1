package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/config"
	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/router"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLoggerWithLevel(cfg.LogLevel)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load table inventory: %v", err)
	}
	inventory, err := services.LoadInventory(tables)
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid table inventory: %v", err)
	}

	if seeded, err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Printf("Error seeding admin: %v", err)
	} else if seeded {
		utils.InfoLogger.Printf("Admin account %s created", cfg.AdminEmail)
	}

	normalizer, err := services.NewSlotNormalizer(cfg.Timezone, cfg.SlotDuration)
	if err != nil {
		utils.ErrorLogger.Fatal(err)
	}

	reservations := services.NewReservationService(db, inventory, normalizer, services.RealClock{}, utils.InfoLogger, services.ReservationOptions{
		MaxAlternatives: cfg.MaxAlternatives,
		SearchRadius:    cfg.SearchRadiusSteps(),
		DefaultGuests:   cfg.DefaultGuests,
	})

	// writes the tables rows only after the file is checked against the
	// confirmed reservations already stored
	if err := reservations.ReloadInventory(context.Background(), tables); err != nil {
		utils.ErrorLogger.Fatalf("Invalid table inventory: %v", err)
	}
	utils.InfoLogger.Printf("Loaded %d tables from %s", inventory.Len(), cfg.TablesFile)

	var tokens *utils.TokenManager
	if cfg.JWTSecret != "" {
		tokens, err = utils.NewTokenManager(cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			utils.ErrorLogger.Fatal(err)
		}
	} else {
		utils.InfoLogger.Warn("JWT_SECRET not set, admin routes are disabled")
	}

	r := router.SetupRouter(router.Deps{
		DB:                 db,
		Reservations:       reservations,
		Tokens:             tokens,
		TablesFile:         cfg.TablesFile,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	sig := <-stop
	utils.InfoLogger.Printf("Stopping server (%s)", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Failed to stop server: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	utils.InfoLogger.Println("Server stopped")
}
