package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/config"
	"github.com/frontdesk/hotel-pms/internal/database"
	"github.com/frontdesk/hotel-pms/internal/handler"
	"github.com/frontdesk/hotel-pms/internal/middleware"
	"github.com/frontdesk/hotel-pms/internal/queue"
	"github.com/frontdesk/hotel-pms/internal/repository"
	"github.com/frontdesk/hotel-pms/internal/router"
	"github.com/frontdesk/hotel-pms/internal/service"
)

func main() {
	// .env is optional; in production everything comes from the real
	// environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	roomTypes := repository.NewRoomTypeRepo(db)
	guests := repository.NewGuestRepo(db)
	avail := repository.NewAvailabilityRepo(db)
	reservations := repository.NewReservationRepo(db)
	folios := repository.NewFolioRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	groups := repository.NewGroupRepo(db)
	reasons := repository.NewReasonCodeRepo(db)

	// Night audit service: the ticker posts the nightly room charge for
	// every in-house stay once per hotel day, and the manager can
	// trigger the same run by hand.
	audit := service.NewNightAudit(reservations, roomTypes, folios)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	availH := handler.NewAvailabilityHandler(avail, rooms)
	resH := handler.NewReservationHandler(reservations, rooms, roomTypes, guests, avail, folios, groups)
	folioH := handler.NewFolioHandler(folios, reasons)
	invH := handler.NewInvoiceHandler(folios, invoices)
	groupH := handler.NewGroupHandler(groups, reservations, rooms, roomTypes, guests, avail, folios)
	hkH := handler.NewHousekeepingHandler(rooms)
	propH := handler.NewPropertyHandler(rooms, roomTypes, guests, reasons)
	auditH := handler.NewNightAuditHandler(audit)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAvailability(e, availH, cfg.JWTSecret, cache)
	router.RegisterFrontOffice(e, resH, folioH, invH, groupH, cfg.JWTSecret)
	router.RegisterHousekeeping(e, hkH, cfg.JWTSecret)
	router.RegisterManager(e, propH, folioH, auditH, cfg.JWTSecret)

	// Background workers: the front-office event consumer and the
	// nightly audit ticker.  Both log and retry on their own; neither
	// blocks startup.
	go func() {
		if err := queue.StartFrontOfficeConsumer(); err != nil {
			log.Printf("front-office consumer stopped: %v", err)
		}
	}()
	go audit.Start(context.Background(), cfg.AuditHour)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
