package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "nftlend-backend/internal/adapter/http"
	integrationadp "nftlend-backend/internal/adapter/integration"
	mw "nftlend-backend/internal/adapter/middleware"
	"nftlend-backend/internal/adapter/repository/mysql"
	"nftlend-backend/internal/config"
	domainLoan "nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/infrastructure/cache"
	"nftlend-backend/internal/infrastructure/db"
	loanuc "nftlend-backend/internal/usecase/loan"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	repo := mysql.NewLoanRepository(gdb)
	guow := mysql.NewGormUoW(gdb)

	custody := integrationadp.NewCustodyClient(cfg.CustodyURL)
	pool := integrationadp.NewPoolClient(cfg.PoolURL, cfg.TokenURL)
	oracle := integrationadp.NewOracleClient(cfg.OracleURL)

	params := domainLoan.Params{
		CollateralRatioBps:     uint32(cfg.CollateralRatioBps),
		MissedPaymentThreshold: uint32(cfg.MissedPaymentThreshold),
		PaymentInterval:        cfg.PaymentInterval(),
		PoolAccount:            cfg.PoolAccount,
	}
	uc := loanuc.NewUsecase(repo, guow, custody, pool, oracle, params)

	h := httpadp.NewHandler()
	lh := httpadp.NewLoanHandler(uc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	e.Use(mw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	// routes
	e.GET("/health", h.Health)
	e.POST("/loans", lh.Originate)
	e.GET("/loans/:loan_id", lh.GetLoan)
	e.GET("/borrowers/:borrower_id/loans", lh.ListBorrowerLoans)
	e.POST("/loans/:loan_id/payments", lh.MakePayment)
	e.POST("/loans/:loan_id/check-default", lh.CheckDefault)
	e.POST("/loans/:loan_id/liquidate", lh.Liquidate)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
