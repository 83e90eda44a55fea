package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"sacco_app/internal/handlers"
	"sacco_app/internal/middleware"
	"sacco_app/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional: without it there is no schedule caching and no
	// per-loan repayment lock
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	} else {
		log.Println("Warning: REDIS_URL not set, caching and loan locks disabled")
	}

	// Create Echo instance
	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	// Initialize handlers
	memberHandler := handlers.NewMemberHandler(db)
	branchHandler := handlers.NewBranchHandler(db)
	productHandler := handlers.NewLoanProductHandler(db)
	loanHandler := handlers.NewLoanHandler(db, cache)
	defaultHandler := handlers.NewLoanDefaultHandler(db)

	api := e.Group("/api")
	api.Use(middleware.RequestContext())

	// Member routes
	api.GET("/members", memberHandler.ListMembers)
	api.POST("/members", memberHandler.StoreMember)
	api.GET("/members/:id", memberHandler.GetMember)
	api.PUT("/members/:id", memberHandler.UpdateMember)
	api.DELETE("/members/:id", memberHandler.DeleteMember)

	// Branch routes
	api.GET("/branches", branchHandler.ListBranches)
	api.POST("/branches", branchHandler.StoreBranch)
	api.GET("/branches/:id", branchHandler.GetBranch)
	api.PUT("/branches/:id", branchHandler.UpdateBranch)

	// Loan product routes
	api.GET("/loan-products", productHandler.ListLoanProducts)
	api.POST("/loan-products", productHandler.StoreLoanProduct)
	api.GET("/loan-products/:id", productHandler.GetLoanProduct)
	api.PUT("/loan-products/:id", productHandler.UpdateLoanProduct)

	// Loan lifecycle routes
	api.GET("/loans", loanHandler.ListLoans)
	api.POST("/loans", loanHandler.StoreLoan)
	api.GET("/loans/:id", loanHandler.GetLoan)
	api.POST("/loans/:id/disburse", loanHandler.DisburseLoan)
	api.POST("/loans/:id/repayments", loanHandler.RepayLoan)
	api.GET("/loans/:id/repayments", loanHandler.ListRepayments)
	api.GET("/loans/:id/schedule", loanHandler.GetSchedule)
	api.POST("/loans/:id/restructure", loanHandler.RestructureLoan)
	api.POST("/loans/:id/backfill", loanHandler.BackfillLoan)

	// Delinquency routes
	api.GET("/loan-defaults", defaultHandler.ListDefaults)
	api.POST("/loan-defaults/sweep", defaultHandler.TriggerSweep)
	api.POST("/loan-defaults/:id/write-off", defaultHandler.WriteOffDefault)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
