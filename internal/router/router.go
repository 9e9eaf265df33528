// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/handlers"
	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/middleware"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

// Services are the application services the HTTP layer is built on.
type Services struct {
	Auth          *services.AuthService
	Products      *services.ProductService
	Storage       *services.StorageService
	Checkout      *services.CheckoutService
	Transactions  *services.TransactionService
	Pricing       *services.PricingService
	Credit        *services.CreditService
	Verifications *services.VerificationService
	Admin         *services.AdminService
}

func Initialize(db *gorm.DB, cfg *config.Config, svc *Services, logger logrus.FieldLogger) *gin.Engine {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	productHandler := handlers.NewProductHandler(svc.Products, svc.Storage)
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout, cfg.Checkout.MaxDocumentBytes)
	paymentHandler := handlers.NewPaymentHandler(svc.Transactions)
	pricingHandler := handlers.NewPricingHandler(svc.Pricing)
	creditHandler := handlers.NewCreditHandler(svc.Credit)
	verificationHandler := handlers.NewVerificationHandler(svc.Verifications, svc.Admin)
	adminHandler := handlers.NewAdminHandler(svc.Admin, svc.Verifications)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db, logger))

	r.GET("/health", healthHandler(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
			auth.PUT("/me", middleware.AuthRequired(), authHandler.UpdateProfile)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/popular", productHandler.GetPopularProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			// Seller routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired(), middleware.SellerRequired())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
				protected.POST("/upload-images", productHandler.UploadProductImages)
			}
		}

		// Checkout routes
		checkoutRoutes := v1.Group("/checkout")
		checkoutRoutes.Use(middleware.AuthRequired())
		{
			checkoutRoutes.POST("", checkoutHandler.Start)
			checkoutRoutes.GET("/:id", checkoutHandler.Get)
			checkoutRoutes.PUT("/:id/quantity", checkoutHandler.UpdateQuantity)
			checkoutRoutes.PUT("/:id/payment", checkoutHandler.SelectPayment)
			checkoutRoutes.PUT("/:id/term", checkoutHandler.SelectTerm)
			checkoutRoutes.POST("/:id/document", checkoutHandler.AttachDocument)
			checkoutRoutes.DELETE("/:id/document", checkoutHandler.RemoveDocument)
			checkoutRoutes.POST("/:id/back", checkoutHandler.Back)
			checkoutRoutes.POST("/:id/retry", checkoutHandler.Retry)
			checkoutRoutes.DELETE("/:id", checkoutHandler.Close)

			// Submissions reach the payment store
			submit := checkoutRoutes.Group("")
			submit.Use(middleware.PaymentRateLimit())
			{
				submit.POST("/:id/proceed", checkoutHandler.Proceed)
				submit.POST("/:id/card", checkoutHandler.SubmitCard)
				submit.POST("/:id/confirm-transfer", checkoutHandler.ConfirmTransfer)
			}
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.GET("/history", paymentHandler.GetPaymentHistory)
			payments.GET("/:id", paymentHandler.GetTransaction)
		}

		// Pricing routes
		pricing := v1.Group("/pricing")
		{
			pricing.GET("/quote", pricingHandler.GetQuote)

			rules := pricing.Group("/rules")
			rules.Use(middleware.AuthRequired(), middleware.SellerRequired())
			{
				rules.GET("", pricingHandler.GetRules)
				rules.POST("", pricingHandler.CreateRule)
			}
		}

		// Credit routes
		credit := v1.Group("/credit")
		{
			credit.GET("/interest", creditHandler.CalculateInterest)
			credit.GET("/sellers/:seller_id", middleware.AuthRequired(), creditHandler.GetSellerCredit)

			seller := credit.Group("")
			seller.Use(middleware.AuthRequired(), middleware.SellerRequired())
			{
				seller.PUT("/limits", creditHandler.SetCreditLimit)
				seller.GET("/customers", creditHandler.GetCustomers)
				seller.PUT("/terms", creditHandler.UpdateTerms)
			}
		}

		// Verification routes
		verifications := v1.Group("/verifications")
		verifications.Use(middleware.AuthRequired())
		{
			verifications.GET("/:id", verificationHandler.GetVerification)

			reviewers := verifications.Group("")
			reviewers.Use(middleware.SellerRequired())
			{
				reviewers.GET("", verificationHandler.GetVerifications)
				reviewers.PUT("/:id/approve", verificationHandler.Approve)
				reviewers.PUT("/:id/reject", verificationHandler.Reject)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/analytics", adminHandler.GetAnalytics)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
			}

			adminTransactions := admin.Group("/transactions")
			{
				adminTransactions.GET("", adminHandler.GetTransactions)
				adminTransactions.POST("/:id/refund", adminHandler.ProcessRefund)
			}

			admin.GET("/verifications", adminHandler.GetVerifications)
		}

		// Category routes
		categories := v1.Group("/categories")
		{
			categories.GET("", getCategoriesHandler)
		}
	}

	// Locally stored uploads
	if cfg.AWS.AccessKeyID == "" {
		r.Static("/uploads", cfg.AWS.LocalUploadDir)
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	}
}

func getCategoriesHandler(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	categories := make([]gin.H, 0, len(models.ProductCategories))
	for _, category := range models.ProductCategories {
		categories = append(categories, gin.H{
			"id":   category,
			"name": i18n.T(lang, "category."+category),
		})
	}

	utils.SuccessResponse(c, gin.H{
		"categories": categories,
	})
}
