package server

import (
	"restaurant-backend/internal/admin"
	"restaurant-backend/internal/alert"
	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/config"
	"restaurant-backend/internal/dashboard"
	"restaurant-backend/internal/expense"
	"restaurant-backend/internal/inventory"
	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/middleware"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/order"
	"restaurant-backend/internal/payroll"
	"restaurant-backend/internal/reservation"
	"restaurant-backend/internal/reward"
	"restaurant-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
)

func registerRoutes(app *fiber.App, cfg *config.Config) {
	api := app.Group("/api", middleware.RateLimit(cfg.RateLimit.APIPerMinute))

	// Public auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", middleware.RateLimit(cfg.RateLimit.LoginPerMinute), auth.LoginHandler(cfg))
	authRoutes.Post("/signup", auth.SignupHandler())
	authRoutes.Post("/register-admin", auth.RegisterAdminHandler())

	// one budget shared by every password reset step
	resetLimit := middleware.RateLimit(cfg.RateLimit.LoginPerMinute)
	authRoutes.Post("/check-email", resetLimit, auth.CheckEmailHandler())
	authRoutes.Post("/forgot-password", resetLimit, auth.ForgotPasswordHandler())
	authRoutes.Post("/verify-reset-code", resetLimit, auth.VerifyResetCodeHandler())
	authRoutes.Post("/reset-password", resetLimit, auth.ResetPasswordHandler())
	authRoutes.Get("/me", auth.JWTMiddleware(cfg), auth.MeHandler())

	// Public catalog
	public := api.Group("/public")
	public.Get("/categories", inventory.PublicCategoriesHandler())
	public.Get("/products", inventory.PublicProductsHandler())
	public.Get("/products/category/:categoryId", inventory.PublicProductsByCategoryHandler())
	public.Get("/subcategories", inventory.PublicSubCategoriesHandler())
	public.Get("/subcategories/category/:categoryId", inventory.PublicSubCategoriesByCategoryHandler())
	public.Get("/rewards", reward.ListActiveRewardsHandler())
	public.Get("/rewards/:id", reward.GetActiveRewardHandler())

	jwt := auth.JWTMiddleware(cfg)

	registerClientRoutes(api.Group("/client", jwt, auth.RequireRole(models.RoleClient)))
	registerEmployeeRoutes(api.Group("/employee", jwt, auth.RequireRole(models.RoleEmployee, models.RoleAdmin)))
	registerAdminRoutes(api.Group("/admin", jwt, auth.RequireRole(models.RoleAdmin)))
}

func registerClientRoutes(client fiber.Router) {
	client.Get("/profile", auth.ProfileHandler())
	client.Put("/change-password", auth.ChangePasswordHandler())

	client.Post("/orders", order.CreateOrderHandler())
	client.Get("/orders", order.ListMyOrdersHandler())
	client.Get("/orders/:id", order.GetMyOrderHandler())
	client.Post("/orders/:id/upload-payment-proof", order.UploadOrderProofHandler())

	client.Post("/deliveries", order.CreateDeliveryHandler())
	client.Get("/deliveries", order.ListMyDeliveriesHandler())
	client.Get("/deliveries/:id", order.GetMyDeliveryHandler())
	client.Post("/deliveries/:id/upload-payment-proof", order.UploadDeliveryProofHandler())

	client.Post("/reservations", reservation.CreateReservationHandler())
	client.Get("/reservations", reservation.ListMyReservationsHandler())

	client.Post("/rewards/redeem", reward.RedeemHandler())
	client.Get("/rewards/redemptions", reward.MyRedemptionsHandler())
}

func registerEmployeeRoutes(emp fiber.Router) {
	emp.Post("/orders", order.CreateOrderHandler())
	emp.Get("/orders", order.ListOrdersHandler())
	emp.Get("/orders/:id", order.GetOrderHandler())
	emp.Put("/orders/:id/status", order.UpdateOrderStatusHandler())

	emp.Post("/deliveries", order.CreateDeliveryHandler())
	emp.Get("/deliveries", order.ListDeliveriesHandler())
	emp.Get("/deliveries/:id", order.GetDeliveryHandler())
	emp.Put("/deliveries/:id/status", order.UpdateDeliveryStatusHandler())

	emp.Get("/unified-orders", order.UnifiedOrdersHandler())

	emp.Get("/reservations", reservation.ListReservationsHandler())
	emp.Get("/reservations/status/:status", reservation.ListByStatusHandler())
	emp.Put("/reservations/:id/confirm", reservation.ConfirmReservationHandler())

	emp.Get("/users", admin.ListUsersHandler())
	emp.Get("/users/:id", admin.GetUserHandler())
}

func registerAdminRoutes(adm fiber.Router) {
	// Catalog
	adm.Get("/categories", inventory.ListCategoriesHandler())
	adm.Post("/categories", inventory.CreateCategoryHandler())
	adm.Get("/categories/:id", inventory.GetCategoryHandler())
	adm.Put("/categories/:id", inventory.UpdateCategoryHandler())
	adm.Delete("/categories/:id", inventory.DeleteCategoryHandler())

	adm.Get("/subcategories", inventory.ListSubCategoriesHandler())
	adm.Post("/subcategories", inventory.CreateSubCategoryHandler())
	adm.Get("/subcategories/category/:categoryId", inventory.ListSubCategoriesByCategoryHandler())
	adm.Get("/subcategories/:id", inventory.GetSubCategoryHandler())
	adm.Put("/subcategories/:id", inventory.UpdateSubCategoryHandler())
	adm.Delete("/subcategories/:id", inventory.DeleteSubCategoryHandler())

	adm.Get("/products", inventory.ListProductsHandler())
	adm.Post("/products", inventory.CreateProductHandler())
	adm.Post("/products/search", inventory.SearchProductsHandler())
	adm.Post("/products/upload-image", inventory.UploadImageHandler())
	adm.Get("/products/category/:categoryId", inventory.ListProductsByCategoryHandler())
	adm.Get("/products/:id", inventory.GetProductHandler())
	adm.Put("/products/:id", inventory.UpdateProductHandler())
	adm.Delete("/products/:id", inventory.DeleteProductHandler())

	// Orders and deliveries
	adm.Get("/orders", order.ListOrdersHandler())
	adm.Get("/orders/pending-payments", order.ListOrdersByPaymentHandler(models.PaymentStatusPending))
	adm.Get("/orders/verified-payments", order.ListOrdersByPaymentHandler(models.PaymentStatusVerified))
	adm.Get("/orders/date/:date", order.ListOrdersByDateHandler())
	adm.Get("/orders/:id", order.GetOrderHandler())
	adm.Put("/orders/:id/status", order.UpdateOrderStatusHandler())
	adm.Post("/orders/:id/verify-payment", order.VerifyOrderPaymentHandler())
	adm.Post("/orders/:id/reject-payment", order.RejectOrderPaymentHandler())

	adm.Get("/deliveries", order.ListDeliveriesHandler())
	adm.Get("/deliveries/pending-payments", order.ListDeliveriesByPaymentHandler(models.PaymentStatusPending))
	adm.Get("/deliveries/verified-payments", order.ListDeliveriesByPaymentHandler(models.PaymentStatusVerified))
	adm.Get("/deliveries/date/:date", order.ListDeliveriesByDateHandler())
	adm.Get("/deliveries/:id", order.GetDeliveryHandler())
	adm.Put("/deliveries/:id/status", order.UpdateDeliveryStatusHandler())
	adm.Post("/deliveries/:id/verify-payment", order.VerifyDeliveryPaymentHandler())
	adm.Post("/deliveries/:id/reject-payment", order.RejectDeliveryPaymentHandler())

	adm.Get("/unified-orders", order.UnifiedOrdersHandler())

	// Reservations
	adm.Get("/reservations", reservation.ListReservationsHandler())
	adm.Get("/reservations/date/:date", reservation.ListByDateHandler())
	adm.Get("/reservations/status/:status", reservation.ListByStatusHandler())
	adm.Get("/reservations/:id", reservation.GetReservationHandler())
	adm.Delete("/reservations/:id", reservation.DeleteReservationHandler())

	// Accounts
	adm.Get("/users", admin.ListUsersHandler())
	adm.Post("/users/search", admin.SearchUsersHandler())
	adm.Get("/users/:id", admin.GetUserHandler())
	adm.Put("/users/:id", admin.UpdateUserHandler())
	adm.Delete("/users/:id", admin.DeleteUserHandler())

	adm.Get("/employees", admin.ListEmployeesHandler())
	adm.Post("/employees", admin.CreateEmployeeHandler())
	adm.Get("/employees/salary-payments", payroll.ListPaymentsHandler())
	adm.Get("/employees/:id", admin.GetEmployeeHandler())
	adm.Put("/employees/:id/salary", admin.UpdateSalaryConfigHandler())
	adm.Get("/employees/:id/salary-payments", payroll.ListEmployeePaymentsHandler())
	adm.Delete("/employees/:id", admin.DeleteEmployeeHandler())

	adm.Post("/admins", admin.CreateAdminHandler())

	// Expenses
	adm.Get("/expenses", expense.ListExpensesHandler())
	adm.Post("/expenses", expense.CreateExpenseHandler())
	adm.Post("/expenses/search", expense.SearchExpensesHandler())
	adm.Get("/expenses/summary/monthly", expense.MonthlySummaryHandler())
	adm.Get("/expenses/category/:category", expense.ListByCategoryHandler())
	adm.Get("/expenses/:id", expense.GetExpenseHandler())
	adm.Put("/expenses/:id", expense.UpdateExpenseHandler())
	adm.Delete("/expenses/:id", expense.DeleteExpenseHandler())
	adm.Post("/expenses/:id/receipt", expense.UploadReceiptHandler())

	// Balance ledger, alerts and payroll
	bal := adm.Group("/balance")
	bal.Get("/", ledger.GetBalanceHandler())
	bal.Post("/initialize", ledger.InitializeHandler())
	bal.Put("/threshold", ledger.UpdateThresholdHandler())
	bal.Post("/adjust", ledger.AdjustHandler())
	bal.Post("/recalculate", ledger.RecalculateHandler())
	bal.Post("/migrate-historical-data", ledger.MigrateHistoricalDataHandler())
	bal.Get("/transactions", ledger.ListTransactionsHandler())
	bal.Delete("/transactions/:id", ledger.DeleteTransactionHandler())
	bal.Get("/summary/monthly", ledger.MonthlySummaryHandler())

	bal.Get("/alerts", alert.ListAlertsHandler())
	bal.Post("/alerts/check", alert.CheckAlertsHandler())
	bal.Put("/alerts/:id/resolve", alert.ResolveAlertHandler())

	bal.Get("/pending-payments", payroll.PendingPaymentsHandler())
	bal.Post("/process-pending", payroll.ProcessPendingHandler())
	bal.Post("/process-salary-payments", payroll.ProcessSalaryPaymentsHandler())

	adm.Get("/dashboard/balance-chart", dashboard.BalanceChartHandler())

	// Rewards
	adm.Get("/rewards", reward.ListRewardsHandler())
	adm.Post("/rewards", reward.CreateRewardHandler())
	adm.Post("/rewards/upload-image", reward.UploadImageHandler())
	adm.Get("/rewards/redemptions", reward.ListRedemptionsHandler())
	adm.Get("/rewards/:id", reward.GetRewardHandler())
	adm.Put("/rewards/:id", reward.UpdateRewardHandler())
	adm.Delete("/rewards/:id", reward.DeleteRewardHandler())

	// Statistics and reports
	adm.Get("/statistics/financial", statistics.FinancialHandler())
	adm.Get("/statistics/business", statistics.BusinessHandler())
	adm.Post("/monthly-reports", admin.CreateMonthlyReportHandler())
	adm.Get("/monthly-reports", admin.ListMonthlyReportsHandler())
	adm.Get("/monthly-reports/:id", admin.GetMonthlyReportHandler())

	// Audit
	adm.Get("/audit-logs", audit.ListAuditLogsHandler())
	adm.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())
}
