// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type AdminService struct {
	db           *gorm.DB
	transactions *TransactionService
	logger       logrus.FieldLogger
	now          func() time.Time
}

type AdminDashboardStats struct {
	TotalUsers           int64           `json:"total_users"`
	ActiveUsers          int64           `json:"active_users"`
	NewUsersThisMonth    int64           `json:"new_users_this_month"`
	Farmers              int64           `json:"farmers"`
	Businesses           int64           `json:"businesses"`
	TotalProducts        int64           `json:"total_products"`
	TotalTransactions    int64           `json:"total_transactions"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	MonthlyRevenue       decimal.Decimal `json:"monthly_revenue"`
	OutstandingCredit    decimal.Decimal `json:"outstanding_credit"`
	PendingCredit        int64           `json:"pending_credit_transactions"`
	PendingVerifications int64           `json:"pending_verifications"`
	UserGrowth           float64         `json:"user_growth"`
	RevenueGrowth        float64         `json:"revenue_growth"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role *models.UserRole `json:"role,omitempty"`
}

type AdminTransactionFilter struct {
	utils.PaginationParams
	PaymentType   *models.PaymentType   `json:"payment_type,omitempty"`
	PaymentMethod *models.PaymentMethod `json:"payment_method,omitempty"`
	BuyerID       *uuid.UUID            `json:"buyer_id,omitempty"`
	SellerID      *uuid.UUID            `json:"seller_id,omitempty"`
	AmountMin     *decimal.Decimal      `json:"amount_min,omitempty"`
	AmountMax     *decimal.Decimal      `json:"amount_max,omitempty"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=active suspended banned"`
	Reason string            `json:"reason" validate:"omitempty,max=500"`
}

func NewAdminService(db *gorm.DB, transactions *TransactionService, logger logrus.FieldLogger) *AdminService {
	return &AdminService{
		db:           db,
		transactions: transactions,
		logger:       logger,
		now:          time.Now,
	}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// User statistics
	db.Model(&models.User{}).Count(&stats.TotalUsers)
	db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)
	db.Model(&models.User{}).Where("role = ?", models.UserRoleFarmer).Count(&stats.Farmers)
	db.Model(&models.User{}).Where("role = ?", models.UserRoleBusiness).Count(&stats.Businesses)

	db.Model(&models.Product{}).Where("status = ?", models.ProductStatusActive).Count(&stats.TotalProducts)
	db.Model(&models.Transaction{}).Count(&stats.TotalTransactions)

	// Revenue statistics
	if err := db.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusCompleted).
		Select("COALESCE(SUM(final_amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	db.Model(&models.Transaction{}).
		Where("status = ? AND processed_at >= ?", models.TransactionStatusCompleted, monthStart).
		Select("COALESCE(SUM(final_amount), 0)").Scan(&stats.MonthlyRevenue)

	// Credit statistics
	db.Model(&models.CreditLimit{}).Select("COALESCE(SUM(used_credit), 0)").Scan(&stats.OutstandingCredit)
	db.Model(&models.Transaction{}).
		Where("status = ? AND payment_type = ?", models.TransactionStatusPending, models.PaymentTypeCredit).
		Count(&stats.PendingCredit)
	db.Model(&models.VerificationDocument{}).
		Where("status = ?", models.VerificationStatusPending).
		Count(&stats.PendingVerifications)

	// Growth calculations
	var lastMonthUsers int64
	db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers)

	lastMonthRevenue := decimal.Zero
	db.Model(&models.Transaction{}).
		Where("status = ? AND processed_at >= ? AND processed_at < ?",
			models.TransactionStatusCompleted, lastMonthStart, monthStart).
		Select("COALESCE(SUM(final_amount), 0)").Scan(&lastMonthRevenue)

	if lastMonthUsers > 0 {
		stats.UserGrowth = float64(stats.NewUsersThisMonth-lastMonthUsers) / float64(lastMonthUsers) * 100
	}
	if lastMonthRevenue.IsPositive() {
		stats.RevenueGrowth = stats.MonthlyRevenue.Sub(lastMonthRevenue).
			Div(lastMonthRevenue).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			InexactFloat64()
	}

	return stats, nil
}

// User Management
func (s *AdminService) GetUsers(ctx context.Context, filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}
	query = utils.ApplyDateRange(query, "created_at", filter.PaginationParams)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "username", "email", "last_login_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserStatus(ctx context.Context, userID, adminID uuid.UUID, req *UpdateUserStatusRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if userID == adminID {
		return ErrForbidden
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	oldStatus := user.Status
	if err := db.Model(&user).Update("status", req.Status).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	go s.createAuditLog(context.WithoutCancel(ctx), adminID, "UPDATE_USER_STATUS", "user", &userID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": req.Status, "reason": req.Reason})

	return nil
}

// Transaction Management
func (s *AdminService) GetTransactions(ctx context.Context, filter AdminTransactionFilter) ([]models.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{})

	if filter.PaymentType != nil {
		query = query.Where("payment_type = ?", *filter.PaymentType)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *filter.PaymentMethod)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.AmountMin != nil {
		query = query.Where("final_amount >= ?", *filter.AmountMin)
	}
	if filter.AmountMax != nil {
		query = query.Where("final_amount <= ?", *filter.AmountMax)
	}
	if filter.Search != "" {
		query = query.Where("code ILIKE ?", "%"+filter.Search+"%")
	}
	query = utils.ApplyDateRange(query, "created_at", filter.PaginationParams)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "final_amount", "status", "processed_at", "due_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var transactions []models.Transaction
	if err := query.Preload("Buyer").Preload("Seller").Preload("Product").Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

func (s *AdminService) ProcessRefund(ctx context.Context, transactionID, adminID uuid.UUID, req *RefundRequest) (*models.Transaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	txn, err := s.transactions.Refund(ctx, transactionID, req)
	if err != nil {
		return nil, err
	}

	go s.createAuditLog(context.WithoutCancel(ctx), adminID, "PROCESS_REFUND", "transaction", &transactionID,
		map[string]interface{}{"status": models.TransactionStatusCompleted},
		map[string]interface{}{"status": models.TransactionStatusRefunded, "reason": req.Reason})

	return txn, nil
}

// RecordReview keeps an audit trail of verification decisions taken by admins.
func (s *AdminService) RecordReview(ctx context.Context, adminID uuid.UUID, doc *models.VerificationDocument) {
	go s.createAuditLog(context.WithoutCancel(ctx), adminID, "REVIEW_VERIFICATION", "verification_document", &doc.ID,
		map[string]interface{}{"status": models.VerificationStatusPending},
		map[string]interface{}{"status": doc.Status, "reason": doc.RejectionReason})
}

func (s *AdminService) GetAuditLogs(ctx context.Context, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if params.Search != "" {
		query = query.Where("action = ? OR resource_type = ?", strings.ToUpper(params.Search), params.Search)
	}
	query = utils.ApplyDateRange(query, "created_at", params)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "action"})
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Preload("User").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

// Analytics and Reporting
func (s *AdminService) GetAnalytics(ctx context.Context, startDate, endDate time.Time, metrics []string) (map[string]interface{}, error) {
	db := s.db.WithContext(ctx)
	analytics := make(map[string]interface{})

	for _, metric := range metrics {
		switch metric {
		case "user_registrations":
			var count int64
			db.Model(&models.User{}).
				Where("created_at BETWEEN ? AND ?", startDate, endDate).
				Count(&count)
			analytics[metric] = count

		case "credit_sales":
			var count int64
			db.Model(&models.Transaction{}).
				Where("payment_type = ? AND status = ? AND created_at BETWEEN ? AND ?",
					models.PaymentTypeCredit, models.TransactionStatusCompleted, startDate, endDate).
				Count(&count)
			analytics[metric] = count

		case "immediate_sales":
			var count int64
			db.Model(&models.Transaction{}).
				Where("payment_type = ? AND status = ? AND created_at BETWEEN ? AND ?",
					models.PaymentTypeImmediate, models.TransactionStatusCompleted, startDate, endDate).
				Count(&count)
			analytics[metric] = count

		case "interest_earned":
			interest := decimal.Zero
			db.Model(&models.Transaction{}).
				Where("status = ? AND created_at BETWEEN ? AND ?",
					models.TransactionStatusCompleted, startDate, endDate).
				Select("COALESCE(SUM(interest_amount), 0)").Scan(&interest)
			analytics[metric] = interest

		case "revenue":
			revenue := decimal.Zero
			db.Model(&models.Transaction{}).
				Where("status = ? AND created_at BETWEEN ? AND ?",
					models.TransactionStatusCompleted, startDate, endDate).
				Select("COALESCE(SUM(final_amount), 0)").Scan(&revenue)
			analytics[metric] = revenue
		}
	}

	return analytics, nil
}

// Helper methods
func (s *AdminService) createAuditLog(ctx context.Context, userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}

	if err := s.db.WithContext(ctx).Create(auditLog).Error; err != nil {
		s.logger.WithError(err).WithField("action", action).Error("Failed to write audit log")
	}
}
