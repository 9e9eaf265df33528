// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/models"
)

const (
	NotificationPurchase              = "purchase_confirmation"
	NotificationSale                  = "sale_notification"
	NotificationVerificationSubmitted = "verification_submitted"
	NotificationVerificationReviewed  = "verification_reviewed"
	NotificationRefund                = "refund_notification"
	NotificationPaymentFailed         = "payment_failed"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
	logger logrus.FieldLogger
	send   func(to, subject, body string) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

var emailTemplates = map[string]EmailTemplate{
	NotificationPurchase: {
		Subject: "Order confirmed - {{.Code}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you, {{.Name}}!</h2>
	<p>Your order {{.Code}} for {{.Product}} is confirmed.</p>
	<p>Amount: {{.Amount}}{{if .DueAt}}, due on {{.DueAt}}{{end}}</p>
	<a href="{{.URL}}">View order</a>
	<p>FarmLink</p>
</body>
</html>`,
	},
	NotificationSale: {
		Subject: "New sale - {{.Code}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>{{.Counterparty}} bought {{.Product}} ({{.Code}}) for {{.Amount}}.</p>
	<a href="{{.URL}}">View sale</a>
</body>
</html>`,
	},
	NotificationVerificationSubmitted: {
		Subject: "Farming certificate to review - {{.Code}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>{{.Counterparty}} submitted a farming certificate for the deferred payment {{.Code}}.</p>
	<a href="{{.URL}}">Review document</a>
</body>
</html>`,
	},
	NotificationVerificationReviewed: {
		Subject: "Your farming certificate was {{.Status}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>Your farming certificate for {{.Code}} was {{.Status}}.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
</body>
</html>`,
	},
	NotificationRefund: {
		Subject: "Refund processed - {{.Code}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>Your payment {{.Code}} of {{.Amount}} was refunded.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
</body>
</html>`,
	},
	NotificationPaymentFailed: {
		Subject: "Payment failed - {{.Code}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>The payment for {{.Code}} could not be completed: {{.Reason}}</p>
	<p>You can try again from the product page.</p>
</body>
</html>`,
	},
}

func NewNotificationService(db *gorm.DB, config *config.Config, logger logrus.FieldLogger) *NotificationService {
	s := &NotificationService{
		db:     db,
		config: config,
		logger: logger,
	}
	s.send = s.sendEmail
	return s
}

// NotifyTransactionCompleted tells the buyer and the seller about a completed payment.
func (s *NotificationService) NotifyTransactionCompleted(ctx context.Context, txn *models.Transaction) {
	data := s.transactionData(txn)
	if txn.DueAt != nil {
		data["DueAt"] = txn.DueAt.Format("2006-01-02")
	}

	s.notify(ctx, &txn.Buyer, NotificationPurchase, data, "transaction", txn.ID)

	data["Counterparty"] = txn.Buyer.Name()
	data["URL"] = fmt.Sprintf("%s/sales/%s", s.config.Frontend.BaseURL, txn.ID)
	s.notify(ctx, &txn.Seller, NotificationSale, data, "transaction", txn.ID)
}

func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, txn *models.Transaction) {
	data := s.transactionData(txn)
	data["Reason"] = txn.FailureReason
	s.notify(ctx, &txn.Buyer, NotificationPaymentFailed, data, "transaction", txn.ID)
}

func (s *NotificationService) NotifyRefund(ctx context.Context, txn *models.Transaction) {
	data := s.transactionData(txn)
	data["Reason"] = txn.RefundReason
	s.notify(ctx, &txn.Buyer, NotificationRefund, data, "transaction", txn.ID)
}

// NotifyVerificationSubmitted asks the seller to review a buyer's certificate.
func (s *NotificationService) NotifyVerificationSubmitted(ctx context.Context, doc *models.VerificationDocument, txn *models.Transaction) {
	data := s.transactionData(txn)
	data["Counterparty"] = txn.Buyer.Name()
	data["URL"] = fmt.Sprintf("%s/verifications/%s", s.config.Frontend.BaseURL, doc.ID)
	s.notify(ctx, &txn.Seller, NotificationVerificationSubmitted, data, "verification_document", doc.ID)
}

func (s *NotificationService) NotifyVerificationReviewed(ctx context.Context, doc *models.VerificationDocument, code string) {
	data := map[string]interface{}{
		"Name":   doc.Owner.Name(),
		"Code":   code,
		"Status": string(doc.Status),
		"Reason": doc.RejectionReason,
	}
	s.notify(ctx, &doc.Owner, NotificationVerificationReviewed, data, "verification_document", doc.ID)
}

func (s *NotificationService) transactionData(txn *models.Transaction) map[string]interface{} {
	product := ""
	if txn.Product != nil {
		product = txn.Product.Name
	}
	return map[string]interface{}{
		"Name":    txn.Buyer.Name(),
		"Code":    txn.Code,
		"Product": product,
		"Amount":  txn.TotalPayable.StringFixed(2),
		"URL":     fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, txn.ID),
	}
}

// notify stores an in-app notification and emails the recipient. Failures are
// logged; a notification never fails the operation that triggered it.
func (s *NotificationService) notify(ctx context.Context, recipient *models.User, kind string, data map[string]interface{}, resourceType string, resourceID uuid.UUID) {
	if recipient == nil || recipient.ID == uuid.Nil {
		return
	}
	data["Name"] = recipient.Name()

	tmpl := getEmailTemplate(kind)
	subject, err := renderTemplate(tmpl.Subject, data)
	if err != nil {
		s.logger.WithError(err).WithField("type", kind).Error("Failed to render notification subject")
		return
	}
	body, err := renderTemplate(tmpl.Body, data)
	if err != nil {
		s.logger.WithError(err).WithField("type", kind).Error("Failed to render notification body")
		return
	}

	id := resourceID
	notification := &models.Notification{
		Type:                kind,
		Title:               subject,
		Message:             body,
		Recipients:          pq.StringArray{recipient.ID.String()},
		Priority:            "medium",
		Status:              "unread",
		RelatedResourceType: resourceType,
		RelatedResourceID:   &id,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		s.logger.WithError(err).WithField("type", kind).Error("Failed to store notification")
	}

	if recipient.Email == "" {
		return
	}
	if err := s.send(recipient.Email, subject, body); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"type": kind,
			"to":   recipient.Email,
		}).Warn("Failed to send notification email")
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		s.logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Debug("Email not configured, skipping")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func getEmailTemplate(templateType string) EmailTemplate {
	if tmpl, exists := emailTemplates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
