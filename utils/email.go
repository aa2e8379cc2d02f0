// utils/email.go
package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/keighl/postmark"

	"go-storefront/models"
)

// EmailService sends transactional mail through Postmark. With no API
// token configured the service is disabled and every send is a no-op.
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService builds the service from POSTMARK_API_TOKEN and
// EMAIL_SENDER.
func NewEmailService() *EmailService {
	apiToken := os.Getenv("POSTMARK_API_TOKEN")
	if apiToken == "" {
		log.Println("POSTMARK_API_TOKEN not set; email disabled")
		return &EmailService{}
	}
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: os.Getenv("EMAIL_SENDER"),
	}
}

// SendEmail sends a basic email to the specified recipient.
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es.client == nil {
		return nil
	}
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOrderConfirmationEmail notifies the customer that their order was
// placed.
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order models.Order) error {
	subject := "Order Confirmation"
	htmlContent := fmt.Sprintf(
		"<strong>Thank you for your purchase!</strong><br><br>Your order (ID: %s) has been placed successfully.<br><br>Items Total: <strong>%.2f %s</strong><br>Tax: <strong>%.2f</strong><br>Shipping: <strong>%.2f</strong><br>Grand Total: <strong>%.2f %s</strong><br>Payment Method: <strong>%s</strong>",
		order.ID.Hex(),
		order.Pricing.ItemsTotal, order.Pricing.Currency,
		order.Pricing.Tax,
		order.Pricing.Shipping,
		order.Pricing.GrandTotal, order.Pricing.Currency,
		order.PaymentMethod,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendPaymentReceiptEmail notifies the customer that their order was marked
// paid.
func (es *EmailService) SendPaymentReceiptEmail(toEmail string, order models.Order) error {
	subject := "Payment Received"
	htmlContent := fmt.Sprintf(
		"<strong>We have received your payment.</strong><br><br>Order ID: %s<br>Amount: <strong>%.2f %s</strong>",
		order.ID.Hex(),
		order.Pricing.GrandTotal, order.Pricing.Currency,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
