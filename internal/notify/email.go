package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/simvol2030/project-kliee-sub000/internal/domain"
)

// EmailConfig carries the delivery credentials. An empty APIKey disables the
// channel entirely; checkout must not depend on mail being configured.
type EmailConfig struct {
	APIKey     string
	FromEmail  string
	FromName   string
	AdminEmail string
}

type SendGridEmail struct {
	cfg EmailConfig
}

func NewSendGridEmail(cfg EmailConfig) *SendGridEmail {
	if cfg.FromName == "" {
		cfg.FromName = "K-LIÉE"
	}
	return &SendGridEmail{cfg: cfg}
}

func (e *SendGridEmail) Enabled() bool {
	return e.cfg.APIKey != "" && e.cfg.FromEmail != ""
}

func (e *SendGridEmail) SendCustomerConfirmation(ctx context.Context, n domain.OrderNotification) error {
	subject := customerSubject(n.OrderNumber, n.Lang)
	body := customerBody(n)
	return e.send(ctx, n.CustomerEmail, subject, body)
}

func (e *SendGridEmail) SendAdminAlert(ctx context.Context, n domain.OrderNotification) error {
	if e.cfg.AdminEmail == "" {
		return fmt.Errorf("admin email not configured")
	}
	return e.send(ctx, e.cfg.AdminEmail, adminSubject(n), adminBody(n))
}

func (e *SendGridEmail) send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(e.cfg.FromName, e.cfg.FromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body,
		fmt.Sprintf("<pre>%s</pre>", body))

	client := sendgrid.NewSendClient(e.cfg.APIKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}

func adminSubject(n domain.OrderNotification) string {
	return fmt.Sprintf("New order %s: %s %d", n.OrderNumber, n.CurrencyCode, n.TotalLocal)
}

func customerSubject(orderNumber, lang string) string {
	switch lang {
	case "ru":
		return fmt.Sprintf("Заказ %s подтверждён - K-LIÉE", orderNumber)
	case "es":
		return fmt.Sprintf("Pedido %s confirmado - K-LIÉE", orderNumber)
	case "zh":
		return fmt.Sprintf("订单 %s 已确认 - K-LIÉE", orderNumber)
	default:
		return fmt.Sprintf("Order %s confirmed - K-LIÉE", orderNumber)
	}
}

type emailStrings struct {
	greeting  string
	thankYou  string
	details   string
	shipping  string
	total     string
	nextSteps string
}

func stringsFor(lang string) emailStrings {
	switch lang {
	case "ru":
		return emailStrings{
			greeting:  "Здравствуйте",
			thankYou:  "Спасибо за ваш заказ!",
			details:   "Детали заказа",
			shipping:  "Доставка",
			total:     "Итого",
			nextSteps: "Мы свяжемся с вами в ближайшее время для подтверждения деталей доставки и оплаты.",
		}
	case "es":
		return emailStrings{
			greeting:  "Hola",
			thankYou:  "¡Gracias por su pedido!",
			details:   "Detalles del pedido",
			shipping:  "Envío",
			total:     "Total",
			nextSteps: "Nos pondremos en contacto con usted pronto para confirmar los detalles de envío y pago.",
		}
	case "zh":
		return emailStrings{
			greeting:  "您好",
			thankYou:  "感谢您的订单！",
			details:   "订单详情",
			shipping:  "配送",
			total:     "总计",
			nextSteps: "我们将尽快与您联系，确认配送和付款详情。",
		}
	default:
		return emailStrings{
			greeting:  "Hello",
			thankYou:  "Thank you for your order!",
			details:   "Order details",
			shipping:  "Shipping to",
			total:     "Total",
			nextSteps: "We will contact you shortly to confirm shipping and payment details.",
		}
	}
}

func customerBody(n domain.OrderNotification) string {
	t := stringsFor(n.Lang)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s,\n\n%s\n\n", t.greeting, n.CustomerName, t.thankYou)
	fmt.Fprintf(&b, "%s %s:\n", t.details, n.OrderNumber)
	for _, item := range n.Items {
		fmt.Fprintf(&b, "  - %s: €%d\n", item.Title, item.PriceEUR)
	}
	fmt.Fprintf(&b, "\n%s: €%d", t.total, n.SubtotalEUR)
	if n.CurrencyCode != domain.BaseCurrency {
		fmt.Fprintf(&b, " (%s %d)", n.CurrencyCode, n.TotalLocal)
	}
	fmt.Fprintf(&b, "\n%s: %s, %s\n\n%s\n", t.shipping, n.ShippingCity, n.ShippingCountry, t.nextSteps)
	return b.String()
}

func adminBody(n domain.OrderNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n\n", n.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s <%s>", n.CustomerName, n.CustomerEmail)
	if n.CustomerPhone != "" {
		fmt.Fprintf(&b, " (%s)", n.CustomerPhone)
	}
	b.WriteString("\n\nItems:\n")
	for _, item := range n.Items {
		fmt.Fprintf(&b, "  - %s: €%d\n", item.Title, item.PriceEUR)
	}
	fmt.Fprintf(&b, "\nSubtotal: €%d\nTotal: %s %d\n\n", n.SubtotalEUR, n.CurrencyCode, n.TotalLocal)
	fmt.Fprintf(&b, "Ship to: %s, %s, %s\n", n.ShippingAddress, n.ShippingCity, n.ShippingCountry)
	if n.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", n.Note)
	}
	fmt.Fprintf(&b, "Language: %s\n", n.Lang)
	return b.String()
}
