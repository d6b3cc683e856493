package notification

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/phone"
)

const subjectAssignmentFmt = "New job assigned: %s at property %s"

// SMTPNotifier delivers assignment emails to contractors over SMTP via
// go-mail.
type SMTPNotifier struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPNotifier(host string, port int, username, password, fromEmail, fromName string) *SMTPNotifier {
	return &SMTPNotifier{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (n *SMTPNotifier) NotifyAssigned(ctx context.Context, item domain.WorkItem, contractor domain.Contractor, estimatedCostCents, finalQuoteCents int64) error {
	if contractor.Email == "" {
		return fmt.Errorf("contractor %s has no email address", contractor.ID)
	}

	contractorPhone := phone.NormalizeE164(contractor.Phone)

	content, err := renderEmailTemplate("assignment.html", assignmentEmailData{
		Title:              "New job assignment",
		Heading:            "You have a new job",
		ContractorName:     contractor.Name,
		PropertyID:         item.PropertyID,
		Category:           string(item.Category),
		Description:        item.Description,
		ContractorPhone:    contractorPhone,
		EstimatedFormatted: formatCurrencyUSD(estimatedCostCents),
		QuoteFormatted:     formatCurrencyUSD(finalQuoteCents),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf(subjectAssignmentFmt, item.Category, item.PropertyID)
	return n.send(ctx, contractor.Email, subject, content)
}

func (n *SMTPNotifier) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(n.fromName, n.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(n.host,
		gomail.WithPort(n.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.username),
		gomail.WithPassword(n.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var _ Notifier = (*SMTPNotifier)(nil)
