package services

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"regexp"
	"sync"
	"time"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
	"referral-tracking-api/utils"
)

// Notifier renders the template stored for purpose and emails it to recipients.
// Delivery problems are handled by the implementation and never reported back.
type Notifier interface {
	Notify(ctx context.Context, purpose string, recipients []string, data map[string]string)
}

// MailSender is satisfied by *config.Mailer.
type MailSender interface {
	SendMail(to []string, subject, html string) error
}

// TemplateNotifier sends email_templates rows through a MailSender.
// Failed deliveries are logged and stored in notification_failures.
type TemplateNotifier struct {
	store  repository.Store
	sender MailSender
	// Async sends from a background goroutine. Tests turn it off.
	Async bool
	wg    sync.WaitGroup
}

func NewTemplateNotifier(store repository.Store, sender MailSender) *TemplateNotifier {
	return &TemplateNotifier{store: store, sender: sender, Async: true}
}

func (n *TemplateNotifier) Notify(ctx context.Context, purpose string, recipients []string, data map[string]string) {
	to := utils.NormalizeEmails(recipients)
	if len(to) == 0 {
		log.Printf("notify %s: no recipients, skipped", purpose)
		return
	}
	ctx = persistentContext(ctx)
	if !n.Async {
		n.dispatch(ctx, purpose, to, data)
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.dispatch(ctx, purpose, to, data)
	}()
}

// Wait blocks until background deliveries have finished.
func (n *TemplateNotifier) Wait() {
	n.wg.Wait()
}

func (n *TemplateNotifier) dispatch(ctx context.Context, purpose string, to []string, data map[string]string) {
	err := n.send(ctx, purpose, to, data)
	if err == nil {
		return
	}
	log.Printf("notification email send failed (purpose=%s to=%v): %v", purpose, to, err)

	serialized, _ := json.Marshal(data)
	failure := models.NotificationFailure{
		Purpose:    purpose,
		Recipients: to,
		Context:    serialized,
		Error:      err.Error(),
		CreatedAt:  time.Now(),
	}
	if recErr := n.store.CreateNotificationFailure(ctx, &failure); recErr != nil {
		log.Printf("notify %s: failed to record delivery failure: %v", purpose, recErr)
	}
}

func (n *TemplateNotifier) send(ctx context.Context, purpose string, to []string, data map[string]string) error {
	tmpl, err := n.store.FindEmailTemplate(ctx, purpose)
	if err != nil {
		return fmt.Errorf("email template for purpose %q: %w", purpose, err)
	}
	subject := RenderTemplate(tmpl.Subject, data, false)
	body := RenderTemplate(tmpl.HTMLBody, data, true)
	return n.sender.SendMail(to, subject, body)
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// RenderTemplate substitutes {{ key }} and {{key}} placeholders. Unknown keys
// render empty. Values are HTML-escaped when escape is set.
func RenderTemplate(text string, data map[string]string, escape bool) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value := data[key]
		if escape {
			return html.EscapeString(value)
		}
		return value
	})
}
