package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"referral-tracking-api/models"
)

type fakeSender struct {
	err  error
	sent []struct {
		To      []string
		Subject string
		HTML    string
	}
}

func (s *fakeSender) SendMail(to []string, subject, html string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, struct {
		To      []string
		Subject string
		HTML    string
	}{to, subject, html})
	return nil
}

func TestRenderTemplate(t *testing.T) {
	data := map[string]string{"candidate_name": "Tom & <Jerry>", "portal_link": "https://p.test/"}
	tests := []struct {
		name   string
		text   string
		escape bool
		want   string
	}{
		{"spaced", "Hi {{ candidate_name }}", false, "Hi Tom & <Jerry>"},
		{"tight", "{{portal_link}}", false, "https://p.test/"},
		{"escaped", "<b>{{ candidate_name }}</b>", true, "<b>Tom &amp; &lt;Jerry&gt;</b>"},
		{"unknown key", "reason: {{ reason }}.", true, "reason: ."},
		{"no placeholders", "plain", true, "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.text, data, tt.escape); got != tt.want {
				t.Fatalf("RenderTemplate(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTemplateNotifierSends(t *testing.T) {
	store := newMemStore()
	store.templates[models.PurposeCVToSBU] = models.EmailTemplate{
		Purpose:  models.PurposeCVToSBU,
		Subject:  "New CV: {{ candidate_name }}",
		HTMLBody: `<a href="{{portal_link}}">{{ candidate_name }}</a>`,
	}
	sender := &fakeSender{}
	n := NewTemplateNotifier(store, sender)
	n.Async = false

	n.Notify(context.Background(), models.PurposeCVToSBU, []string{"a@x.com", "A@x.com"}, map[string]string{
		"candidate_name": "Jane Doe",
		"portal_link":    "https://portal.test/review-cv",
	})

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.sent))
	}
	mail := sender.sent[0]
	if !reflect.DeepEqual(mail.To, []string{"a@x.com"}) {
		t.Fatalf("to = %v", mail.To)
	}
	if mail.Subject != "New CV: Jane Doe" {
		t.Fatalf("subject = %q", mail.Subject)
	}
	if mail.HTML != `<a href="https://portal.test/review-cv">Jane Doe</a>` {
		t.Fatalf("html = %q", mail.HTML)
	}
	if len(store.failures) != 0 {
		t.Fatalf("unexpected failures: %+v", store.failures)
	}
}

func TestTemplateNotifierRecordsFailures(t *testing.T) {
	store := newMemStore()
	store.templates[models.PurposeCVToHR] = models.EmailTemplate{Purpose: models.PurposeCVToHR, Subject: "s", HTMLBody: "b"}
	sender := &fakeSender{}
	n := NewTemplateNotifier(store, sender)
	n.Async = false

	n.Notify(context.Background(), models.PurposeCVApprovedHR, []string{"jane@corp.test"}, map[string]string{"candidate_name": "Jane"})
	if len(store.failures) != 1 || store.failures[0].Purpose != models.PurposeCVApprovedHR {
		t.Fatalf("missing template failures = %+v", store.failures)
	}

	sender.err = errors.New("smtp down")
	n.Notify(context.Background(), models.PurposeCVToHR, []string{"hr@corp.test"}, nil)
	if len(store.failures) != 2 || store.failures[1].Error != "smtp down" {
		t.Fatalf("smtp failures = %+v", store.failures)
	}
	if !reflect.DeepEqual(store.failures[1].Recipients, []string{"hr@corp.test"}) {
		t.Fatalf("recipients = %v", store.failures[1].Recipients)
	}

	n.Notify(context.Background(), models.PurposeCVToHR, []string{" ", ""}, nil)
	if len(store.failures) != 2 {
		t.Fatal("empty recipient list should be skipped, not recorded")
	}
}

func TestTemplateNotifierAsyncWait(t *testing.T) {
	store := newMemStore()
	store.templates[models.PurposeCVToSBU] = models.EmailTemplate{Purpose: models.PurposeCVToSBU, Subject: "s", HTMLBody: "b"}
	sender := &fakeSender{}
	n := NewTemplateNotifier(store, sender)

	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, models.PurposeCVToSBU, []string{"a@x.com"}, nil)
	cancel()
	n.Wait()

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails after Wait, want 1", len(sender.sent))
	}
}
