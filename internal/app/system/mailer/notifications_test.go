package mailer

import (
	"strings"
	"testing"
)

func TestQuoteEmail(t *testing.T) {
	subject, text, html := QuoteEmail(QuoteEmailData{
		AppName:       "Strata",
		Number:        42,
		CustomerName:  "Ayşe",
		CustomerEmail: "ayse@example.com",
		CustomerPhone: "+90 555 000 0000",
		PlanOrService: "Başlangıç",
		Lines: []QuoteLine{
			{Option: "teamSize", Choice: "medium", Amount: 1000},
			{Option: "seoPackage", Choice: "false", Amount: 0},
		},
		BasePrice:     2999,
		ComputedPrice: 3999,
		Currency:      "TRY",
		Message:       "<b>acil</b>",
	})

	if !strings.Contains(subject, "#42") {
		t.Errorf("subject = %q, want quote number", subject)
	}
	if !strings.Contains(text, "Toplam: 3999 TRY") {
		t.Errorf("text body missing total:\n%s", text)
	}
	if strings.Contains(text, "seoPackage") {
		t.Error("text body should skip zero-amount lines")
	}
	if !strings.Contains(html, "+1000 TRY") {
		t.Error("html body missing surcharge line")
	}
	if strings.Contains(html, "<b>acil</b>") {
		t.Error("html body should escape the customer message")
	}
}

func TestContactEmail(t *testing.T) {
	subject, text := ContactEmail(ContactEmailData{AppName: "Strata", Name: "Ali", Email: "ali@example.com", Body: "Merhaba"})
	if !strings.Contains(subject, "İletişim formu") {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(text, "Ali <ali@example.com>") || !strings.Contains(text, "Merhaba") {
		t.Errorf("text = %q", text)
	}
	if strings.Contains(text, "Telefon") {
		t.Error("empty phone should be omitted")
	}
}

func TestMailer_EnabledNotifications(t *testing.T) {
	var nilMailer *Mailer
	if nilMailer.Enabled() {
		t.Error("nil mailer should not be enabled")
	}
	if New(Config{From: "a@example.com"}, nil).Enabled() {
		t.Error("mailer without host should not be enabled")
	}
	if !New(Config{Host: "smtp.example.com", Port: 587, From: "a@example.com"}, nil).Enabled() {
		t.Error("configured mailer should be enabled")
	}
}
