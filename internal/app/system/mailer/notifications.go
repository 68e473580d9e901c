// internal/app/system/mailer/notifications.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// QuoteLine is one priced option line of a quote notification.
type QuoteLine struct {
	Option string
	Choice string
	Amount int64
}

// QuoteEmailData contains the data for a new-quote notification.
type QuoteEmailData struct {
	AppName       string
	Number        int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Company       string
	PlanOrService string
	Categories    []string
	Lines         []QuoteLine
	BasePrice     int64
	ComputedPrice int64
	Currency      string
	Message       string
}

// QuoteEmail generates both plain text and HTML versions of the staff
// notification sent when a quote is submitted.
func QuoteEmail(data QuoteEmailData) (subject, textBody, htmlBody string) {
	subject = fmt.Sprintf("[%s] Yeni teklif talebi #%d", data.AppName, data.Number)

	var b strings.Builder
	fmt.Fprintf(&b, "Teklif #%d\n\n", data.Number)
	fmt.Fprintf(&b, "Müşteri: %s <%s>\n", data.CustomerName, data.CustomerEmail)
	fmt.Fprintf(&b, "Telefon: %s\n", data.CustomerPhone)
	if data.Company != "" {
		fmt.Fprintf(&b, "Şirket: %s\n", data.Company)
	}
	fmt.Fprintf(&b, "Paket/Hizmet: %s\n", data.PlanOrService)
	if len(data.Categories) > 0 {
		fmt.Fprintf(&b, "Kategoriler: %s\n", strings.Join(data.Categories, ", "))
	}
	fmt.Fprintf(&b, "\nTaban fiyat: %d %s\n", data.BasePrice, data.Currency)
	for _, l := range data.Lines {
		if l.Amount == 0 {
			continue
		}
		fmt.Fprintf(&b, "  + %s (%s): %d %s\n", l.Option, l.Choice, l.Amount, data.Currency)
	}
	fmt.Fprintf(&b, "Toplam: %d %s\n", data.ComputedPrice, data.Currency)
	if data.Message != "" {
		fmt.Fprintf(&b, "\nMesaj:\n%s\n", data.Message)
	}
	textBody = b.String()

	var buf bytes.Buffer
	_ = quoteHTMLTmpl.Execute(&buf, data)
	htmlBody = buf.String()
	return subject, textBody, htmlBody
}

// ContactEmailData contains the data for a contact-form notification.
type ContactEmailData struct {
	AppName string
	Name    string
	Email   string
	Phone   string
	Subject string
	Body    string
}

// ContactEmail generates the plain text notification for a contact message.
// Message bodies are stored as plain text, so no HTML version is sent.
func ContactEmail(data ContactEmailData) (subject, textBody string) {
	subject = fmt.Sprintf("[%s] İletişim formu: %s", data.AppName, data.Subject)
	if data.Subject == "" {
		subject = fmt.Sprintf("[%s] İletişim formu mesajı", data.AppName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Gönderen: %s <%s>\n", data.Name, data.Email)
	if data.Phone != "" {
		fmt.Fprintf(&b, "Telefon: %s\n", data.Phone)
	}
	fmt.Fprintf(&b, "\n%s\n", data.Body)
	return subject, b.String()
}

// WelcomeEmailData contains the data for a welcome email sent to new users.
type WelcomeEmailData struct {
	AppName  string
	UserName string
	LoginURL string
}

// WelcomeEmail generates the plain text welcome email for a new account.
func WelcomeEmail(data WelcomeEmailData) (subject, textBody string) {
	subject = "Welcome to " + data.AppName
	textBody = "Welcome to " + data.AppName + ", " + data.UserName + "!\n\n" +
		"Your account has been created. You can sign in at:\n" + data.LoginURL + "\n\n" +
		"You can request and follow quotes from your profile."
	return subject, textBody
}

var quoteHTMLTmpl = template.Must(template.New("quote").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Teklif #{{.Number}}</title>
</head>
<body style="margin: 0; padding: 24px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; margin: 0 auto; background-color: #ffffff; border-radius: 8px;">
    <tr>
      <td style="padding: 24px 32px; border-bottom: 1px solid #e4e4e7;">
        <h1 style="margin: 0; font-size: 20px; color: #18181b;">{{.AppName}}: teklif #{{.Number}}</h1>
      </td>
    </tr>
    <tr>
      <td style="padding: 24px 32px; font-size: 14px; line-height: 1.6; color: #3f3f46;">
        <p style="margin: 0 0 12px 0;"><strong>{{.CustomerName}}</strong> &lt;{{.CustomerEmail}}&gt;, {{.CustomerPhone}}{{if .Company}}, {{.Company}}{{end}}</p>
        <p style="margin: 0 0 12px 0;">{{.PlanOrService}}{{range $i, $c := .Categories}}{{if $i}},{{else}}:{{end}} {{$c}}{{end}}</p>
        <table role="presentation" width="100%" cellspacing="0" cellpadding="4" style="font-size: 14px;">
          <tr><td>Taban fiyat</td><td align="right">{{.BasePrice}} {{.Currency}}</td></tr>
          {{range .Lines}}{{if .Amount}}<tr><td>{{.Option}} ({{.Choice}})</td><td align="right">+{{.Amount}} {{$.Currency}}</td></tr>{{end}}{{end}}
          <tr><td style="border-top: 1px solid #e4e4e7;"><strong>Toplam</strong></td><td align="right" style="border-top: 1px solid #e4e4e7;"><strong>{{.ComputedPrice}} {{.Currency}}</strong></td></tr>
        </table>
        {{if .Message}}<p style="margin: 16px 0 0 0; white-space: pre-wrap;">{{.Message}}</p>{{end}}
      </td>
    </tr>
  </table>
</body>
</html>`))
