package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/kapu/trendwatch-go/internal/domain"
	"go.uber.org/zap"
)

// Mailer sends the trending-hashtag digest to subscribers over SMTP with
// STARTTLS (Gmail app-password style).
type Mailer struct {
	host     string
	port     int
	from     string
	password string
	logger   *zap.Logger
}

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

func NewMailer(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		password: cfg.Password,
		logger:   logger,
	}
}

// Enabled reports whether sender credentials are configured.
func (m *Mailer) Enabled() bool {
	return m.from != "" && m.password != ""
}

// Send delivers the HTML body to each recipient individually and returns
// how many sends succeeded. A failing recipient does not abort the rest.
func (m *Mailer) Send(subject, htmlBody string, recipients []string) int {
	if !m.Enabled() {
		m.logger.Warn("Mailer not configured, skipping send", zap.Int("recipients", len(recipients)))
		return 0
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	sent := 0
	for _, recipient := range recipients {
		msg := buildMessage(m.from, recipient, subject, htmlBody)
		if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, msg); err != nil {
			m.logger.Error("Failed to send digest email",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		sent++
	}

	m.logger.Info("Digest emails sent",
		zap.Int("sent", sent),
		zap.Int("recipients", len(recipients)))

	return sent
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// BuildDigest renders the top-ranked tags per region as simple HTML tables,
// the same shape the dashboard's email preview shows.
func BuildDigest(dataset *domain.Dataset, regions []string, topN int) string {
	var b strings.Builder
	b.WriteString("<h2>Top Trending Hashtags</h2>")

	for _, region := range regions {
		tags := dataset.TopRanked(domain.NormalizeRegion(region), topN)
		if len(tags) == 0 {
			continue
		}

		fmt.Fprintf(&b, "<h3>%s</h3>", region)
		b.WriteString(`<table border="1" cellpadding="5">`)
		b.WriteString("<tr><th>Rank</th><th>Hashtag</th></tr>")
		for i, tag := range tags {
			fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td></tr>", i+1, tag)
		}
		b.WriteString("</table>")
	}

	return b.String()
}
