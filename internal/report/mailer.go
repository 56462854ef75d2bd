package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"voice-campaign-platform/internal/config"

	gomail "github.com/wneessen/go-mail"
)

// Mailer emails the end-of-campaign CSV snapshot. When SMTP is not
// configured, Deliver is a logged no-op so campaigns run fine without it.
type Mailer struct {
	cfg      config.SMTPConfig
	exporter *Exporter
	log      *slog.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewMailer(cfg config.SMTPConfig, exporter *Exporter, log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{cfg: cfg, exporter: exporter, log: log, now: time.Now}
}

func (m *Mailer) Deliver(ctx context.Context) error {
	if m.cfg.Host == "" {
		m.log.Info("smtp not configured, skipping report email")
		return nil
	}

	var buf bytes.Buffer
	n, err := m.exporter.WriteCSV(ctx, &buf)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	if n == 0 {
		m.log.Info("no call records, skipping report email")
		return nil
	}

	filename := Filename(m.now())

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("report mail from: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("report mail to: %w", err)
	}
	msg.Subject("Call campaign report " + m.now().Format("2006-01-02 15:04"))
	msg.SetBodyString(gomail.TypeTextPlain,
		fmt.Sprintf("Attached is the call status report for the latest campaign (%d records).", n))
	msg.AttachReader(filename, bytes.NewReader(buf.Bytes()))

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.User),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.log.Info("report emailed", "to", m.cfg.To, "records", n, "filename", filename)
	return nil
}
