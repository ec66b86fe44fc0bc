package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"
)

func sendEmail(to, subject, htmlBody string) error {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		// SMTP non configuré : on trace et on continue, l'email n'est pas bloquant
		log.Println("⚠️ SMTP_HOST non configuré, e-mail non envoyé à", to)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(os.Getenv("SMTP_FROM")); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(host,
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// SendOnboardingEmail envoie les identifiants admin générés à l'inscription
// d'un tenant. Seule occasion où le mot de passe circule en clair.
func SendOnboardingEmail(to, companyName, widgetURL, username, password string) error {
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Welcome aboard, %s!</h2>
		<p>Your support assistant is ready. Your customers can reach it here:</p>
		<p><a href="%s">%s</a></p>
		<h3>Admin credentials</h3>
		<p>Username: <strong>%s</strong><br>Password: <strong>%s</strong></p>
		<p>Keep these safe — the password cannot be recovered later.</p>
	</div>
</body>
</html>`, companyName, widgetURL, widgetURL, username, password)

	return sendEmail(to, "Your support assistant is live", body)
}

// SendEscalationEmail prévient l'équipe support du tenant qu'un dossier
// attend un humain.
func SendEscalationEmail(to, companyName, reason string) error {
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">A claim needs your attention</h2>
		<p>The assistant for <strong>%s</strong> escalated a conversation:</p>
		<blockquote style="border-left: 3px solid #ddd; padding-left: 10px; color: #555;">%s</blockquote>
		<p>Review it from your dashboard.</p>
	</div>
</body>
</html>`, companyName, reason)

	return sendEmail(to, "Claim escalated to your team", body)
}
