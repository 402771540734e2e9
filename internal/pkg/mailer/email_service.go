// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendInvitation(toEmail, inviteeName, inviterName, code string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	clientURL   string
}

func NewEmailService(host string, port int, username, password, senderEmail, clientURL string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		clientURL:   clientURL,
	}
}

// InvitationLink builds the client URL an invitee opens to accept.
func InvitationLink(clientURL, code string) string {
	return fmt.Sprintf("%s/invitations/%s", clientURL, code)
}

func (s *emailService) SendInvitation(toEmail, inviteeName, inviterName, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "You have been invited to a guided conversation")

	link := InvitationLink(s.clientURL, code)
	greeting := "Hi"
	if inviteeName != "" {
		greeting = "Hi " + inviteeName
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s,</h2>
			<p>%s would like to work through something together with you.</p>
			<p>The conversation is guided step by step, and each of you moves at your own pace.</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Accept Invitation</a>
			<p>Or use this code: <strong>%s</strong></p>
		</div>
	`, greeting, inviterName, link, code)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send invitation to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Invitation sent to %s\n", toEmail)
	return nil
}
