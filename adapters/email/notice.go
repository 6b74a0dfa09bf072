package email

import (
	"fmt"
	"strings"

	"github.com/artpar/invoicer/ports"
)

// InvoiceMessage builds the plain-text email announcing an issued invoice.
func InvoiceMessage(senderName string, n ports.InvoiceNotice) ports.EmailMessage {
	var b strings.Builder

	name := n.ClientName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Invoice %s for %s is now available.\n", n.Number, n.AmountDue)
	if !n.DueDate.IsZero() {
		fmt.Fprintf(&b, "Payment is due by %s.\n", n.DueDate.Format("January 2, 2006"))
	}
	if n.ViewURL != "" {
		fmt.Fprintf(&b, "\nView it online: %s\n", n.ViewURL)
	}
	if len(n.PDF) > 0 {
		b.WriteString("\nA PDF copy is attached.\n")
	}
	if senderName != "" {
		fmt.Fprintf(&b, "\nThanks,\n%s", senderName)
	}

	msg := ports.EmailMessage{
		To:       n.To,
		Subject:  fmt.Sprintf("Invoice %s", n.Number),
		TextBody: b.String(),
	}
	if senderName != "" {
		msg.Subject = fmt.Sprintf("Invoice %s from %s", n.Number, senderName)
	}
	if len(n.PDF) > 0 {
		msg.Attachments = []ports.Attachment{{
			Filename:    n.Number + ".pdf",
			ContentType: "application/pdf",
			Data:        n.PDF,
		}}
	}
	return msg
}
