package local

import (
	"fmt"
	"strings"
	"time"
)

// InvitationInput holds what the fallback invitation template needs
type InvitationInput struct {
	ReferenceCode string
	Title         string
	Description   string
	Requirements  []string
	DeadlineAt    *time.Time
	VendorName    string
	ContactName   string
}

// GenerateInvitation renders an RFP invitation email from a fixed template.
// Used when the AI email generator is unavailable. The reference code must
// stay in the subject so vendor replies can be matched back to the RFP.
func GenerateInvitation(in InvitationInput) (subject, body string) {
	subject = fmt.Sprintf("Request for Proposal %s: %s", in.ReferenceCode, in.Title)

	greeting := "Hello"
	if in.ContactName != "" {
		greeting = "Dear " + in.ContactName
	} else if in.VendorName != "" {
		greeting = "Dear " + in.VendorName + " team"
	}

	var sb strings.Builder
	sb.WriteString(greeting + ",\n\n")
	fmt.Fprintf(&sb, "We invite you to submit a proposal for the following request (%s):\n\n", in.ReferenceCode)
	fmt.Fprintf(&sb, "%s\n\n", strings.TrimSpace(in.Description))

	if len(in.Requirements) > 0 {
		sb.WriteString("Requirements:\n")
		for _, req := range in.Requirements {
			sb.WriteString("  - " + req + "\n")
		}
		sb.WriteString("\n")
	}

	if in.DeadlineAt != nil {
		fmt.Fprintf(&sb, "Please respond no later than %s.\n\n", in.DeadlineAt.Format("January 2, 2006"))
	}

	sb.WriteString("Your reply should include total price, delivery lead time, payment terms and warranty. ")
	fmt.Fprintf(&sb, "Keep the reference %s in the subject line when replying.\n\n", in.ReferenceCode)
	sb.WriteString("Best regards,\nProcurement Team\n")

	return subject, sb.String()
}
