package template

import (
	"errors"
	"fmt"
)

// ErrUnknownPrebuiltCategory indicates the library has no such category.
var ErrUnknownPrebuiltCategory = errors.New("unknown prebuilt category")

// Seed is a prebuilt library entry. Seeds become full templates (id,
// timestamps, derived variables) when imported.
type Seed struct {
	Name     string
	Category string
	Subject  string
	Body     string
}

// library is the prebuilt template library keyed by library category.
// Category keys are lowercase and distinct from the record Category
// field, which carries the display name.
var library = map[string][]Seed{
	"work": {
		{
			Name:     "Meeting Follow-up",
			Category: "Work",
			Subject:  "Re: Meeting with {{name}}",
			Body: `Hi {{name}},

Thank you for taking the time to meet with me today. I really enjoyed our discussion about {{topic}}.

As we discussed, the next steps are:
- {{nextStep1}}
- {{nextStep2}}

I'll follow up with you by {{followUpDate}} to check on progress.

Please let me know if you have any questions in the meantime.

Best regards,
{{yourName}}`,
		},
		{
			Name:     "Project Update",
			Category: "Work",
			Subject:  "{{projectName}} - Status Update",
			Body: `Hi {{recipientName}},

I wanted to give you a quick update on {{projectName}}.

Current Status: {{status}}

Completed This Week:
- {{accomplishment1}}
- {{accomplishment2}}

Next Week's Goals:
- {{goal1}}
- {{goal2}}

Timeline: {{timeline}}

Let me know if you have any questions or concerns.

Best regards,
{{yourName}}`,
		},
		{
			Name:     "Out of Office",
			Category: "Work",
			Subject:  "Out of Office: {{yourName}}",
			Body: `Thank you for your email.

I am currently out of the office from {{startDate}} to {{endDate}} with limited access to email.

If you need immediate assistance, please contact:
{{backupContact}} at {{backupEmail}}

I will respond to your message when I return on {{returnDate}}.

Best regards,
{{yourName}}`,
		},
		{
			Name:     "Thank You - Professional",
			Category: "Work",
			Subject:  "Thank You - {{occasion}}",
			Body: `Hi {{name}},

I wanted to take a moment to thank you for {{reason}}.

Your {{contribution}} made a significant impact on {{outcome}}.

I truly appreciate your {{quality}} and look forward to working together again.

Best regards,
{{yourName}}`,
		},
		{
			Name:     "Meeting Request",
			Category: "Work",
			Subject:  "Meeting Request: {{topic}}",
			Body: `Hi {{name}},

I'd like to schedule a meeting to discuss {{topic}}.

Proposed times:
- {{option1}}
- {{option2}}
- {{option3}}

The meeting should take approximately {{duration}}.

Please let me know which time works best for you, or suggest an alternative.

Looking forward to connecting,
{{yourName}}`,
		},
	},
	"support": {
		{
			Name:     "Issue Acknowledgment",
			Category: "Support",
			Subject:  "Re: {{issueType}} - Ticket #{{ticketNumber}}",
			Body: `Hi {{customerName}},

Thank you for contacting us about {{issueType}}.

I've received your request and created ticket #{{ticketNumber}} to track this issue.

I understand that {{issueSummary}}, and I'm here to help resolve this as quickly as possible.

I'm currently investigating and will update you within {{timeframe}} with either a solution or next steps.

If you have any additional information that might help, please reply to this email.

Best regards,
{{supportName}}
{{companyName}} Support Team`,
		},
		{
			Name:     "Issue Resolved",
			Category: "Support",
			Subject:  "Resolved: {{issueType}} - Ticket #{{ticketNumber}}",
			Body: `Hi {{customerName}},

Great news! I've resolved the issue with {{issueType}}.

What was done:
{{resolution}}

You should now be able to {{expectedOutcome}}.

I'm marking this ticket as resolved, but please don't hesitate to reach out if you experience any further issues or have questions.

Thank you for your patience!

Best regards,
{{supportName}}
{{companyName}} Support Team`,
		},
		{
			Name:     "Follow-up Check-in",
			Category: "Support",
			Subject:  "Follow-up: {{issueType}}",
			Body: `Hi {{customerName}},

I'm following up on the {{issueType}} issue we resolved on {{resolutionDate}}.

I wanted to check in and make sure everything is still working properly.

Is everything functioning as expected?

If you're experiencing any issues or have questions, please let me know and I'll be happy to help.

Best regards,
{{supportName}}
{{companyName}} Support Team`,
		},
	},
	"sales": {
		{
			Name:     "Cold Outreach",
			Category: "Sales",
			Subject:  "{{topic}} for {{companyName}}",
			Body: `Hi {{name}},

I hope this email finds you well.

I'm reaching out because I noticed that {{companyName}} {{observation}}.

We specialize in helping companies like yours {{solution}}.

Our clients typically see:
- {{benefit1}}
- {{benefit2}}
- {{benefit3}}

Would you be open to a brief 15-minute call to discuss how we might help {{companyName}} achieve {{goal}}?

I have availability {{availability}}.

Looking forward to connecting,
{{yourName}}
{{yourTitle}}
{{yourCompany}}`,
		},
		{
			Name:     "Proposal Follow-up",
			Category: "Sales",
			Subject:  "Following up: {{proposalName}}",
			Body: `Hi {{name}},

I wanted to follow up on the proposal I sent on {{proposalDate}} for {{projectName}}.

Have you had a chance to review it?

I'm happy to answer any questions or discuss any aspects of the proposal in more detail.

Key highlights:
- {{highlight1}}
- {{highlight2}}
- {{highlight3}}

Would you like to schedule a call to discuss next steps?

Best regards,
{{yourName}}
{{yourTitle}}
{{yourCompany}}`,
		},
		{
			Name:     "Invoice Reminder",
			Category: "Sales",
			Subject:  "Payment Reminder: Invoice #{{invoiceNumber}}",
			Body: `Hi {{name}},

I hope you're doing well.

This is a friendly reminder that invoice #{{invoiceNumber}} for {{amount}} was due on {{dueDate}}.

Invoice Details:
- Date: {{invoiceDate}}
- Amount: {{amount}}
- Services: {{services}}

If you've already sent payment, please disregard this email. Otherwise, please let me know if you have any questions or need a copy of the invoice.

Payment can be made via:
{{paymentMethods}}

Thank you,
{{yourName}}
{{yourCompany}}`,
		},
	},
	"personal": {
		{
			Name:     "Event Invitation",
			Category: "Personal",
			Subject:  "You're Invited: {{eventName}}",
			Body: `Hi {{name}},

I'm excited to invite you to {{eventName}}!

Details:
Date: {{date}}
Time: {{time}}
Location: {{location}}

{{eventDescription}}

Please RSVP by {{rsvpDate}} so I can plan accordingly.

Hope to see you there!

Best,
{{yourName}}`,
		},
		{
			Name:     "Thank You - Personal",
			Category: "Personal",
			Subject:  "Thank You!",
			Body: `Hi {{name}},

I wanted to say thank you for {{reason}}.

{{personalMessage}}

Your {{quality}} means so much to me, and I'm grateful to have you in my life.

Thanks again,
{{yourName}}`,
		},
		{
			Name:     "Congratulations",
			Category: "Personal",
			Subject:  "Congratulations on {{achievement}}!",
			Body: `Hi {{name}},

Congratulations on {{achievement}}!

{{personalMessage}}

You should be incredibly proud of this accomplishment. Your hard work and dedication have truly paid off.

Wishing you continued success,
{{yourName}}`,
		},
	},
	"signature": {
		{
			Name:     "Professional Signature",
			Category: "Signature",
			Subject:  "",
			Body: `Best regards,
{{yourName}}
{{yourTitle}}
{{companyName}}

{{email}}
{{phone}}
{{website}}`,
		},
		{
			Name:     "Minimal Signature",
			Category: "Signature",
			Subject:  "",
			Body: `{{yourName}}
{{email}} | {{phone}}`,
		},
	},
	"followup": {
		{
			Name:     "General Follow-up",
			Category: "Follow-up",
			Subject:  "Following up: {{topic}}",
			Body: `Hi {{name}},

I wanted to follow up on {{topic}} that we discussed on {{date}}.

{{context}}

Have you had a chance to {{action}}?

Please let me know if you need any additional information from me.

Best regards,
{{yourName}}`,
		},
		{
			Name:     "No Response Follow-up",
			Category: "Follow-up",
			Subject:  "Re: {{originalSubject}}",
			Body: `Hi {{name}},

I wanted to follow up on my previous email from {{originalDate}} regarding {{topic}}.

I understand you're busy, but I wanted to make sure my message didn't get lost.

{{briefSummary}}

Is this still a priority for you? If not, no problem - just let me know so I can plan accordingly.

Best regards,
{{yourName}}`,
		},
	},
}

// PrebuiltCategories returns the library category keys.
func PrebuiltCategories() []string {
	keys := make([]string, 0, len(library))
	for k := range library {
		keys = append(keys, k)
	}
	return keys
}

// PrebuiltCount returns the number of library templates in a category,
// or across all categories for "all".
func PrebuiltCount(category string) int {
	if category == "all" {
		total := 0
		for _, seeds := range library {
			total += len(seeds)
		}
		return total
	}
	return len(library[category])
}

// ImportPrebuilt merges library templates into the collection. Entries
// whose name already exists are skipped, never overwritten. Returns the
// number of templates actually added.
func (m *Manager) ImportPrebuilt(category string) (int, error) {
	var seeds []Seed

	if category == "all" {
		for _, s := range library {
			seeds = append(seeds, s...)
		}
	} else if s, ok := library[category]; ok {
		seeds = s
	} else {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPrebuiltCategory, category)
	}

	m.mu.RLock()
	existing := make(map[string]bool, len(m.templates))
	for _, t := range m.templates {
		existing[t.Name] = true
	}
	m.mu.RUnlock()

	added := 0
	for _, seed := range seeds {
		if existing[seed.Name] {
			continue
		}
		if _, err := m.Create(seed.Name, seed.Subject, seed.Body, seed.Category); err != nil {
			return added, err
		}
		existing[seed.Name] = true
		added++
	}

	m.logger.Info("prebuilt templates imported", "category", category, "added", added)
	return added, nil
}
