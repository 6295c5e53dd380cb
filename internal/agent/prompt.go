package agent

import (
	"fmt"
	"strings"

	"github.com/greenlens/greenlens/internal/model"
)

// maxAttachmentChars bounds the attachment text embedded in the prompt.
const maxAttachmentChars = 2000

const systemPreamble = `You are GreenLens, a carbon and tax advisor for Malaysian small businesses.
You answer questions about carbon emissions, the GITA green investment tax allowance,
and green technology purchases. Use the available tools when a question needs ledger
data or a simulation; answer directly when it does not. If a tool fails, apologise
briefly and answer with what you have. Keep answers concise and in plain language,
with amounts in RM.`

// buildSystemPrompt composes the system prompt from the profile summary and
// the optional attachment block.
func buildSystemPrompt(profile *model.UserProfile, attachmentBlock string) string {
	var b strings.Builder
	b.WriteString(systemPreamble)

	b.WriteString("\n\n## User\n")
	if profile == nil {
		b.WriteString("Guest user: no profile on record. Simulations will use defaults.")
	} else {
		fmt.Fprintf(&b, "User id: %s\nIndustry: %s\nAnnual revenue: RM %.2f\n", profile.ID, profile.Industry, profile.AnnualRevenue)
		fmt.Fprintf(&b, "Total emissions: %.2f tonnes CO2e\nGITA credit balance: RM %.2f", profile.TotalEmissions, profile.GitaTaxCreditBalance)
	}

	if attachmentBlock != "" {
		b.WriteString("\n\n## Attached document\n")
		b.WriteString(attachmentBlock)
	}

	return b.String()
}

// summarizeAttachment renders a stored document as a bounded text block.
func summarizeAttachment(att *model.Attachment) string {
	text := att.Text
	if len(text) > maxAttachmentChars {
		text = text[:maxAttachmentChars] + "\n[truncated]"
	}
	return fmt.Sprintf("Name: %s\n%s", att.Name, text)
}
