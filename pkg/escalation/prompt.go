package escalation

import (
	"encoding/json"
	"fmt"
	"strings"
)

const sentimentPrompt = `Analyze the sentiment of the following message. Respond with only one word: positive, negative, or neutral.`

const escalationPrompt = `Determine if this customer interaction should be escalated to create a support ticket.

Create a ticket if:
- The customer has a complex technical issue
- The customer is requesting a refund or billing change
- The customer is reporting a bug or system problem
- The customer seems frustrated or unsatisfied
- The AI couldn't fully resolve the issue

Don't create a ticket for:
- Simple questions that were answered
- General information requests
- Casual conversation

Respond with only "true" or "false".`

const titlePrompt = `Generate a concise, descriptive title for a support ticket based on the customer message. Maximum 50 characters.`

const categoryPrompt = `Categorize this customer message into one of these categories:
- billing
- technical
- general
- refund
- bug_report
- feature_request
- account

Respond with only the category name.`

// buildSystemPrompt assembles the reply-generation instruction from the
// customer profile and a digest of their previous tickets.
func buildSystemPrompt(customer CustomerProfile, tickets []TicketSummary) string {
	name := customer.Name
	if name == "" {
		name = "Not provided"
	}
	company := customer.Company
	if company == "" {
		company = "Not provided"
	}

	prefs := "{}"
	if len(customer.Preferences) > 0 {
		if b, err := json.Marshal(customer.Preferences); err == nil {
			prefs = string(b)
		}
	}

	var history strings.Builder
	for _, t := range tickets {
		desc := t.Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&history, "- %s (%s): %s\n", t.Title, t.Status, desc)
	}
	if history.Len() == 0 {
		history.WriteString("No previous tickets")
	}

	return fmt.Sprintf(`You are a helpful customer service AI assistant. Here's what you know about this customer:

Customer Information:
- Name: %s
- Email: %s
- Company: %s
- Preferences: %s

Previous Support History:
%s

Guidelines:
1. Be helpful, friendly, and professional
2. Use the customer's name when appropriate
3. Reference their previous issues if relevant
4. If you cannot resolve an issue, offer to create a support ticket
5. Be concise but thorough in your responses
6. If the customer seems frustrated or has a complex issue, suggest escalating to human support

Conversation context: This is an ongoing conversation, refer to previous messages for context.`,
		name, customer.Email, company, prefs, strings.TrimRight(history.String(), "\n"))
}
