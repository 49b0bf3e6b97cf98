package service

import (
	"fmt"
	"strings"

	"mitaict-site/internal/domain"
)

const assistantIntro = "You are a friendly and professional sales assistant for MITA ICT. " +
	"Your goal is to help visitors understand our services and guide them toward scheduling a meeting."

const assistantInstructions = `MEETING SCHEDULING - IMPORTANT:
When a user wants to schedule a meeting or consultation:
1. Ask for their name if you don't have it
2. Ask for their email address
3. Ask for their preferred date and time (be flexible, suggest "this week" or "next week" options)
4. Optionally ask what they'd like to discuss

Once you have name, email, and preferred time, respond with EXACTLY this format (the system will detect it):
"MEETING_REQUEST: [name] | [email] | [preferred_datetime] | [topic]"

Then immediately follow with a friendly confirmation like:
"Perfect! I've submitted your meeting request. Our team at info@mitaict.com will review it and confirm the time slot with you shortly. Is there anything else I can help you with?"

Guidelines:
- Be warm, helpful, and conversational
- Answer questions about services and products based on the information above
- After 2-3 exchanges, suggest scheduling a free consultation call
- If they share contact info, acknowledge warmly
- Keep responses concise unless they ask for details
- For pricing questions, suggest a call to discuss their specific needs
- If asked about something not listed above, say you'd be happy to connect them with the team for more details`

// BuildSystemPrompt renders the assistant instructions from the live site
// content. Empty collections fall back to the default catalog.
func BuildSystemPrompt(services []*domain.Service, products []*domain.SaasProduct, about *domain.AboutContent) string {
	if len(services) == 0 {
		services = defaultServices()
	}
	if len(products) == 0 {
		products = defaultProducts()
	}
	if about == nil {
		about = defaultAbout()
	}

	var b strings.Builder
	b.WriteString(assistantIntro)
	b.WriteString("\n\nAbout Us:\n")
	fmt.Fprintf(&b, "- %s\n", about.Title)
	for _, para := range strings.Split(about.Content, "\n") {
		if para = strings.TrimSpace(para); para != "" {
			fmt.Fprintf(&b, "- %s\n", para)
		}
	}
	for _, g := range about.Expertise {
		fmt.Fprintf(&b, "- %s: %s\n", g.Title, strings.Join(g.Items, ", "))
	}

	b.WriteString("\nOur Services:\n")
	for i, s := range services {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, s.Title, s.Description)
	}

	b.WriteString("\nOur SaaS Products:\n")
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s - %s", i+1, p.Title, p.Description)
		if len(p.Features) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(p.Features, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(assistantInstructions)
	return b.String()
}
