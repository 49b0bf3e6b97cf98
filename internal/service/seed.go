package service

import "mitaict-site/internal/domain"

func defaultServices() []*domain.Service {
	return []*domain.Service{
		{
			Title:       "IT and Telecommunication",
			Description: "Comprehensive IT and telecom consulting services with 20+ years of industry experience. From infrastructure to advanced solutions.",
			Icon:        "Network",
		},
		{
			Title:       "Company Registration in Sweden",
			Description: "Complete support for company registration and business setup in Sweden. Navigate Swedish regulations with ease.",
			Icon:        "Building2",
		},
		{
			Title:       "Leading Teams",
			Description: "Expert leadership consulting for sales and engineering teams. Build high-performing organizations.",
			Icon:        "Users",
		},
	}
}

func defaultProducts() []*domain.SaasProduct {
	return []*domain.SaasProduct{
		{
			Title:       "MITACRM",
			Description: "Powerful CRM solution designed for modern businesses. Streamline your customer relationships.",
			Link:        "https://mitacrm.com/",
			Features:    []string{"Contact Management", "Sales Pipeline", "Analytics Dashboard", "Integration Ready"},
		},
		{
			Title:       "Routing System",
			Description: "Advanced routing system for telecommunications and network management.",
			Link:        "https://trustcode.dev/",
			Features:    []string{"Smart Routing", "Real-time Monitoring", "Scalable Architecture", "API Access"},
		},
		{
			Title:       "White Label Software",
			Description: "Customizable white label solutions for your business needs.",
			Link:        "#",
			Features:    []string{"Full Customization", "Your Branding", "Quick Deployment", "Ongoing Support"},
		},
	}
}

const defaultAboutText = `We bring over 20 years of distinguished experience in the IT and telecommunications industry. Our journey has been marked by successfully leading sales and engineering teams, implementing cutting-edge solutions, and driving organizational excellence.

Our expertise spans across multiple domains including IT infrastructure, telecommunications networks, and enterprise software solutions. We have a proven track record in selling and implementing sophisticated software systems such as OSS (Operations Support Systems), OBS (Order and Billing Systems), and comprehensive cybersecurity solutions including EDR (Endpoint Detection and Response), MDR (Managed Detection and Response), and XDR (Extended Detection and Response).

At MITA ICT, client satisfaction is not just a goal; it's our foundation. We pride ourselves on understanding our clients' unique challenges and delivering tailored solutions that drive real business value. Our approach combines technical excellence with strategic thinking, ensuring that technology serves your business objectives.

Whether you're looking to optimize your IT infrastructure, implement new telecommunications systems, or build high-performing teams, we bring the experience, expertise, and dedication to help you succeed.`

func defaultAbout() *domain.AboutContent {
	return &domain.AboutContent{
		Title:   "About MITA ICT",
		Content: defaultAboutText,
		Expertise: []domain.ExpertiseGroup{
			{Title: "IT Infrastructure", Items: []string{"Network Design", "Cloud Solutions", "System Integration"}},
			{Title: "Telecommunications", Items: []string{"OSS Implementation", "Network Optimization", "Voice & Data Solutions"}},
			{Title: "Cybersecurity", Items: []string{"EDR/MDR/XDR Solutions", "Security Audits", "Compliance Management"}},
			{Title: "Leadership", Items: []string{"Team Building", "Sales Management", "P&L Optimization"}},
		},
	}
}
