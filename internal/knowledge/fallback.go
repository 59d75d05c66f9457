package knowledge

import "github.com/metalogics/leadchat/internal/models"

// FallbackCorpus returns the built-in minimal corpus used when no knowledge
// source is reachable. The service must always be able to answer something.
func FallbackCorpus() []models.Document {
	return []models.Document{
		{
			ID:       "about-metalogics",
			Title:    "About Metalogics",
			Content:  "Metalogics is a leading technology company specializing in innovative software solutions, AI development, and digital transformation services. We help businesses leverage cutting-edge technology to achieve their goals.",
			Category: "company",
			URL:      "https://metalogics.io/about",
		},
		{
			ID:       "services-overview",
			Title:    "Our Services",
			Content:  "Metalogics offers comprehensive technology services including custom software development, AI and machine learning solutions, cloud infrastructure, mobile app development, and digital consulting services.",
			Category: "services",
			URL:      "https://metalogics.io/services",
		},
		{
			ID:       "contact-info",
			Title:    "Contact Information",
			Content:  "Contact Metalogics for inquiries about our services. We offer free consultations to discuss your technology needs and how we can help your business grow.",
			Category: "contact",
			URL:      "https://metalogics.io/contact",
		},
	}
}
