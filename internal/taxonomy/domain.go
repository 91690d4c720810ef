package taxonomy

func domains() *Taxonomy {
	return &Taxonomy{
		Name:     "domain",
		Fallback: "general",
		Labels: []Label{
			{Name: "healthcare", Keywords: []string{
				"healthcare", "health", "hospital", "patient", "clinic", "medical",
				"telemedicine", "pharmacy", "ehr", "doctor",
			}},
			{Name: "finance", Keywords: []string{
				"finance", "fintech", "bank", "banking", "payment", "payments", "loan",
				"insurance", "trading", "wallet",
			}},
			{Name: "education", Keywords: []string{
				"education", "edtech", "school", "student", "university", "learning",
				"course",
			}},
			{Name: "ecommerce", Keywords: []string{
				"ecommerce", "e-commerce", "online store", "shop", "retail", "checkout",
				"cart", "marketplace",
			}},
			{Name: "government", Keywords: []string{
				"government", "public sector", "municipal", "federal", "agency",
				"citizen",
			}},
			{Name: "technology", Keywords: []string{
				"saas", "cloud", "software", "platform", "api", "hosting",
				"data center",
			}},
			{Name: "general"},
		},
	}
}
