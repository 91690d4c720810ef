package taxonomy

func dataTypes() *Taxonomy {
	return &Taxonomy{
		Name:     "data_type",
		Fallback: "all",
		Labels: []Label{
			{Name: "health", Keywords: []string{
				"patient", "medical record", "medical records", "health record",
				"health records", "phi", "diagnosis", "prescription",
			}},
			{Name: "payment", Keywords: []string{
				"credit card", "card", "cardholder", "payment", "payments",
				"transaction", "transactions",
			}},
			{Name: "financial", Keywords: []string{
				"bank account", "financial", "account number", "loan", "tax",
				"income",
			}},
			{Name: "children", Keywords: []string{
				"child", "children", "kids", "minor", "minors", "under 13",
			}},
			{Name: "biometric", Keywords: []string{
				"biometric", "fingerprint", "facial", "face recognition", "iris",
				"voiceprint",
			}},
			{Name: "personal", Keywords: []string{
				"personal data", "personal information", "pii", "email", "phone",
				"address", "users", "customer data", "user data",
			}},
			{Name: "all"},
		},
	}
}
