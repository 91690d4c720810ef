package taxonomy

func regions() *Taxonomy {
	return &Taxonomy{
		Name:     "region",
		Fallback: "global",
		Labels: []Label{
			{Name: "EU", Keywords: []string{
				"eu", "europe", "european", "germany", "france", "spain", "italy",
				"netherlands",
			}},
			{Name: "US", Keywords: []string{
				"usa", "united states", "america", "american", "california",
				"new york", "texas",
			}},
			{Name: "India", Keywords: []string{"india", "indian"}},
			{Name: "UK", Keywords: []string{
				"uk", "united kingdom", "britain", "england",
			}},
			{Name: "Canada", Keywords: []string{"canada", "canadian"}},
			{Name: "global"},
		},
	}
}
