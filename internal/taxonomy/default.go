package taxonomy

// Default is the stock taxonomy a fresh deployment starts with. Category
// management later grows it through the catalog's storage.
var Default = Taxonomy{
	Categories: []Category{
		{ID: "core", Title: "Core AI News"},
		{ID: "technical", Title: "Technical Part of AI"},
		{ID: "general_user_usecases", Title: "AI Tools for General Users"},
		{ID: "developer_usecases", Title: "AI Tools for Developers"},
		{ID: "sectors", Title: "Sector-Specific"},
	},
	Subcategories: map[string][]Subcategory{
		"core": {
			{ID: "ai-industry", Title: "Industry News", CategoryID: "core"},
			{ID: "ai-research", Title: "Research", CategoryID: "core"},
			{ID: "ai-policy", Title: "Policy & Regulation", CategoryID: "core"},
			{ID: "ai-safety", Title: "AI Safety", CategoryID: "core"},
			{ID: "ai-product-launches", Title: "Recent AI products", CategoryID: "core"},
		},
		"technical": {
			{ID: "llm", Title: "LLMs", CategoryID: "technical"},
			{ID: "cv", Title: "Computer Vision", CategoryID: "technical"},
			{ID: "genai", Title: "Generative AI", CategoryID: "technical"},
		},
		"general_user_usecases": {
			{ID: "ai-writing", Title: "Writing Tools", CategoryID: "general_user_usecases"},
			{ID: "ai-productivity", Title: "Productivity", CategoryID: "general_user_usecases"},
			{ID: "ai-media-tools", Title: "Image/Video/Audio Tools", CategoryID: "general_user_usecases"},
		},
		"developer_usecases": {
			{ID: "ai-coding", Title: "Code Generation", CategoryID: "developer_usecases"},
			{ID: "mlops", Title: "MLOps", CategoryID: "developer_usecases"},
			{ID: "infra", Title: "Infrastructure", CategoryID: "developer_usecases"},
		},
		"sectors": {
			{ID: "ai-healthcare", Title: "Healthcare", CategoryID: "sectors"},
			{ID: "ai-finance", Title: "Finance", CategoryID: "sectors"},
			{ID: "ai-education", Title: "Education", CategoryID: "sectors"},
		},
	},
}
