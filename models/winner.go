package models

// WinnerIdentifier names a past scholarship winner found on an announcement page.
type WinnerIdentifier struct {
	WinnerName string `json:"winner_name"`
	// university, city or field of study mentioned next to the name
	ContextClue string `json:"context_clue"`
}

// SearchResult is one hit of a web search.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
