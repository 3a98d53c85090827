package models

// Game describes one minigame in the client's catalogue.
type Game struct {
	Num   int    `json:"gameNum"`
	Title string `json:"title"`
}

// GameCatalogue lists the games shipped with the client. Number 6 was retired.
var GameCatalogue = []Game{
	{Num: 1, Title: "Mouse Trainer"},
	{Num: 2, Title: "Banana Chase"},
	{Num: 3, Title: "Typewriter"},
	{Num: 4, Title: "Word Weaver"},
	{Num: 5, Title: "Rainbow Painter"},
	{Num: 7, Title: "Art Puzzle"},
	{Num: 8, Title: "Sentence Scribe"},
	{Num: 9, Title: "Story Self"},
	{Num: 10, Title: "PC Part Picker"},
	{Num: 11, Title: "Number Matching"},
	{Num: 12, Title: "Paragraph Pro"},
	{Num: 13, Title: "Candy Sorter"},
	{Num: 14, Title: "Memory Melody"},
	{Num: 15, Title: "Multiple Choice Challenge"},
}

// GameTitle returns the catalogue title for num.
func GameTitle(num int) (string, bool) {
	for _, g := range GameCatalogue {
		if g.Num == num {
			return g.Title, true
		}
	}
	return "", false
}
