package extract

// Confidence derives a heuristic extraction score from yield counts: the
// number of detected tables and the number of non-empty text blocks.
// Pure function; no other state feeds into it.
//
// With no yield at all the score is 0. Otherwise the table and text
// scores are both computed and the larger one wins, even when zero
// tables were found.
func Confidence(tables, textBlocks int) int {
	if tables == 0 && textBlocks == 0 {
		return 0
	}
	tableConfidence := min(80+5*tables, 100)
	textConfidence := min(70+2*textBlocks, 100)
	return max(tableConfidence, textConfidence)
}
