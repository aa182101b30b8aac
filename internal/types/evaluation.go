package types

// TranscribedItem is one recognized answer from the scanned sheet, in sheet
// order.
type TranscribedItem struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// AnswerKeyItem is one structured entry of a parsed answer key.
type AnswerKeyItem struct {
	Question int    `json:"question"`
	Answer   string `json:"answer"`
}
