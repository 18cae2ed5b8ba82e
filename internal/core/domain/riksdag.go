package domain

import "time"

// Member is one member of parliament (ledamot).
type Member struct {
	ID           string `json:"id"`
	Name         string `json:"namn"`
	Party        string `json:"parti"`
	Constituency string `json:"valkrets"`
	Gender       string `json:"kon"`
	BirthYear    int    `json:"fodd_ar"`
	ImageURL     string `json:"bild_url,omitempty"`
	Status       string `json:"status,omitempty"`
}

// Motion is one parliamentary motion document.
type Motion struct {
	ID           string    `json:"id"`
	MemberID     string    `json:"ledamot_id,omitempty"`
	Title        string    `json:"titel"`
	Date         time.Time `json:"datum"`
	Session      string    `json:"riksmote"`
	DocumentType string    `json:"dokument_typ"`
	Fulltext     string    `json:"fulltext,omitempty"`
}

// Vote is one member's recorded vote in a division (votering).
type Vote struct {
	VoteID     string    `json:"votering_id"`
	DocumentID string    `json:"dokument_id"`
	MemberID   string    `json:"ledamot_id"`
	Date       time.Time `json:"datum"`
	Title      string    `json:"titel"`
	Choice     string    `json:"rost"`
	Session    string    `json:"riksmote"`
}

// Absent reports whether this vote counts as an absence. "Frånvarande"
// is the explicit marker; an empty choice in the source data means the
// member was not recorded at all.
func (v Vote) Absent() bool {
	return v.Choice == "Frånvarande" || v.Choice == ""
}

// Speech is one chamber speech (anförande) by a member.
type Speech struct {
	SpeechID string    `json:"anforande_id"`
	MemberID string    `json:"ledamot_id"`
	DebateID string    `json:"debatt_id,omitempty"`
	Title    string    `json:"titel,omitempty"`
	Text     string    `json:"text"`
	Date     time.Time `json:"datum"`
	Party    string    `json:"parti,omitempty"`
}
