package riksdag

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

// Wire envelopes for data.riksdagen.se list endpoints. The API wraps
// every list in a named singleton object and returns all scalar fields
// as strings, including counts and page numbers.

type personListEnvelope struct {
	PersonLista struct {
		Person []personEntry `json:"person"`
	} `json:"personlista"`
}

type personEntry struct {
	ID           string `json:"intressent_id"`
	FirstName    string `json:"tilltalsnamn"`
	LastName     string `json:"efternamn"`
	Party        string `json:"parti"`
	Constituency string `json:"valkrets"`
	Gender       string `json:"kon"`
	BirthYear    string `json:"fodd_ar"`
	ImageURL     string `json:"bild_url_192"`
	Status       string `json:"status"`
}

type documentListEnvelope struct {
	DokumentLista struct {
		Pages    string          `json:"@sidor"`
		Dokument []documentEntry `json:"dokument"`
	} `json:"dokumentlista"`
}

type documentEntry struct {
	ID           string `json:"dok_id"`
	Title        string `json:"titel"`
	Date         string `json:"datum"`
	Session      string `json:"rm"`
	DocumentType string `json:"doktyp"`
	TextURL      string `json:"dokument_url_text"`
	Intressent   []struct {
		ID   string `json:"intressent_id"`
		Roll string `json:"roll"`
	} `json:"dokintressent"`
}

type voteListEnvelope struct {
	VoteringLista struct {
		Pages    string      `json:"@sidor"`
		Votering []voteEntry `json:"votering"`
	} `json:"voteringlista"`
}

type voteEntry struct {
	VoteID     string `json:"votering_id"`
	DocumentID string `json:"dok_id"`
	MemberID   string `json:"intressent_id"`
	Date       string `json:"systemdatum"`
	Title      string `json:"avser"`
	Choice     string `json:"rost"`
	Session    string `json:"rm"`
}

type speechListEnvelope struct {
	AnforandeLista struct {
		Pages     string        `json:"@sidor"`
		Anforande []speechEntry `json:"anforande"`
	} `json:"anforandelista"`
}

type speechEntry struct {
	SpeechID string `json:"anforande_id"`
	MemberID string `json:"intressent_id"`
	DebateID string `json:"rel_dok_id"`
	Title    string `json:"avsnittsrubrik"`
	Text     string `json:"anforandetext"`
	Date     string `json:"dok_datum"`
	Party    string `json:"parti"`
}

func (c *Client) FetchMembers(ctx context.Context) ([]domain.Member, error) {
	query := url.Values{}
	query.Set("utformat", "json")

	var envelope personListEnvelope
	if err := c.getJSON(ctx, "/personlista/", query, &envelope, "personlista"); err != nil {
		return nil, err
	}

	members := make([]domain.Member, 0, len(envelope.PersonLista.Person))
	for _, entry := range envelope.PersonLista.Person {
		if entry.ID == "" {
			continue
		}
		birthYear, _ := strconv.Atoi(entry.BirthYear)
		members = append(members, domain.Member{
			ID:           entry.ID,
			Name:         strings.TrimSpace(entry.FirstName + " " + entry.LastName),
			Party:        entry.Party,
			Constituency: entry.Constituency,
			Gender:       entry.Gender,
			BirthYear:    birthYear,
			ImageURL:     entry.ImageURL,
			Status:       entry.Status,
		})
	}
	return members, nil
}

func (c *Client) FetchMotions(ctx context.Context, session string) ([]domain.Motion, error) {
	var motions []domain.Motion

	for page := 1; page <= c.maxPages; page++ {
		query := url.Values{}
		query.Set("utformat", "json")
		query.Set("doktyp", "mot")
		query.Set("rm", session)
		query.Set("sort", "datum")
		query.Set("sortorder", "desc")
		query.Set("sz", strconv.Itoa(c.pageSize))
		query.Set("p", strconv.Itoa(page))

		var envelope documentListEnvelope
		if err := c.getJSON(ctx, "/dokumentlista/", query, &envelope, "dokumentlista"); err != nil {
			return nil, err
		}

		for _, entry := range envelope.DokumentLista.Dokument {
			if entry.ID == "" {
				continue
			}
			motion := domain.Motion{
				ID:           entry.ID,
				Title:        entry.Title,
				Date:         parseDate(entry.Date),
				Session:      entry.Session,
				DocumentType: entry.DocumentType,
			}
			for _, person := range entry.Intressent {
				if strings.EqualFold(person.Roll, "undertecknare") {
					motion.MemberID = person.ID
					break
				}
			}
			if entry.TextURL != "" {
				text, err := c.getText(ctx, absoluteURL(entry.TextURL), "dokumenttext")
				if err != nil {
					return nil, fmt.Errorf("fetch fulltext for %s: %w", entry.ID, err)
				}
				motion.Fulltext = text
			}
			motions = append(motions, motion)
		}

		if page >= totalPages(envelope.DokumentLista.Pages) {
			break
		}
	}
	return motions, nil
}

func (c *Client) FetchVotes(ctx context.Context, session string) ([]domain.Vote, error) {
	var votes []domain.Vote

	for page := 1; page <= c.maxPages; page++ {
		query := url.Values{}
		query.Set("utformat", "json")
		query.Set("rm", session)
		query.Set("gruppering", "")
		query.Set("sz", strconv.Itoa(c.pageSize))
		query.Set("p", strconv.Itoa(page))

		var envelope voteListEnvelope
		if err := c.getJSON(ctx, "/voteringlista/", query, &envelope, "voteringlista"); err != nil {
			return nil, err
		}

		for _, entry := range envelope.VoteringLista.Votering {
			if entry.VoteID == "" || entry.MemberID == "" {
				continue
			}
			votes = append(votes, domain.Vote{
				VoteID:     entry.VoteID,
				DocumentID: entry.DocumentID,
				MemberID:   entry.MemberID,
				Date:       parseDate(entry.Date),
				Title:      entry.Title,
				Choice:     entry.Choice,
				Session:    entry.Session,
			})
		}

		if page >= totalPages(envelope.VoteringLista.Pages) {
			break
		}
	}
	return votes, nil
}

func (c *Client) FetchSpeeches(ctx context.Context, session string) ([]domain.Speech, error) {
	var speeches []domain.Speech

	for page := 1; page <= c.maxPages; page++ {
		query := url.Values{}
		query.Set("utformat", "json")
		query.Set("rm", session)
		query.Set("sz", strconv.Itoa(c.pageSize))
		query.Set("p", strconv.Itoa(page))

		var envelope speechListEnvelope
		if err := c.getJSON(ctx, "/anforandelista/", query, &envelope, "anforandelista"); err != nil {
			return nil, err
		}

		for _, entry := range envelope.AnforandeLista.Anforande {
			if entry.SpeechID == "" || entry.MemberID == "" {
				continue
			}
			speeches = append(speeches, domain.Speech{
				SpeechID: entry.SpeechID,
				MemberID: entry.MemberID,
				DebateID: entry.DebateID,
				Title:    entry.Title,
				Text:     entry.Text,
				Date:     parseDate(entry.Date),
				Party:    entry.Party,
			})
		}

		if page >= totalPages(envelope.AnforandeLista.Pages) {
			break
		}
	}
	return speeches, nil
}

func absoluteURL(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if strings.HasPrefix(raw, "/") {
		return "https://data.riksdagen.se" + raw
	}
	return raw
}

func totalPages(raw string) int {
	pages, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || pages < 1 {
		return 1
	}
	return pages
}

// parseDate accepts the two timestamp shapes the API mixes freely.
func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
