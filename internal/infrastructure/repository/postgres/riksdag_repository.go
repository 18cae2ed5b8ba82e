package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

// RiksdagRepository reads and writes ingested parliamentary records.
// Ingest is idempotent: members are upserted, everything else inserted
// with ON CONFLICT DO NOTHING so re-running a sync never duplicates.
type RiksdagRepository struct {
	db *sql.DB
}

func NewRiksdagRepository(db *sql.DB) *RiksdagRepository {
	return &RiksdagRepository{db: db}
}

// ListMotionsWithoutAnalysis selects candidate motions for a new batch:
// motions from the given sessions that have fulltext and no stored
// quality analysis yet. The anti-join makes resubmission naturally skip
// what previous batches already covered.
func (r *RiksdagRepository) ListMotionsWithoutAnalysis(ctx context.Context, sessions []string, limit int) ([]domain.Motion, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.ledamot_id, m.titel, m.datum, m.riksmote, m.dokument_typ, m.fulltext
FROM motioner m
LEFT JOIN motion_kvalitet mk ON mk.motion_id = m.id
WHERE mk.motion_id IS NULL
  AND m.fulltext <> ''
  AND m.riksmote = ANY($1)
ORDER BY m.datum DESC
LIMIT $2
`, sessions, limit)
	if err != nil {
		return nil, fmt.Errorf("list motions without analysis: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Motion, 0)
	for rows.Next() {
		var motion domain.Motion
		var memberID sql.NullString
		if err := rows.Scan(&motion.ID, &memberID, &motion.Title, &motion.Date,
			&motion.Session, &motion.DocumentType, &motion.Fulltext); err != nil {
			return nil, fmt.Errorf("scan motion: %w", err)
		}
		motion.MemberID = memberID.String
		out = append(out, motion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate motions: %w", err)
	}
	return out, nil
}

// ListMembersWithoutAnalysis selects members lacking a stored analysis
// of the given kind. Only members with recorded votes qualify; a member
// with no voting history has nothing to analyze.
func (r *RiksdagRepository) ListMembersWithoutAnalysis(ctx context.Context, kind domain.AnalysisKind, limit int) ([]domain.Member, error) {
	var table string
	switch kind {
	case domain.KindAbsenceDetection:
		table = "franvaro_analys"
	case domain.KindRhetoricAnalysis:
		table = "retorik_analys"
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "list members without analysis", fmt.Errorf("kind %s has no member analysis", kind))
	}

	query := fmt.Sprintf(`
SELECT l.id, l.namn, l.parti, l.valkrets, l.kon, l.fodd_ar, l.bild_url, l.status
FROM ledamoter l
LEFT JOIN %s a ON a.ledamot_id = l.id
WHERE a.ledamot_id IS NULL
  AND EXISTS (SELECT 1 FROM voteringar v WHERE v.ledamot_id = l.id)
ORDER BY l.namn ASC
LIMIT $1
`, table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list members without analysis: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

func (r *RiksdagRepository) ListVotesForMember(ctx context.Context, memberID string, limit int) ([]domain.Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT votering_id, dokument_id, ledamot_id, datum, titel, rost, riksmote
FROM voteringar
WHERE ledamot_id = $1
ORDER BY datum DESC
LIMIT $2
`, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list votes for member: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Vote, 0)
	for rows.Next() {
		var vote domain.Vote
		if err := rows.Scan(&vote.VoteID, &vote.DocumentID, &vote.MemberID,
			&vote.Date, &vote.Title, &vote.Choice, &vote.Session); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return out, nil
}

func (r *RiksdagRepository) ListSpeechesForMember(ctx context.Context, memberID string, limit int) ([]domain.Speech, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT anforande_id, ledamot_id, debatt_id, titel, text, datum, parti
FROM anforanden
WHERE ledamot_id = $1
ORDER BY datum DESC
LIMIT $2
`, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list speeches for member: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Speech, 0)
	for rows.Next() {
		var speech domain.Speech
		var debateID, title, party sql.NullString
		if err := rows.Scan(&speech.SpeechID, &speech.MemberID, &debateID,
			&title, &speech.Text, &speech.Date, &party); err != nil {
			return nil, fmt.Errorf("scan speech: %w", err)
		}
		speech.DebateID = debateID.String
		speech.Title = title.String
		speech.Party = party.String
		out = append(out, speech)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate speeches: %w", err)
	}
	return out, nil
}

// UpsertMembers refreshes the member roster. Party and status change
// between sessions, so conflicts update in place.
func (r *RiksdagRepository) UpsertMembers(ctx context.Context, members []domain.Member) (int, error) {
	count := 0
	for _, member := range members {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO ledamoter (id, namn, parti, valkrets, kon, fodd_ar, bild_url, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE
SET namn = EXCLUDED.namn, parti = EXCLUDED.parti, valkrets = EXCLUDED.valkrets,
    kon = EXCLUDED.kon, fodd_ar = EXCLUDED.fodd_ar, bild_url = EXCLUDED.bild_url,
    status = EXCLUDED.status
`, member.ID, member.Name, member.Party, member.Constituency,
			member.Gender, member.BirthYear, member.ImageURL, member.Status)
		if err != nil {
			return count, fmt.Errorf("upsert member %s: %w", member.ID, err)
		}
		count++
	}
	return count, nil
}

func (r *RiksdagRepository) InsertMotions(ctx context.Context, motions []domain.Motion) (int, error) {
	count := 0
	for _, motion := range motions {
		result, err := r.db.ExecContext(ctx, `
INSERT INTO motioner (id, ledamot_id, titel, datum, riksmote, dokument_typ, fulltext)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`, motion.ID, nullIfEmpty(motion.MemberID), motion.Title, motion.Date,
			motion.Session, motion.DocumentType, motion.Fulltext)
		if err != nil {
			return count, fmt.Errorf("insert motion %s: %w", motion.ID, err)
		}
		count += int(affectedOrZero(result))
	}
	return count, nil
}

func (r *RiksdagRepository) InsertVotes(ctx context.Context, votes []domain.Vote) (int, error) {
	count := 0
	for _, vote := range votes {
		result, err := r.db.ExecContext(ctx, `
INSERT INTO voteringar (votering_id, dokument_id, ledamot_id, datum, titel, rost, riksmote)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (votering_id, ledamot_id) DO NOTHING
`, vote.VoteID, vote.DocumentID, vote.MemberID, vote.Date, vote.Title, vote.Choice, vote.Session)
		if err != nil {
			return count, fmt.Errorf("insert vote %s/%s: %w", vote.VoteID, vote.MemberID, err)
		}
		count += int(affectedOrZero(result))
	}
	return count, nil
}

func (r *RiksdagRepository) InsertSpeeches(ctx context.Context, speeches []domain.Speech) (int, error) {
	count := 0
	for _, speech := range speeches {
		result, err := r.db.ExecContext(ctx, `
INSERT INTO anforanden (anforande_id, ledamot_id, debatt_id, titel, text, datum, parti)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (anforande_id) DO NOTHING
`, speech.SpeechID, speech.MemberID, nullIfEmpty(speech.DebateID),
			nullIfEmpty(speech.Title), speech.Text, speech.Date, nullIfEmpty(speech.Party))
		if err != nil {
			return count, fmt.Errorf("insert speech %s: %w", speech.SpeechID, err)
		}
		count += int(affectedOrZero(result))
	}
	return count, nil
}

func scanMember(row jobScanner) (domain.Member, error) {
	var member domain.Member
	var imageURL, status sql.NullString
	err := row.Scan(
		&member.ID,
		&member.Name,
		&member.Party,
		&member.Constituency,
		&member.Gender,
		&member.BirthYear,
		&imageURL,
		&status,
	)
	if err != nil {
		return domain.Member{}, fmt.Errorf("scan member: %w", err)
	}
	member.ImageURL = imageURL.String
	member.Status = status.String
	return member, nil
}

func nullIfEmpty(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func affectedOrZero(result sql.Result) int64 {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0
	}
	return affected
}
