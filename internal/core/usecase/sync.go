package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
)

// SyncDataUseCase ingests open parliamentary data into the local store.
// Re-running a sync is harmless: members are upserted and everything
// else is insert-or-skip.
type SyncDataUseCase struct {
	api   ports.RiksdagAPI
	store ports.RiksdagStore
}

func NewSyncDataUseCase(api ports.RiksdagAPI, store ports.RiksdagStore) *SyncDataUseCase {
	return &SyncDataUseCase{api: api, store: store}
}

func (uc *SyncDataUseCase) SyncAll(ctx context.Context, sessions []string) (*domain.SyncReport, error) {
	if len(sessions) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "sync all", fmt.Errorf("no sessions given"))
	}

	report := &domain.SyncReport{}

	members, err := uc.api.FetchMembers(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch members: %w", err)
	}
	report.Members, err = uc.store.UpsertMembers(ctx, members)
	if err != nil {
		return report, fmt.Errorf("upsert members: %w", err)
	}

	for _, session := range sessions {
		motions, err := uc.api.FetchMotions(ctx, session)
		if err != nil {
			return report, fmt.Errorf("fetch motions %s: %w", session, err)
		}
		inserted, err := uc.store.InsertMotions(ctx, motions)
		if err != nil {
			return report, fmt.Errorf("insert motions %s: %w", session, err)
		}
		report.Motions += inserted

		votes, err := uc.api.FetchVotes(ctx, session)
		if err != nil {
			return report, fmt.Errorf("fetch votes %s: %w", session, err)
		}
		inserted, err = uc.store.InsertVotes(ctx, votes)
		if err != nil {
			return report, fmt.Errorf("insert votes %s: %w", session, err)
		}
		report.Votes += inserted

		speeches, err := uc.api.FetchSpeeches(ctx, session)
		if err != nil {
			return report, fmt.Errorf("fetch speeches %s: %w", session, err)
		}
		inserted, err = uc.store.InsertSpeeches(ctx, speeches)
		if err != nil {
			return report, fmt.Errorf("insert speeches %s: %w", session, err)
		}
		report.Speeches += inserted

		slog.Info("session synced", "session", session)
	}

	slog.Info("data sync finished",
		"members", report.Members,
		"motions", report.Motions,
		"votes", report.Votes,
		"speeches", report.Speeches,
	)
	return report, nil
}

var _ ports.DataSyncer = (*SyncDataUseCase)(nil)
