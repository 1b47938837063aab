package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
)

// AlarmUsecase keeps the "HH:MM" alarm table
type AlarmUsecase struct {
	store  *StateStore
	parser *domain.AlarmParser
	logger *zap.Logger
}

// NewAlarmUsecase creates a new alarm usecase
func NewAlarmUsecase(store *StateStore, parser *domain.AlarmParser, logger *zap.Logger) *AlarmUsecase {
	if parser == nil {
		parser = domain.NewAlarmParser()
	}
	return &AlarmUsecase{
		store:  store,
		parser: parser,
		logger: logger.Named("alarm"),
	}
}

// Save registers the requester under the alarm's key and persists
func (uc *AlarmUsecase) Save(ctx context.Context, at domain.AlarmTime, requesterID, requesterName string) error {
	_, err := uc.store.Update(ctx, func(st *domain.BotState) bool {
		st.AddAlarm(at.Key(), requesterID, requesterName)
		return true
	})
	return err
}

// DrainDue removes and returns every requester waiting for hour:minute.
// Nothing is persisted when the key holds no requesters. When the drain
// cannot be persisted nothing is returned and the alarms stay put.
func (uc *AlarmUsecase) DrainDue(ctx context.Context, hour, minute int) ([]domain.AlarmRequest, error) {
	var due []domain.AlarmRequest
	_, err := uc.store.Update(ctx, func(st *domain.BotState) bool {
		due = st.TakeAlarms(domain.AlarmKey(hour, minute))
		return len(due) > 0
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}

// List returns a copy of the alarm table
func (uc *AlarmUsecase) List() map[string]map[string]string {
	return uc.store.Snapshot().Alarms
}

// Cursor returns the mention cursor
func (uc *AlarmUsecase) Cursor() string {
	return uc.store.Snapshot().LastMention
}

// RecordMentions parses each mention for an alarm, saves hits and
// advances the mention cursor. State is persisted once when anything
// changed. It returns the number of alarms set.
func (uc *AlarmUsecase) RecordMentions(ctx context.Context, mentions []domain.Status, cursor string) (int, error) {
	added := 0
	_, err := uc.store.Update(ctx, func(st *domain.BotState) bool {
		dirty := false
		if cursor != "" && cursor != st.LastMention {
			st.LastMention = cursor
			dirty = true
		}
		for _, m := range mentions {
			at, ok := uc.parser.Parse(m.Text)
			if !ok {
				continue
			}
			uc.logger.Info("alarm requested",
				zap.String("id", m.ID),
				zap.String("from", m.ScreenName),
				zap.String("text", m.Text),
				zap.String("at", at.Key()))
			st.AddAlarm(at.Key(), m.ID, m.ScreenName)
			added++
			dirty = true
		}
		return dirty
	})
	if err != nil {
		return added, fmt.Errorf("record mentions: %w", err)
	}
	return added, nil
}
