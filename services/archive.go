package services

import (
	"context"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/storage"
)

// ScheduleArchiver stores a snapshot of the schedule each time one is generated. It runs as an
// event subscriber, after the generating command has committed.
func ScheduleArchiver(schedule ScheduleService, store storage.ObjectStore) events.Handler {
	return func(ctx context.Context, env events.Envelope) error {
		if env.Type != events.TypeScheduleGenerated {
			return nil
		}
		view, err := schedule.GetSchedule(ctx, env.DivisionID)
		if err != nil {
			return fmt.Errorf("load schedule for archive: %w", err)
		}
		key := fmt.Sprintf("schedules/%s/%s.json", env.DivisionID, env.ID)
		_, err = storage.PutJSON(ctx, store, key, view)
		return err
	}
}
