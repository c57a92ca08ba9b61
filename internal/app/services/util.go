package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/classroom/internal/pkg/video"
)

// uniqueIDs drops nil and repeated ids, keeping first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// deleteRoomBestEffort deletes a video room and only logs a failure.
func deleteRoomBestEffort(ctx context.Context, provider video.Provider, logger zerolog.Logger, roomName string) {
	if err := provider.DeleteRoom(ctx, roomName); err != nil {
		logger.Error().Err(err).Str("room", roomName).Msg("Failed to delete video room")
		return
	}
	logger.Debug().Str("room", roomName).Msg("Video room deleted")
}
