package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func hashOf(cc *CachedCapsule) map[string]string {
	args := encodeCapsule(cc)
	vals := make(map[string]string, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		vals[args[i].(string)] = fmt.Sprint(args[i+1])
	}
	return vals
}

func TestDecodeCapsule_EncodedHash(t *testing.T) {
	cc := &CachedCapsule{
		ID:              uuid.New(),
		Name:            "Hash",
		CreatorID:       uuid.New(),
		ScheduledOpenAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		ActualOpenAt:    "",
		AuctionEnabled:  true,
		Status:          "LOCKED",
		FloorBid:        "0.1",
		CurrentBid:      "0.1",
		Network:         "BNB",
		Version:         1,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	got, err := decodeCapsule(hashOf(cc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != *cc {
		t.Fatalf("decoded capsule differs:\n got %+v\nwant %+v", got, cc)
	}
}

func TestDecodeCapsule_CorruptFields(t *testing.T) {
	base := &CachedCapsule{ID: uuid.New(), CreatorID: uuid.New(), Version: 1}

	for _, field := range []string{"id", "creator_id", "scheduled_open_at", "created_at", "updated_at", "auction_enabled", "version"} {
		t.Run(field, func(t *testing.T) {
			vals := hashOf(base)
			vals[field] = "garbage"
			if _, err := decodeCapsule(vals); err == nil {
				t.Fatalf("expected error for corrupt %s", field)
			}
		})
	}
}
