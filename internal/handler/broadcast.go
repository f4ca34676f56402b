package handler

import (
	"log/slog"

	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/store"
	"github.com/rbfontana/acolhe/internal/websocket"
)

// Broadcaster pushes full collection snapshots to websocket clients after
// mutations. Clients replace their local state wholesale, so a missed
// broadcast is healed by the next one.
type Broadcaster struct {
	hub       *websocket.Hub
	families  *store.FamilyStore
	donations *store.DonationStore
	logger    *slog.Logger
}

func NewBroadcaster(hub *websocket.Hub, fs *store.FamilyStore, ds *store.DonationStore, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, families: fs, donations: ds, logger: logger}
}

// Families broadcasts the current family collection.
func (b *Broadcaster) Families() {
	families, err := b.families.List()
	if err != nil {
		b.logger.Error("snapshot families", "error", err)
		return
	}
	if families == nil {
		families = []model.Family{}
	}
	b.hub.Broadcast(websocket.SnapshotMessage(websocket.EntityFamilies, families))
}

// Donations broadcasts the current donation collection.
func (b *Broadcaster) Donations() {
	donations, err := b.donations.List()
	if err != nil {
		b.logger.Error("snapshot donations", "error", err)
		return
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	b.hub.Broadcast(websocket.SnapshotMessage(websocket.EntityDonations, donations))
}

// All broadcasts both collections. Donation mutations touch the derived
// last-donation field on families, so both views change together.
func (b *Broadcaster) All() {
	b.Families()
	b.Donations()
}

// InitialMessages builds the snapshots sent to a freshly connected
// client.
func (b *Broadcaster) InitialMessages() ([]websocket.Message, error) {
	families, err := b.families.List()
	if err != nil {
		return nil, err
	}
	if families == nil {
		families = []model.Family{}
	}
	donations, err := b.donations.List()
	if err != nil {
		return nil, err
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	return []websocket.Message{
		websocket.SnapshotMessage(websocket.EntityFamilies, families),
		websocket.SnapshotMessage(websocket.EntityDonations, donations),
	}, nil
}
