package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/report"
	"github.com/rbfontana/acolhe/internal/store"
)

// Scheduler periodically checks for families more than 30 days without a
// donation and notifies subscribed volunteers. Each family is reminded at
// most once per day, tracked in the push_sent table.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	families *store.FamilyStore
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(svc *Service, pushStore *store.PushStore, familyStore *store.FamilyStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		families: familyStore,
		interval: time.Hour,
		logger:   logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now().UTC())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	if !s.service.Configured() {
		return
	}

	families, err := s.families.List()
	if err != nil {
		s.logger.Error("push scheduler: list families", "error", err)
		return
	}

	// The full stale set, not the dashboard's top-5 widget view: every
	// family past the threshold gets its reminder.
	stale := report.StaleFamilies(families, now)
	if len(stale) == 0 {
		return
	}

	subs, err := s.push.List()
	if err != nil {
		s.logger.Error("push scheduler: list subscriptions", "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	today := now.Format("2006-01-02")
	for _, f := range stale {
		refID := fmt.Sprintf("family-%d", f.ID)

		sent, err := s.push.WasSent(model.NotifTypeAttention, refID, today)
		if err != nil {
			s.logger.Error("push scheduler: check sent", "error", err)
			continue
		}
		if sent {
			continue
		}

		payload := Payload{
			Title: "Família precisa de atenção",
			Body:  attentionBody(f, now),
			URL:   fmt.Sprintf("/families/%d", f.ID),
			Tag:   refID,
		}

		for _, sub := range subs {
			if err := s.service.Send(&sub, payload); err != nil {
				if errors.Is(err, ErrExpired) {
					s.push.DeleteByEndpoint(sub.Endpoint)
				} else {
					s.logger.Error("push scheduler: send reminder", "family_id", f.ID, "error", err)
				}
			}
		}

		if err := s.push.MarkSent(model.NotifTypeAttention, refID, today); err != nil {
			s.logger.Error("push scheduler: mark sent", "error", err)
		}
	}
}

func attentionBody(f model.Family, now time.Time) string {
	if f.LastDonation == nil {
		return fmt.Sprintf("%s ainda não recebeu nenhuma doação", f.ResponsibleName)
	}
	days := int(now.Sub(*f.LastDonation).Hours() / 24)
	return fmt.Sprintf("%s está há %d dias sem receber doações", f.ResponsibleName, days)
}
