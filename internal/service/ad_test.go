package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/validation"
)

func newAdService(now time.Time) (*AdService, *fakeAdStore) {
	store := newFakeAdStore()
	svc := NewAdService(store, discardLogger(), metrics.NewInMemory())
	svc.now = fixedClock(now)
	return svc, store
}

func january() (time.Time, time.Time) {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
}

func TestAdService_CreateRejectsInvertedRange(t *testing.T) {
	start, end := january()
	svc, store := newAdService(start)

	_, err := svc.Create(context.Background(), CreateAdInput{Title: "Sale", StartDate: end, EndDate: start})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
	if len(store.ads) != 0 {
		t.Error("rejected ad must not be stored")
	}
}

func TestAdService_PriorityRange(t *testing.T) {
	start, end := january()
	svc, store := newAdService(start)
	ctx := context.Background()

	var verr *validation.Error
	_, err := svc.Create(ctx, CreateAdInput{Title: "Sale", Priority: 101, StartDate: start, EndDate: end})
	if !errors.As(err, &verr) {
		t.Fatalf("Create() priority 101 err = %v, want validation error", err)
	}
	if len(store.ads) != 0 {
		t.Error("rejected ad must not be stored")
	}

	ad, err := svc.Create(ctx, CreateAdInput{Title: "Sale", Priority: 100, StartDate: start, EndDate: end})
	if err != nil {
		t.Fatalf("Create() priority 100 error = %v", err)
	}
	tooHigh := 101
	if _, err := svc.Update(ctx, ad.ID.Hex(), UpdateAdInput{Priority: &tooHigh}); !errors.As(err, &verr) {
		t.Errorf("Update() priority 101 err = %v, want validation error", err)
	}
}

func TestAdService_StatusLifecycle(t *testing.T) {
	start, end := january()
	mid := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	svc, _ := newAdService(mid)
	ctx := context.Background()

	ad, err := svc.Create(ctx, CreateAdInput{Title: "Sale", StartDate: start, EndDate: end})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ad.Status != model.AdStatusActive || !ad.Active {
		t.Errorf("status = %q active = %v, want active", ad.Status, ad.Active)
	}

	svc.now = fixedClock(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	title := "Sale ended"
	ad, err = svc.Update(ctx, ad.ID.Hex(), UpdateAdInput{Title: &title})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if ad.Status != model.AdStatusExpired || ad.Active {
		t.Errorf("status = %q active = %v, want expired", ad.Status, ad.Active)
	}

	before := start.Add(-time.Hour)
	if _, err := svc.Update(ctx, ad.ID.Hex(), UpdateAdInput{EndDate: &before}); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("Update() with inverted range err = %v", err)
	}
}

func TestAdService_PinnedDraft(t *testing.T) {
	start, end := january()
	mid := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	svc, _ := newAdService(mid)
	ctx := context.Background()

	ad, err := svc.Create(ctx, CreateAdInput{Title: "Hidden", StartDate: start, EndDate: end, Status: "draft"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ad.Status != model.AdStatusDraft || ad.Active {
		t.Fatalf("explicit draft should stay draft, got %q active=%v", ad.Status, ad.Active)
	}

	prio := 5
	ad, _ = svc.Update(ctx, ad.ID.Hex(), UpdateAdInput{Priority: &prio})
	if ad.Status != model.AdStatusDraft {
		t.Errorf("pinned draft changed to %q on unrelated update", ad.Status)
	}

	active, err := svc.Active(ctx, 10)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("pinned draft served: %+v", active)
	}

	status := "active"
	ad, _ = svc.Update(ctx, ad.ID.Hex(), UpdateAdInput{Status: &status})
	if ad.Status != model.AdStatusActive {
		t.Errorf("unpinning should re-derive status, got %q", ad.Status)
	}
}

func TestAdService_Counters(t *testing.T) {
	start, end := january()
	svc, _ := newAdService(start)
	ctx := context.Background()

	ad, _ := svc.Create(ctx, CreateAdInput{Title: "Sale", StartDate: start, EndDate: end})
	for i := 0; i < 3; i++ {
		if _, err := svc.RecordImpression(ctx, ad.ID.Hex()); err != nil {
			t.Fatalf("RecordImpression() error = %v", err)
		}
	}
	got, err := svc.RecordClick(ctx, ad.ID.Hex())
	if err != nil {
		t.Fatalf("RecordClick() error = %v", err)
	}
	if got.Clicks != 1 || got.Impressions != 3 {
		t.Errorf("clicks/impressions = %d/%d, want 1/3", got.Clicks, got.Impressions)
	}

	if _, err := svc.RecordClick(ctx, "nope"); !errors.Is(err, ErrAdNotFound) {
		t.Errorf("RecordClick(bad id) err = %v", err)
	}
}
