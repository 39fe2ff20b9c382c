package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/cart"
	catalogpkg "storefront/internal/catalog"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type stubRepo struct {
	mu        sync.Mutex
	carts     map[string]domain.CartState
	getErr    error
	saveErr   error
	saves     int
	deleted   []string
	lastSaved domain.CartState
}

func newStubRepo() *stubRepo {
	return &stubRepo{carts: map[string]domain.CartState{}}
}

func (s *stubRepo) Get(_ context.Context, sessionID string) (*domain.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	state, ok := s.carts[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

func (s *stubRepo) Save(_ context.Context, sessionID string, state domain.CartState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.carts[sessionID] = state
	s.lastSaved = state
	return nil
}

func (s *stubRepo) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, sessionID)
	delete(s.carts, sessionID)
	return nil
}

func newService(repo *stubRepo) *Service {
	return New(repo, catalogpkg.Default(), nil)
}

func TestGetReturnsEmptyCartWhenNothingStored(t *testing.T) {
	svc := newService(newStubRepo())
	got, err := svc.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsEmpty() || !got.Total.IsZero() || got.IsOpen {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestGetPropagatesRepoError(t *testing.T) {
	repo := newStubRepo()
	repo.getErr = errors.New("boom")
	if _, err := newService(repo).Get(context.Background(), "s1"); err == nil || err.Error() != "boom" {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestUpdateRequiresActions(t *testing.T) {
	_, err := newService(newStubRepo()).Update(context.Background(), "s1", UpdateInput{})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAppliesActionsInOrderAndSavesOnce(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	got, err := svc.Update(context.Background(), "s1", UpdateInput{Actions: []UpdateAction{
		{Action: "addItem", ItemID: 1, Size: "M"},
		{Action: "addItem", ItemID: 1, Size: "M"},
		{Action: "setQuantity", ItemID: 1, Size: "M", Quantity: 5},
		{Action: "addItem", ItemID: 2},
		{Action: "closeCart"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saves != 1 {
		t.Fatalf("expected one save, got %d", repo.saves)
	}
	if len(got.Lines) != 2 || got.Lines[0].Quantity != 5 {
		t.Fatalf("unexpected lines: %+v", got.Lines)
	}
	if !got.Total.Equal(decimal.NewFromInt(145)) {
		t.Fatalf("expected total 145, got %s", got.Total)
	}
	if got.IsOpen {
		t.Fatalf("expected cart closed after closeCart")
	}
}

func TestUpdateRejectedActionSavesNothing(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	_, err := svc.Update(context.Background(), "s1", UpdateInput{Actions: []UpdateAction{
		{Action: "addItem", ItemID: 2},
		{Action: "addItem", ItemID: 1},
	}})
	if !errors.Is(err, cart.ErrSizeRequired) {
		t.Fatalf("expected ErrSizeRequired, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected no save, got %d", repo.saves)
	}
}

func TestUpdateUnknownItemOrAction(t *testing.T) {
	svc := newService(newStubRepo())
	for _, a := range []UpdateAction{
		{Action: "addItem", ItemID: 999},
		{Action: "explode"},
	} {
		_, err := svc.Update(context.Background(), "s1", UpdateInput{Actions: []UpdateAction{a}})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", a.Action, err)
		}
	}
}

func TestUpdateSaveError(t *testing.T) {
	repo := newStubRepo()
	repo.saveErr = errors.New("db down")
	_, err := newService(repo).Update(context.Background(), "s1", UpdateInput{Actions: []UpdateAction{{Action: "openCart"}}})
	if err == nil || err.Error() != "db down" {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestClearAndReset(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)
	ctx := context.Background()

	if _, err := svc.Update(ctx, "s1", UpdateInput{Actions: []UpdateAction{{Action: "addItem", ItemID: 3}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cleared, err := svc.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cleared.IsEmpty() || cleared.IsOpen || !cleared.Total.IsZero() {
		t.Fatalf("expected cleared cart, got %+v", cleared)
	}

	if err := svc.Reset(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "s1" {
		t.Fatalf("expected s1 deleted, got %v", repo.deleted)
	}
}

func TestResetKeepsSessionLock(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)
	ctx := context.Background()

	before := svc.lock("s1")
	if err := svc.Reset(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lock("s1") != before {
		t.Fatal("expected reset to keep the session lock")
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%5 == 0 {
				if err := svc.Reset(ctx, "s1"); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if _, err := svc.Update(ctx, "s1", UpdateInput{Actions: []UpdateAction{{Action: "addItem", ItemID: 5}}}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if svc.lock("s1") != before {
		t.Fatal("expected one lock per session")
	}
}

func TestConcurrentDispatchesDoNotLoseUpdates(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Update(ctx, "s1", UpdateInput{Actions: []UpdateAction{{Action: "addItem", ItemID: 5}}}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := svc.Get(ctx, "s1")
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 20 {
		t.Fatalf("expected quantity 20, got %+v", got.Lines)
	}
	if !got.Total.Equal(decimal.NewFromInt(160)) {
		t.Fatalf("expected total 160, got %s", got.Total)
	}
}
