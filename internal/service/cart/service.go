// Package cart owns each session's cart: it loads the stored state, runs dispatched
// actions through the cart engine in order and saves the result.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"storefront/internal/cart"
	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"

	"go.uber.org/zap"
)

type Service struct {
	repo    cartRepo
	catalog catalog
	logger  *zap.Logger

	locks sync.Map // session id -> *sync.Mutex
}

type cartRepo interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, error)
	Save(ctx context.Context, sessionID string, state domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
}

type catalog interface {
	Get(id int) (domain.CatalogItem, error)
}

func New(repo cartrepo.Repository, catalog catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action   string `json:"action"`
	ItemID   int    `json:"itemId,omitempty"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// Get returns the session's cart, empty if nothing was stored yet.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.CartState, error) {
	state, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		empty := domain.EmptyCart()
		return &empty, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Update applies the actions in the order given and saves once. If any action is
// rejected nothing is saved.
func (s *Service) Update(ctx context.Context, sessionID string, in UpdateInput) (*domain.CartState, error) {
	if len(in.Actions) == 0 {
		return nil, &domain.ValidationError{Message: "actions required"}
	}
	actions := make([]cart.Action, 0, len(in.Actions))
	for i, a := range in.Actions {
		action, err := s.resolve(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, action)
	}
	return s.Dispatch(ctx, sessionID, actions...)
}

// Dispatch runs engine actions against the stored cart under the session lock.
func (s *Service) Dispatch(ctx context.Context, sessionID string, actions ...cart.Action) (*domain.CartState, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next := *state
	for i, action := range actions {
		next, err = cart.Apply(next, action)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
	}
	if err := s.repo.Save(ctx, sessionID, next); err != nil {
		s.logger.Error("save cart failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return &next, nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) (*domain.CartState, error) {
	return s.Dispatch(ctx, sessionID, cart.ClearCart{})
}

// Reset drops the stored cart when a session ends.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.repo.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) resolve(a UpdateAction) (cart.Action, error) {
	size := strings.TrimSpace(a.Size)
	switch strings.ToLower(strings.TrimSpace(a.Action)) {
	case "additem":
		if s.catalog == nil {
			return nil, errors.New("catalog unavailable")
		}
		item, err := s.catalog.Get(a.ItemID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown item %d", a.ItemID), Fields: []string{"itemId"}}
		}
		if err != nil {
			return nil, err
		}
		return cart.AddItem{Item: item, Size: size}, nil
	case "removeline":
		return cart.RemoveLine{ItemID: a.ItemID, Size: size}, nil
	case "setquantity":
		return cart.SetQuantity{ItemID: a.ItemID, Size: size, Quantity: a.Quantity}, nil
	case "clearcart":
		return cart.ClearCart{}, nil
	case "opencart":
		return cart.OpenCart{}, nil
	case "closecart":
		return cart.CloseCart{}, nil
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unsupported action %q", a.Action), Fields: []string{"action"}}
	}
}

// lock returns the session's mutex. Entries are never removed, so every caller for a
// session shares one mutex.
func (s *Service) lock(sessionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
