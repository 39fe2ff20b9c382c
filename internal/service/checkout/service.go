// Package checkout sequences a checkout: validate the cart and shipping form, pay through
// the wallet, park the pending order, clear the cart, and finally record the order.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/pending"
	"storefront/internal/retry"
	"storefront/internal/service/order"
	"storefront/internal/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	RecipientAddress string
	TokenMint        string
	PaymentTimeout   time.Duration
	Persist          retry.Policy
}

type Service struct {
	cfg     Config
	carts   cartStore
	gateway wallet.Gateway
	orders  orderSubmitter
	mailbox pending.Mailbox
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	confirms singleflight.Group
	now      func() time.Time
}

type cartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, error)
	Clear(ctx context.Context, sessionID string) (*domain.CartState, error)
}

type orderSubmitter interface {
	Submit(ctx context.Context, in order.SubmitInput) (*domain.Order, error)
}

func New(cfg Config, carts cartStore, gw wallet.Gateway, orders orderSubmitter, mailbox pending.Mailbox, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 90 * time.Second
	}
	return &Service{
		cfg:      cfg,
		carts:    carts,
		gateway:  gw,
		orders:   orders,
		mailbox:  mailbox,
		logger:   logger,
		inFlight: make(map[string]struct{}),
		now:      time.Now,
	}
}

// Attempt is the outcome of a checkout submission. Confirmation is set when the pending
// order could not be parked and the order was recorded during submission instead.
type Attempt struct {
	Status       Status          `json:"status"`
	TxHash       string          `json:"transactionHash,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Reason       string          `json:"reason,omitempty"`
	Confirmation *Confirmation   `json:"confirmation,omitempty"`
}

// Confirmation is what the confirmation page shows. Warning is set when the payment
// went through but the order record could not be saved.
type Confirmation struct {
	Status          Status                 `json:"status"`
	OrderID         string                 `json:"orderId,omitempty"`
	TxHash          string                 `json:"transactionHash"`
	Total           decimal.Decimal        `json:"total"`
	Items           []domain.CartLine      `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Warning         string                 `json:"warning,omitempty"`
}

// Begin is the checkout page entry check.
func (s *Service) Begin(ctx context.Context, sessionID string) (*domain.CartState, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, &domain.ValidationError{Message: "cart is empty"}
	}
	return cart, nil
}

// Submit runs validation and payment, parks the pending order and clears the cart.
// A second submission for the same session while one is running gets ErrCheckoutInProgress.
func (s *Service) Submit(ctx context.Context, sessionID string, addr domain.ShippingAddress) (*Attempt, error) {
	if !s.acquire(sessionID) {
		return nil, domain.ErrCheckoutInProgress
	}
	defer s.release(sessionID)

	m := &machine{status: StatusIdle}
	attempt := &Attempt{Status: m.status}
	fail := func(err error) (*Attempt, error) {
		_ = m.moveTo(StatusFailed)
		attempt.Status = m.status
		attempt.Reason = err.Error()
		return attempt, err
	}

	if err := m.moveTo(StatusValidating); err != nil {
		return nil, err
	}
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return fail(err)
	}
	attempt.Total = cart.Total
	if cart.IsEmpty() {
		return fail(&domain.ValidationError{Message: "cart is empty"})
	}
	addr = trimAddress(addr)
	if missing := addr.MissingFields(); len(missing) > 0 {
		return fail(&domain.ValidationError{Message: "missing required fields", Fields: missing})
	}

	if err := m.moveTo(StatusAwaitingPayment); err != nil {
		return nil, err
	}
	attempt.Status = m.status
	// Once sent a payment cannot be recalled, so it outlives the client request.
	payCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PaymentTimeout)
	defer cancel()
	hash, err := s.gateway.SendPayment(payCtx, s.cfg.RecipientAddress, s.cfg.TokenMint, cart.Total)
	if err == nil && strings.TrimSpace(hash) == "" {
		err = errors.New("wallet returned an empty transaction hash")
	}
	if err != nil {
		s.logger.Error("payment failed", zap.String("session_id", sessionID), zap.Error(err))
		return fail(&domain.PaymentError{Err: err})
	}
	attempt.TxHash = hash
	s.logger.Info("payment sent", zap.String("session_id", sessionID), zap.String("tx_hash", hash),
		zap.String("total", cart.Total.String()))

	// The rest must not be abandoned halfway now that money has moved.
	bg := context.WithoutCancel(ctx)
	snapshot := domain.PendingOrder{
		Lines:           cart.Lines,
		Total:           cart.Total,
		ShippingAddress: addr,
		TransactionHash: hash,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.mailbox.ClearReceipt(bg, sessionID); err != nil {
		s.logger.Warn("clear previous receipt failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	parkErr := s.mailbox.Put(bg, sessionID, snapshot)
	if parkErr != nil {
		s.logger.Error("park pending order failed, recording order directly", zap.String("session_id", sessionID),
			zap.String("tx_hash", hash), zap.Error(parkErr))
	}
	if err := m.moveTo(StatusPersistingOrder); err != nil {
		return nil, err
	}
	attempt.Status = m.status
	if _, err := s.carts.Clear(bg, sessionID); err != nil {
		s.logger.Error("clear cart after payment failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	if parkErr == nil {
		return attempt, nil
	}

	conf := s.record(bg, sessionID, snapshot)
	s.saveReceipt(bg, sessionID, conf)
	attempt.Status = conf.Status
	attempt.Confirmation = conf
	return attempt, receiptErr(conf)
}

// Confirm records the pending order exactly once. Concurrent and repeated calls for a
// session get the first result back without submitting again.
func (s *Service) Confirm(ctx context.Context, sessionID string) (*Confirmation, error) {
	v, err, _ := s.confirms.Do(sessionID, func() (any, error) {
		return s.confirm(context.WithoutCancel(ctx), sessionID)
	})
	conf, _ := v.(*Confirmation)
	return conf, err
}

func (s *Service) confirm(ctx context.Context, sessionID string) (*Confirmation, error) {
	if conf, ok := s.receipt(ctx, sessionID); ok {
		return conf, receiptErr(conf)
	}

	snapshot, err := s.mailbox.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.NotFoundError{Message: "no pending order for this session"}
	}
	if err != nil {
		return nil, err
	}

	conf := s.record(ctx, sessionID, *snapshot)
	if err := s.mailbox.Delete(ctx, sessionID); err != nil {
		s.logger.Error("delete pending order failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.saveReceipt(ctx, sessionID, conf)
	return conf, receiptErr(conf)
}

// record submits the order and reports the outcome as a confirmation.
func (s *Service) record(ctx context.Context, sessionID string, snapshot domain.PendingOrder) *Confirmation {
	m := &machine{status: StatusPersistingOrder}
	conf := &Confirmation{
		TxHash:          snapshot.TransactionHash,
		Total:           snapshot.Total,
		Items:           snapshot.Lines,
		ShippingAddress: snapshot.ShippingAddress,
	}
	created, err := s.persist(ctx, snapshot)
	if err != nil {
		_ = m.moveTo(StatusFailed)
		conf.Status = m.status
		conf.Warning = "Payment succeeded, but the order record failed to save. Keep the transaction hash for reference."
		s.logger.Error("order persistence failed after payment",
			zap.String("session_id", sessionID), zap.String("tx_hash", snapshot.TransactionHash), zap.Error(err))
		return conf
	}
	_ = m.moveTo(StatusCompleted)
	conf.Status = m.status
	conf.OrderID = created.OrderID
	return conf
}

func (s *Service) persist(ctx context.Context, snapshot domain.PendingOrder) (*domain.Order, error) {
	walletAddr, err := s.gateway.Address(ctx)
	if err != nil {
		return nil, err
	}
	in := order.SubmitInput{
		Items:           snapshot.Lines,
		Total:           snapshot.Total,
		ShippingAddress: snapshot.ShippingAddress,
		TransactionHash: snapshot.TransactionHash,
		WalletAddress:   walletAddr,
	}
	return retry.DoValue(ctx, s.cfg.Persist, func(ctx context.Context) (*domain.Order, error) {
		o, err := s.orders.Submit(ctx, in)
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return nil, retry.Permanent(err)
		}
		return o, err
	})
}

func (s *Service) receipt(ctx context.Context, sessionID string) (*Confirmation, bool) {
	data, err := s.mailbox.Receipt(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("read receipt failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return nil, false
	}
	var conf Confirmation
	if err := json.Unmarshal(data, &conf); err != nil {
		s.logger.Warn("decode receipt failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, false
	}
	return &conf, true
}

func (s *Service) saveReceipt(ctx context.Context, sessionID string, conf *Confirmation) {
	data, err := json.Marshal(conf)
	if err == nil {
		err = s.mailbox.SaveReceipt(ctx, sessionID, data)
	}
	if err != nil {
		s.logger.Warn("save receipt failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func receiptErr(conf *Confirmation) error {
	if conf.Status == StatusFailed {
		return &domain.PersistenceError{TxHash: conf.TxHash, Err: errors.New(conf.Warning)}
	}
	return nil
}

func (s *Service) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	s.mu.Unlock()
}

func trimAddress(a domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName: strings.TrimSpace(a.FullName),
		Street:   strings.TrimSpace(a.Street),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
		ZipCode:  strings.TrimSpace(a.ZipCode),
		Country:  strings.TrimSpace(a.Country),
		Email:    strings.TrimSpace(a.Email),
	}
}
