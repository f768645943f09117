// Package ledger is the narrow boundary to the wallet/ledger collaborator.
// The settlement engine only ever debits premiums, credits payouts and reads
// balances; address and key management live on the other side.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is the collaborator-failure error. The lifecycle manager
// must not advance policy state when a ledger call fails with it.
var ErrUnavailable = errors.New("ledger unavailable")

// ErrInsufficientFunds is returned by Debit when the holder cannot cover the
// amount. Application validation normally catches this first via BalanceOf.
var ErrInsufficientFunds = errors.New("insufficient funds")

type Ledger interface {
	Debit(ctx context.Context, holderID string, amount float64) error
	Credit(ctx context.Context, holderID string, amount float64) error
	BalanceOf(ctx context.Context, holderID string) (float64, error)
}

// MemoryLedger is the in-process simulated wallet. New holders start with the
// default balance the first time they are seen.
type MemoryLedger struct {
	mu             sync.Mutex
	balances       map[string]float64
	defaultBalance float64
}

func NewMemoryLedger(defaultBalance float64) *MemoryLedger {
	return &MemoryLedger{
		balances:       make(map[string]float64),
		defaultBalance: defaultBalance,
	}
}

// SetBalance overwrites a holder's balance, mainly for seeding tests.
func (l *MemoryLedger) SetBalance(holderID string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[holderID] = amount
}

func (l *MemoryLedger) Debit(ctx context.Context, holderID string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must be non-negative, got %v", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balanceLocked(holderID)
	if balance < amount {
		return fmt.Errorf("debit %v from %s: %w", amount, holderID, ErrInsufficientFunds)
	}
	l.balances[holderID] = balance - amount
	return nil
}

func (l *MemoryLedger) Credit(ctx context.Context, holderID string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must be non-negative, got %v", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[holderID] = l.balanceLocked(holderID) + amount
	return nil
}

func (l *MemoryLedger) BalanceOf(ctx context.Context, holderID string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(holderID), nil
}

func (l *MemoryLedger) balanceLocked(holderID string) float64 {
	if balance, ok := l.balances[holderID]; ok {
		return balance
	}
	l.balances[holderID] = l.defaultBalance
	return l.defaultBalance
}
