// Package budget tracks a session-scoped cap on generation output tokens.
// Each cascade attempt reserves its max_tokens allowance up front; once the
// budget is depleted the cascade ends with the same absent-answer fallback
// as an exhausted model list. A zero limit disables the cap entirely.
package budget

import (
	"os"
	"strconv"
	"sync"
)

// Budget is a thread-safe token allowance. The zero value is unusable;
// construct with New.
type Budget struct {
	// mu protects remaining.
	mu sync.Mutex
	// remaining is the number of tokens still reservable.
	remaining int
	// unlimited disables accounting when the limit is zero or negative.
	unlimited bool
}

// New constructs a Budget with the given token limit.
// A limit of zero or less means unlimited: every Reserve succeeds.
func New(limit int) *Budget {
	return &Budget{
		remaining: limit,
		unlimited: limit <= 0,
	}
}

// FromEnv constructs a Budget from ASKDOCS_TOKEN_BUDGET.
// Unset, empty, or malformed values yield an unlimited budget.
func FromEnv() *Budget {
	limit, err := strconv.Atoi(os.Getenv("ASKDOCS_TOKEN_BUDGET"))
	if err != nil {
		return New(0)
	}
	return New(limit)
}

// Reserve takes n tokens from the budget. It reports false without
// deducting anything when fewer than n tokens remain — an attempt is either
// fully funded or not made at all.
func (b *Budget) Reserve(n int) bool {
	if b.unlimited || n <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining < n {
		return false
	}
	b.remaining -= n
	return true
}

// Refund returns n tokens to the budget, used when a funded attempt failed
// before the model produced anything.
func (b *Budget) Refund(n int) {
	if b.unlimited || n <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.remaining += n
}

// Remaining reports the tokens still reservable. Unlimited budgets report -1.
func (b *Budget) Remaining() int {
	if b.unlimited {
		return -1
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}
