package account

import (
	"errors"

	"fulfillment/internal/pkg/errs"
)

var (
	// ErrAccountIsNotConstructed is returned when an Account instance was not
	// created through NewAccount or RestoreAccount.
	ErrAccountIsNotConstructed = errors.New("Account must be created via NewAccount or RestoreAccount constructor")
)

// Account is a single-use credential bundle held in inventory. It is handed
// out exactly once: after consumption the record stays in storage as an
// audit trail but is never reselected.
//
// Account follows these invariants:
//   - Login is the stable, unique identity and must not be empty
//   - Secret must not be empty
//   - Once consumed, the account is never un-consumed
//   - An empty product binding means the account is universal and may
//     satisfy any order
type Account struct {
	// login is the unique, stable identity of the credential
	login string

	// secret is the password handed to the buyer
	secret string

	// secondFactor is an optional 2FA backup code, empty when absent
	secondFactor string

	// productBinding is the SKU this account is reserved for; empty = universal
	productBinding string

	// consumed marks the account as handed out; irreversible
	consumed bool

	// isConstructed ensures the account was created via a constructor
	isConstructed bool
}

// NewAccount creates an unconsumed Account after validating its identity.
// Login and secret are required; secondFactor and productBinding may be
// empty.
func NewAccount(login, secret, secondFactor, productBinding string) (*Account, error) {
	if login == "" {
		return nil, errs.NewValueIsRequiredError("login")
	}
	if secret == "" {
		return nil, errs.NewValueIsRequiredError("secret")
	}

	return &Account{
		login:          login,
		secret:         secret,
		secondFactor:   secondFactor,
		productBinding: productBinding,
		isConstructed:  true,
	}, nil
}

// RestoreAccount reconstructs an Account from persistence, including its
// consumed flag. Used only by repository implementations.
func RestoreAccount(login, secret, secondFactor, productBinding string, consumed bool) (*Account, error) {
	acc, err := NewAccount(login, secret, secondFactor, productBinding)
	if err != nil {
		return nil, err
	}

	acc.consumed = consumed
	return acc, nil
}

// Validate ensures the Account was properly constructed.
func (a *Account) Validate() error {
	if a == nil || !a.isConstructed {
		return ErrAccountIsNotConstructed
	}
	return nil
}

// Login returns the account's unique identity.
func (a *Account) Login() string {
	return a.login
}

// Secret returns the password handed to the buyer.
func (a *Account) Secret() string {
	return a.secret
}

// SecondFactor returns the optional 2FA backup code, empty when absent.
func (a *Account) SecondFactor() string {
	return a.secondFactor
}

// ProductBinding returns the SKU this account is bound to.
// An empty binding means the account is universal.
func (a *Account) ProductBinding() string {
	return a.productBinding
}

// Unbound reports whether the account has no product binding and is
// therefore eligible to satisfy any order.
func (a *Account) Unbound() bool {
	return a.productBinding == ""
}

// Consumed reports whether the account was already handed out.
func (a *Account) Consumed() bool {
	return a.consumed
}

// Consume marks the account as handed out. Consuming an already consumed
// account is a no-op, not an error: the mark is idempotent so retried
// fulfillment attempts stay safe.
func (a *Account) Consume() {
	a.consumed = true
}
