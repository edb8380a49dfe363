package guard_test

import (
	"errors"
	"testing"

	"fulfillment/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstructorGuard(t *testing.T) {
	t.Run("creates_properly_constructed_guard", func(t *testing.T) {
		// When
		guard := guard.NewConstructorGuard()

		// Then
		assert.NotNil(t, guard)

		// Test with custom error
		customError := errors.New("account must be created via NewAccount")
		require.NoError(t, guard.Validate(customError))

		// Test with nil error (should use default)
		require.NoError(t, guard.Validate(nil))
	})
}

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("properly_constructed_guard_returns_nil", func(t *testing.T) {
		// Given
		guard := guard.NewConstructorGuard()
		customError := errors.New("account must be created via NewAccount")

		// When
		err := guard.Validate(customError)

		// Then
		require.NoError(t, err)
	})

	t.Run("zero_value_guard_returns_custom_error", func(t *testing.T) {
		// Given
		var guard guard.ConstructorGuard // zero value
		expectedError := errors.New("ledger entry must be created via NewEntry")

		// When
		err := guard.Validate(expectedError)

		// Then
		require.Error(t, err)
		assert.Equal(t, expectedError, err)
	})

	t.Run("zero_value_guard_returns_default_error_when_nil", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard // zero value

		// When
		err := g.Validate(nil)

		// Then
		require.Error(t, err)
		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
	})
}

// TestConstructorGuardUsageExample demonstrates how ConstructorGuard should
// be used in a domain object to enforce constructor usage.
func TestConstructorGuardUsageExample(t *testing.T) {
	// A credential pair mirrors the smallest guarded value in this codebase.
	type Credential struct {
		login  string
		secret string
		guard  guard.ConstructorGuard
	}

	var errCredentialNotConstructed = errors.New("Credential must be created via NewCredential")

	newCredential := func(login, secret string) (Credential, error) {
		if login == "" {
			return Credential{}, errors.New("login is required")
		}
		if secret == "" {
			return Credential{}, errors.New("secret is required")
		}
		return Credential{
			login:  login,
			secret: secret,
			guard:  guard.NewConstructorGuard(),
		}, nil
	}

	validateCredential := func(c Credential) error {
		return c.guard.Validate(errCredentialNotConstructed)
	}

	t.Run("valid_construction_through_constructor", func(t *testing.T) {
		// When
		cred, err := newCredential("user@example.com", "s3cret")

		// Then
		require.NoError(t, err)
		require.NoError(t, validateCredential(cred))
		assert.Equal(t, "user@example.com", cred.login)
		assert.Equal(t, "s3cret", cred.secret)
	})

	t.Run("zero_value_construction_validation", func(t *testing.T) {
		// Given
		var cred Credential // zero value

		// When
		err := validateCredential(cred)

		// Then
		// Zero value Credential has a zero value guard which returns the
		// error we pass
		require.Error(t, err)
		assert.Equal(t, errCredentialNotConstructed, err)
	})

	t.Run("constructor_validates_business_rules", func(t *testing.T) {
		// Test empty login
		_, err := newCredential("", "s3cret")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "login is required")

		// Test empty secret
		_, err = newCredential("user@example.com", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret is required")
	})
}

// TestConstructorGuardWithMultipleErrors verifies a constructed guard accepts
// every not-constructed error the aggregates and commands define.
func TestConstructorGuardWithMultipleErrors(t *testing.T) {
	testCases := []struct {
		name          string
		expectedError error
	}{
		{
			name:          "account_not_constructed_error",
			expectedError: errors.New("Account must be created via NewAccount"),
		},
		{
			name:          "ledger_entry_not_constructed_error",
			expectedError: errors.New("Entry must be created via NewEntry"),
		},
		{
			name:          "fulfill_order_command_not_constructed_error",
			expectedError: errors.New("FulfillOrderCommand must be created via NewFulfillOrderCommand"),
		},
		{
			name:          "nil_error_uses_default",
			expectedError: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Given
			guard := guard.NewConstructorGuard()

			// When
			err := guard.Validate(tc.expectedError)

			// Then
			require.NoError(t, err, "Properly constructed guard should not return error")
		})
	}
}

// TestConstructorGuardDefaultError verifies the default error behavior.
func TestConstructorGuardDefaultError(t *testing.T) {
	t.Run("nil_error_uses_default_for_zero_value", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard // zero value

		// When
		err := g.Validate(nil)

		// Then
		require.Error(t, err)
		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
	})

	t.Run("default_error_constant_has_meaningful_message", func(t *testing.T) {
		// Then
		require.Error(t, guard.ErrDefaultConstructorGuard)
		assert.Contains(t, guard.ErrDefaultConstructorGuard.Error(), "constructor")
		assert.Equal(t, "object must be created via its constructor", guard.ErrDefaultConstructorGuard.Error())
	})
}

// TestConstructorGuardConcurrency verifies that a constructed guard can be
// validated from many goroutines, the way shared command values are.
func TestConstructorGuardConcurrency(t *testing.T) {
	guard := guard.NewConstructorGuard()
	validationError := errors.New("command must be created via its constructor")

	done := make(chan bool)
	for range 100 {
		go func() {
			for range 1000 {
				err := guard.Validate(validationError)
				assert.NoError(t, err)
			}
			done <- true
		}()
	}

	for range 100 {
		<-done
	}
}

// TestConstructorGuardCopySemantics verifies a guard keeps its constructed
// state when the owning value is copied, which aggregates rely on when they
// are passed around by value.
func TestConstructorGuardCopySemantics(t *testing.T) {
	t.Run("guard_can_be_safely_passed_by_value", func(t *testing.T) {
		// Given
		guard := guard.NewConstructorGuard()
		testError := errors.New("entry must be created via NewEntry")

		// When
		guardCopy := guard // Pass by value

		// Then
		require.NoError(t, guard.Validate(testError))
		require.NoError(t, guardCopy.Validate(testError))
	})
}
