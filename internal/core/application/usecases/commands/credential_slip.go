package commands

import (
	"strings"

	"fulfillment/internal/core/domain/model/account"
)

// buildCredentialSlip renders the delivery message sent to the buyer through
// the marketplace chat. Plain text only: the chat channel does not render
// markup.
func buildCredentialSlip(acc *account.Account, productName string) string {
	if productName == "" {
		productName = "your purchase"
	}

	var b strings.Builder
	b.WriteString("Your access credentials\n\n")
	b.WriteString("Product: " + productName + "\n\n")
	b.WriteString("Login: " + acc.Login() + "\n")
	b.WriteString("Password: " + acc.Secret() + "\n")
	if acc.SecondFactor() != "" {
		b.WriteString("2FA backup code: " + acc.SecondFactor() + "\n")
	}
	b.WriteString("\nHow to use:\n")
	b.WriteString("1. Copy the credentials above\n")
	b.WriteString("2. Sign in to the account\n")
	b.WriteString("3. Change the password after the first sign-in\n\n")
	b.WriteString("Keep the credentials in a safe place and do not share them.\n")
	b.WriteString("Thank you for your purchase! Reply in this chat if you need help.")
	return b.String()
}
