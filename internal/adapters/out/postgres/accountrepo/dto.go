// Package accountrepo implements credential inventory persistence.
// Accounts are append-only rows: consumption flips a flag, nothing is ever
// deleted, and the serial position column preserves insertion order for
// deterministic allocation.
package accountrepo

import (
	"fulfillment/internal/core/domain/model/account"
)

// AccountDTO represents the database structure for persisting inventory
// accounts. Pos is a serial surrogate key; allocation selects by ascending
// Pos so the oldest free account always wins.
type AccountDTO struct {
	Pos            int64  `gorm:"primaryKey;autoIncrement"`
	Login          string `gorm:"index"`
	Secret         string
	SecondFactor   string
	ProductBinding string `gorm:"index"`
	Consumed       bool   `gorm:"index"`
	Reserved       bool   `gorm:"index"`
}

// TableName specifies the database table name for inventory accounts.
func (AccountDTO) TableName() string {
	return "accounts"
}

// fromDomain converts an account aggregate to its database representation.
// Pos is left zero so the database assigns the next serial value.
func fromDomain(acc *account.Account) AccountDTO {
	return AccountDTO{
		Login:          acc.Login(),
		Secret:         acc.Secret(),
		SecondFactor:   acc.SecondFactor(),
		ProductBinding: acc.ProductBinding(),
		Consumed:       acc.Consumed(),
	}
}

// toDomain converts a database DTO to an account aggregate.
func toDomain(dto AccountDTO) (*account.Account, error) {
	return account.RestoreAccount(dto.Login, dto.Secret, dto.SecondFactor, dto.ProductBinding, dto.Consumed)
}
