// Package ledgerrepo implements order ledger persistence. Entries are keyed
// by the remote order id and never deleted; Upsert merges repeated
// observations of the same order into one row.
package ledgerrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/ledger"

	"github.com/shopspring/decimal"
)

// EntryDTO represents the database structure for persisting ledger entries.
// OrderID carries a unique index: one remote order maps to exactly one row.
// Pos is a serial surrogate that breaks created_at ties in listings.
type EntryDTO struct {
	Pos             int64 `gorm:"primaryKey;autoIncrement"`
	OrderID         int64 `gorm:"uniqueIndex"`
	RemoteStatus    string
	RemoteSubstatus string
	Stage           string `gorm:"index"`
	Product         string
	BuyerLabel      string
	TotalAmount     decimal.Decimal `gorm:"type:numeric"`
	CreatedAt       time.Time       `gorm:"index"`
	DeliveredAt     *time.Time
	AccountLogin    string
}

// TableName specifies the database table name for ledger entries.
func (EntryDTO) TableName() string {
	return "ledger_entries"
}

// fromDomain converts a ledger entry to its database representation.
// Pos is left zero so the database assigns the next serial value on insert;
// updates preserve the stored value.
func fromDomain(entry *ledger.Entry) EntryDTO {
	return EntryDTO{
		OrderID:         entry.OrderID(),
		RemoteStatus:    entry.RemoteStatus(),
		RemoteSubstatus: entry.RemoteSubstatus(),
		Stage:           entry.Stage().String(),
		Product:         entry.Product(),
		BuyerLabel:      entry.BuyerLabel(),
		TotalAmount:     entry.TotalAmount(),
		CreatedAt:       entry.CreatedAt(),
		DeliveredAt:     entry.DeliveredAt(),
		AccountLogin:    entry.AccountLogin(),
	}
}

// toDomain converts a database DTO to a ledger entry aggregate.
func toDomain(dto EntryDTO) (*ledger.Entry, error) {
	stage, err := ledger.StageFromString(dto.Stage)
	if err != nil {
		return nil, err
	}

	return ledger.RestoreEntry(dto.OrderID, dto.RemoteStatus, dto.RemoteSubstatus, stage,
		dto.Product, dto.BuyerLabel, dto.TotalAmount, dto.CreatedAt, dto.DeliveredAt, dto.AccountLogin)
}
