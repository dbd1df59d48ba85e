package models

import "time"

// Operator is an authenticated human identity for the admin/merchant
// tooling surface. Every mutating operation records the operator's email
// as performedBy.
type Operator struct {
	ID           uint   `gorm:"primarykey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:'operator'"`
	TokenVersion int    `gorm:"default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
