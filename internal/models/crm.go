package models

import "github.com/shopspring/decimal"

// Customer buys finished goods
type Customer struct {
	Base
	Name          string          `gorm:"size:200;not null" json:"name"`
	ContactPerson string          `gorm:"size:200" json:"contact_person"`
	Email         string          `gorm:"size:200" json:"email"`
	Phone         string          `gorm:"size:20" json:"phone"`
	Address       string          `gorm:"type:text" json:"address"`
	City          string          `gorm:"size:100" json:"city"`
	TaxNumber     string          `gorm:"size:50" json:"tax_number"`
	CreditLimit   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"credit_limit"`
	Active        bool            `gorm:"not null" json:"active"`
}

// Supplier provides grey fabric, dyes, chemicals and packing material
type Supplier struct {
	Base
	Name           string `gorm:"size:200;not null" json:"name"`
	ContactPerson  string `gorm:"size:200" json:"contact_person"`
	Email          string `gorm:"size:200" json:"email"`
	Phone          string `gorm:"size:20" json:"phone"`
	Address        string `gorm:"type:text" json:"address"`
	City           string `gorm:"size:100" json:"city"`
	TaxNumber      string `gorm:"size:50" json:"tax_number"`
	SupplyCategory string `gorm:"size:50" json:"supply_category"`
	Active         bool   `gorm:"not null" json:"active"`
}
