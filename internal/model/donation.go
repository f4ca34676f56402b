package model

import "time"

// Donation is a single delivery of goods to a family. Donations are
// created and deleted, never edited in place.
type Donation struct {
	ID       int64 `json:"id"`
	FamilyID int64 `json:"family_id"`
	// FamilyName is a snapshot of the family's responsible name at
	// donation time. It is intentionally not kept in sync with later
	// renames so history reads the way it was recorded.
	FamilyName   string    `json:"family_name"`
	DonationType string    `json:"donation_type"`
	Quantity     string    `json:"quantity"`
	Date         time.Time `json:"date"`
	Responsible  string    `json:"responsible"`
	Observations string    `json:"observations,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DonationTypes is the fixed set of categories a donation can be
// registered under.
var DonationTypes = []string{
	"Alimentos não perecíveis",
	"Alimentos perecíveis",
	"Roupas",
	"Calçados",
	"Produtos de higiene",
	"Produtos de limpeza",
	"Medicamentos",
	"Móveis",
	"Eletrodomésticos",
	"Material escolar",
	"Brinquedos",
	"Outros",
}

// ValidDonationType reports whether t is one of the known categories.
func ValidDonationType(t string) bool {
	for _, dt := range DonationTypes {
		if dt == t {
			return true
		}
	}
	return false
}
