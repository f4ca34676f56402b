package model

import "time"

// Family is a beneficiary household tracked by the charity.
type Family struct {
	ID              int64          `json:"id"`
	ResponsibleName string         `json:"responsible_name"`
	MemberCount     int            `json:"member_count"`
	Members         []FamilyMember `json:"members"`
	Phone           string         `json:"phone"`
	Email           string         `json:"email,omitempty"`
	CEP             string         `json:"cep"`
	Address         string         `json:"address"`
	Neighborhood    string         `json:"neighborhood"`
	City            string         `json:"city"`
	State           string         `json:"state"`
	Complement      string         `json:"complement,omitempty"`
	Number          string         `json:"number"`
	Observations    string         `json:"observations,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	// LastDonation is derived: the most recent donation date for this
	// family, nil when the family has never received one. Maintained by
	// the donation store, never written directly by callers.
	LastDonation *time.Time `json:"last_donation,omitempty"`
}

// FamilyMember is one person in a household. Only the age is recorded;
// the ID is unique within the family.
type FamilyMember struct {
	ID  string `json:"id"`
	Age int    `json:"age"`
}
