// Package domain defines the core types and interfaces for Harrier.
package domain

// DatasetType identifies which record variant a dataset holds.
// A dataset is homogeneous: every record matches the declared type.
type DatasetType string

const (
	// DatasetCreditCard holds credit-card charge records.
	DatasetCreditCard DatasetType = "credit_card"

	// DatasetInsurance holds insurance claim records.
	DatasetInsurance DatasetType = "insurance"
)

// Valid reports whether t is a known dataset type.
func (t DatasetType) Valid() bool {
	return t == DatasetCreditCard || t == DatasetInsurance
}

// TransactionRecord is one parsed input line. Exactly one variant is
// non-nil, matching the owning dataset's declared type.
type TransactionRecord struct {
	CreditCard *CreditCardRecord     `json:"creditCard,omitempty"`
	Insurance  *InsuranceClaimRecord `json:"insurance,omitempty"`
}

// CreditCardRecord is a single credit-card charge.
type CreditCardRecord struct {
	Timestamp float64 `json:"timestamp"` // seconds since epoch
	Amount    float64 `json:"amount"`
	Merchant  string  `json:"merchant"`
	CardID    string  `json:"cardId"`
}

// InsuranceClaimRecord is a single insurance claim. ClaimDate keeps the
// original YYYY-MM-DD string; Timestamp is its UTC-midnight epoch value.
type InsuranceClaimRecord struct {
	ClaimDate   string  `json:"claimDate"`
	ClaimAmount float64 `json:"claimAmount"`
	PolicyID    string  `json:"policyId"`
	ClaimType   string  `json:"claimType"`
	Timestamp   float64 `json:"timestamp"`
}

// Amount returns the monetary value of the record, whichever variant is set.
func (r TransactionRecord) Amount() float64 {
	if r.CreditCard != nil {
		return r.CreditCard.Amount
	}
	if r.Insurance != nil {
		return r.Insurance.ClaimAmount
	}
	return 0
}

// Timestamp returns the canonical numeric timestamp of the record.
func (r TransactionRecord) Timestamp() float64 {
	if r.CreditCard != nil {
		return r.CreditCard.Timestamp
	}
	if r.Insurance != nil {
		return r.Insurance.Timestamp
	}
	return 0
}

// SourceEntity returns the originating entity ID for graph construction:
// the card for credit-card data, the policy for insurance data.
func (r TransactionRecord) SourceEntity() string {
	if r.CreditCard != nil {
		return r.CreditCard.CardID
	}
	if r.Insurance != nil {
		return r.Insurance.PolicyID
	}
	return ""
}

// TargetEntity returns the receiving entity ID for graph construction:
// the merchant for credit-card data, the claim type for insurance data.
func (r TransactionRecord) TargetEntity() string {
	if r.CreditCard != nil {
		return r.CreditCard.Merchant
	}
	if r.Insurance != nil {
		return r.Insurance.ClaimType
	}
	return ""
}
