package model

// ConfidenceThreshold is the cutoff below which an extracted section is
// reported as low-confidence in the gap analysis.
const ConfidenceThreshold = 0.6

// ExtractionEnvelope bundles everything the pipeline produces for one
// contract: the extracted sections, the completeness scoring and the
// derived gap analysis. Every field is always populated on a completed
// record; missing sections appear as zero values, never as nulls.
type ExtractionEnvelope struct {
	ExtractedData ExtractedData `json:"extracted_data"`
	Scoring       Scoring       `json:"scoring"`
	GapAnalysis   GapAnalysis   `json:"gap_analysis"`
}

// ExtractedData groups the independently extracted contract sections.
// Each section carries its own confidence score so that low-confidence
// data is distinguishable from absent data.
type ExtractedData struct {
	Parties               []Party               `json:"parties"`
	AccountInfo           AccountInfo           `json:"account_info"`
	FinancialDetails      FinancialDetails      `json:"financial_details"`
	PaymentStructure      PaymentStructure      `json:"payment_structure"`
	RevenueClassification RevenueClassification `json:"revenue_classification"`
	SLA                   SLA                   `json:"sla"`
}

// Party is one contracting party.
type Party struct {
	Name                  string   `json:"name,omitempty"`
	LegalEntityName       string   `json:"legal_entity_name,omitempty"`
	RegistrationDetails   string   `json:"registration_details,omitempty"`
	AuthorizedSignatories []string `json:"authorized_signatories,omitempty"`
	Roles                 []string `json:"roles,omitempty"`
	ConfidenceScore       float64  `json:"confidence_score"`
}

// AccountInfo holds billing and contact references.
type AccountInfo struct {
	BillingDetails   string   `json:"billing_details,omitempty"`
	AccountNumbers   []string `json:"account_numbers,omitempty"`
	References       []string `json:"references,omitempty"`
	BillingContact   string   `json:"billing_contact,omitempty"`
	TechnicalContact string   `json:"technical_contact,omitempty"`
	ConfidenceScore  float64  `json:"confidence_score"`
}

// LineItem is one billed position in the financial details.
type LineItem struct {
	Description     string  `json:"description,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	TotalPrice      float64 `json:"total_price"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// FinancialDetails holds line items and contract totals.
type FinancialDetails struct {
	LineItems          []LineItem `json:"line_items,omitempty"`
	TotalContractValue float64    `json:"total_contract_value"`
	Currency           string     `json:"currency,omitempty"`
	TaxInformation     string     `json:"tax_information,omitempty"`
	AdditionalFees     []string   `json:"additional_fees,omitempty"`
	ConfidenceScore    float64    `json:"confidence_score"`
}

// PaymentStructure describes how and when payments are due.
type PaymentStructure struct {
	PaymentTerms     string   `json:"payment_terms,omitempty"`
	PaymentSchedules []string `json:"payment_schedules,omitempty"`
	DueDates         []string `json:"due_dates,omitempty"`
	PaymentMethods   []string `json:"payment_methods,omitempty"`
	BankingDetails   string   `json:"banking_details,omitempty"`
	ConfidenceScore  float64  `json:"confidence_score"`
}

// RevenueClassification describes the revenue model of the contract.
type RevenueClassification struct {
	RecurringPayments bool     `json:"recurring_payments"`
	OneTimePayments   bool     `json:"one_time_payments"`
	SubscriptionModel string   `json:"subscription_model,omitempty"`
	BillingCycles     []string `json:"billing_cycles,omitempty"`
	RenewalTerms      string   `json:"renewal_terms,omitempty"`
	AutoRenewal       bool     `json:"auto_renewal"`
	ConfidenceScore   float64  `json:"confidence_score"`
}

// SLA holds service-level terms.
type SLA struct {
	PerformanceMetrics []string `json:"performance_metrics,omitempty"`
	Benchmarks         []string `json:"benchmarks,omitempty"`
	PenaltyClauses     []string `json:"penalty_clauses,omitempty"`
	Remedies           []string `json:"remedies,omitempty"`
	SupportTerms       string   `json:"support_terms,omitempty"`
	MaintenanceTerms   string   `json:"maintenance_terms,omitempty"`
	ConfidenceScore    float64  `json:"confidence_score"`
}

// Scoring is the weighted completeness breakdown. Sub-score ceilings:
// financial 30, parties 25, payment 20, SLA 15, contacts 10.
type Scoring struct {
	FinancialCompleteness float64 `json:"financial_completeness"`
	PartyIdentification   float64 `json:"party_identification"`
	PaymentTermsClarity   float64 `json:"payment_terms_clarity"`
	SLADefinition         float64 `json:"sla_definition"`
	ContactInformation    float64 `json:"contact_information"`
	TotalScore            float64 `json:"total_score"`
}

// Recompute sets TotalScore to the sum of the sub-scores, clamped to 100.
func (s *Scoring) Recompute() {
	total := s.FinancialCompleteness + s.PartyIdentification +
		s.PaymentTermsClarity + s.SLADefinition + s.ContactInformation
	if total > 100 {
		total = 100
	}
	s.TotalScore = total
}

// GapAnalysis lists what a reviewer should look at before trusting the
// extraction.
type GapAnalysis struct {
	MissingFields       []string `json:"missing_fields"`
	LowConfidenceFields []string `json:"low_confidence_fields"`
	Recommendations     []string `json:"recommendations"`
}

// SimpleParseFields are the five flat fields returned by the synchronous
// simple-parse endpoint.
type SimpleParseFields struct {
	PartyA        string `json:"party_a,omitempty"`
	PartyB        string `json:"party_b,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
	ContractValue string `json:"contract_value,omitempty"`
}

// SimpleParseResult is the synchronous simple-parse response.
type SimpleParseResult struct {
	FileID          string            `json:"file_id"`
	Filename        string            `json:"filename"`
	Status          string            `json:"status"`
	ExtractedFields SimpleParseFields `json:"extracted_fields"`
}
