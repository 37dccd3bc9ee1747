package service

import (
	"fmt"
)

// Per-section input caps, in characters of contract text. The party call
// gets a smaller prefix; financial and SLA calls need more surrounding
// context. The scoring call gets no raw text at all.
const (
	basicPromptTextLimit     = 3000
	financialPromptTextLimit = 4000
	technicalPromptTextLimit = 4000
)

// truncateText returns at most limit characters of text without splitting
// a multi-byte rune.
func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func buildBasicPrompt(text string) string {
	return fmt.Sprintf(`Analyze this contract text and extract basic party and account information. Return ONLY a JSON object:

Contract Text (first %d chars):
%s

Required JSON structure:
{
    "parties": [
        {
            "name": "party name or null",
            "legal_entity_name": "legal entity or null",
            "registration_details": "registration info or null",
            "authorized_signatories": ["list of signatories"],
            "roles": ["customer", "vendor", etc.],
            "confidence_score": 0.8
        }
    ],
    "account_info": {
        "billing_details": "billing address/details or null",
        "account_numbers": ["account numbers found"],
        "references": ["reference numbers"],
        "billing_contact": "billing contact or null",
        "technical_contact": "technical contact or null",
        "confidence_score": 0.7
    }
}
`, basicPromptTextLimit, truncateText(text, basicPromptTextLimit))
}

func buildFinancialPrompt(text string) string {
	return fmt.Sprintf(`Analyze this contract text and extract financial and payment information. Return ONLY a JSON object:

Contract Text (searching for financial terms):
%s

Required JSON structure:
{
    "financial_details": {
        "line_items": [
            {
                "description": "item description",
                "quantity": 1.0,
                "unit_price": 100.0,
                "total_price": 100.0,
                "confidence_score": 0.8
            }
        ],
        "total_contract_value": 1000.0,
        "currency": "USD",
        "tax_information": "tax details or null",
        "additional_fees": ["list of fees"],
        "confidence_score": 0.8
    },
    "payment_structure": {
        "payment_terms": "Net 30",
        "payment_schedules": ["schedule details"],
        "due_dates": ["due dates"],
        "payment_methods": ["ACH", "Wire", etc.],
        "banking_details": "bank details or null",
        "confidence_score": 0.7
    },
    "revenue_classification": {
        "recurring_payments": true,
        "one_time_payments": false,
        "subscription_model": "monthly/annual/etc",
        "billing_cycles": ["monthly", "quarterly"],
        "renewal_terms": "renewal details",
        "auto_renewal": true,
        "confidence_score": 0.6
    }
}
`, truncateText(text, financialPromptTextLimit))
}

func buildTechnicalPrompt(text string) string {
	return fmt.Sprintf(`Analyze this contract text and extract service level agreements and technical details. Return ONLY a JSON object:

Contract Text (searching for SLA terms):
%s

Required JSON structure:
{
    "sla": {
        "performance_metrics": ["99.9%% uptime", "response times"],
        "benchmarks": ["performance benchmarks"],
        "penalty_clauses": ["penalties for non-compliance"],
        "remedies": ["available remedies"],
        "support_terms": "support details or null",
        "maintenance_terms": "maintenance details or null",
        "confidence_score": 0.5
    }
}
`, truncateText(text, technicalPromptTextLimit))
}

// sectionSummary is what the scoring prompt sees instead of raw contract
// text: only whether each earlier section produced data.
type sectionSummary struct {
	PartyCount  int
	HasFinance  bool
	HasPayment  bool
	HasSLA      bool
	HasContacts bool
}

func buildScoringPrompt(sum sectionSummary) string {
	return fmt.Sprintf(`Based on the extracted contract data, generate scoring and gap analysis. Return ONLY a JSON object:

Extracted Data Summary:
- Parties: %d found
- Financial: %s
- Payment Terms: %s
- SLA: %s
- Contacts: %s

Required JSON structure:
{
    "scoring": {
        "financial_completeness": 25.0,
        "party_identification": 20.0,
        "payment_terms_clarity": 15.0,
        "sla_definition": 10.0,
        "contact_information": 8.0,
        "total_score": 78.0
    },
    "gap_analysis": {
        "missing_fields": ["list critical missing fields"],
        "low_confidence_fields": ["fields with confidence < 0.6"],
        "recommendations": ["actionable recommendations"]
    }
}

Scoring Guidelines (max points):
- Financial completeness: 30 points
- Party identification: 25 points
- Payment terms clarity: 20 points
- SLA definition: 15 points
- Contact information: 10 points
`, sum.PartyCount, yesNo(sum.HasFinance), yesNo(sum.HasPayment), yesNo(sum.HasSLA), yesNo(sum.HasContacts))
}

func buildSimpleParsePrompt(text string) string {
	return fmt.Sprintf(`Analyze the following contract text and extract the basic information. Return your response as a JSON object with the exact structure shown below.

Contract Text:
%s

Return ONLY a valid JSON object with this exact structure:

{
    "party_a": "First party name (individual or company)",
    "party_b": "Second party name (individual or company)",
    "effective_date": "Contract start date (YYYY-MM-DD format if found)",
    "expiry_date": "Contract end date (YYYY-MM-DD format if found)",
    "contract_value": "Total contract value with currency symbol"
}

Instructions:
- Extract the main parties involved in the contract
- Find start and end dates in YYYY-MM-DD format if possible
- Include currency symbol with the contract value
- If any field is not found, return null for that field
- Keep party names concise but complete
`, text)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
