package service

import (
	"encoding/json"
	"fmt"

	"github.com/AnTengye/contractintel/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Section payload schemas. Deliberately loose on optional fields: the model
// output is fuzzy, and the schemas exist to reject structurally wrong
// payloads (arrays instead of objects, strings instead of numbers), not to
// demand completeness.
const basicSchemaJSON = `{
	"type": "object",
	"required": ["parties"],
	"properties": {
		"parties": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": ["string", "null"]},
					"legal_entity_name": {"type": ["string", "null"]},
					"registration_details": {"type": ["string", "null"]},
					"authorized_signatories": {"type": "array", "items": {"type": "string"}},
					"roles": {"type": "array", "items": {"type": "string"}},
					"confidence_score": {"type": "number"}
				}
			}
		},
		"account_info": {"type": ["object", "null"]}
	}
}`

const financialSchemaJSON = `{
	"type": "object",
	"properties": {
		"financial_details": {
			"type": ["object", "null"],
			"properties": {
				"line_items": {"type": "array"},
				"total_contract_value": {"type": ["number", "null"]},
				"currency": {"type": ["string", "null"]},
				"confidence_score": {"type": "number"}
			}
		},
		"payment_structure": {"type": ["object", "null"]},
		"revenue_classification": {"type": ["object", "null"]}
	}
}`

const technicalSchemaJSON = `{
	"type": "object",
	"properties": {
		"sla": {
			"type": ["object", "null"],
			"properties": {
				"performance_metrics": {"type": "array", "items": {"type": "string"}},
				"confidence_score": {"type": "number"}
			}
		}
	}
}`

const scoringSchemaJSON = `{
	"type": "object",
	"required": ["scoring"],
	"properties": {
		"scoring": {
			"type": "object",
			"properties": {
				"financial_completeness": {"type": "number"},
				"party_identification": {"type": "number"},
				"payment_terms_clarity": {"type": "number"},
				"sla_definition": {"type": "number"},
				"contact_information": {"type": "number"},
				"total_score": {"type": "number"}
			}
		},
		"gap_analysis": {
			"type": ["object", "null"],
			"properties": {
				"missing_fields": {"type": "array", "items": {"type": "string"}},
				"low_confidence_fields": {"type": "array", "items": {"type": "string"}},
				"recommendations": {"type": "array", "items": {"type": "string"}}
			}
		}
	}
}`

var (
	basicSchema     = jsonschema.MustCompileString("basic.json", basicSchemaJSON)
	financialSchema = jsonschema.MustCompileString("financial.json", financialSchemaJSON)
	technicalSchema = jsonschema.MustCompileString("technical.json", technicalSchemaJSON)
	scoringSchema   = jsonschema.MustCompileString("scoring.json", scoringSchemaJSON)
)

// basicPayload is the parties/accounts sub-call response.
type basicPayload struct {
	Parties     []model.Party     `json:"parties"`
	AccountInfo model.AccountInfo `json:"account_info"`
}

// financialPayload is the financial/payment/revenue sub-call response.
type financialPayload struct {
	FinancialDetails      model.FinancialDetails      `json:"financial_details"`
	PaymentStructure      model.PaymentStructure      `json:"payment_structure"`
	RevenueClassification model.RevenueClassification `json:"revenue_classification"`
}

// technicalPayload is the SLA sub-call response.
type technicalPayload struct {
	SLA model.SLA `json:"sla"`
}

// scoringPayload is the scoring/gap sub-call response.
type scoringPayload struct {
	Scoring     model.Scoring     `json:"scoring"`
	GapAnalysis model.GapAnalysis `json:"gap_analysis"`
}

func decodeSection(data []byte, schema *jsonschema.Schema, out any) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse section: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("section does not match schema: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode section: %w", err)
	}
	return nil
}

func decodeBasic(data []byte) (*basicPayload, error) {
	var p basicPayload
	if err := decodeSection(data, basicSchema, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeFinancial(data []byte) (*financialPayload, error) {
	var p financialPayload
	if err := decodeSection(data, financialSchema, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeTechnical(data []byte) (*technicalPayload, error) {
	var p technicalPayload
	if err := decodeSection(data, technicalSchema, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeScoring(data []byte) (*scoringPayload, error) {
	var p scoringPayload
	if err := decodeSection(data, scoringSchema, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// combine merges the four sub-call payloads into one envelope. A nil
// financial, technical or scoring payload maps to an explicit zero value;
// a missing scoring payload additionally produces a gap analysis telling
// the caller to retry. The basic payload must be non-nil; its total failure
// aborts the pipeline before combine is reached.
func combine(basic *basicPayload, financial *financialPayload, technical *technicalPayload, scoring *scoringPayload) *model.ExtractionEnvelope {
	env := &model.ExtractionEnvelope{}

	env.ExtractedData.Parties = basic.Parties
	if env.ExtractedData.Parties == nil {
		env.ExtractedData.Parties = []model.Party{}
	}
	env.ExtractedData.AccountInfo = basic.AccountInfo

	if financial != nil {
		env.ExtractedData.FinancialDetails = financial.FinancialDetails
		env.ExtractedData.PaymentStructure = financial.PaymentStructure
		env.ExtractedData.RevenueClassification = financial.RevenueClassification
	}
	if technical != nil {
		env.ExtractedData.SLA = technical.SLA
	}

	if scoring != nil {
		env.Scoring = scoring.Scoring
		env.GapAnalysis = scoring.GapAnalysis
	} else {
		env.GapAnalysis = model.GapAnalysis{
			MissingFields:   []string{"Unable to analyze due to processing error"},
			Recommendations: []string{"Retry contract processing"},
		}
	}
	env.Scoring.Recompute()

	// Downstream consumers always get lists, never nulls.
	if env.GapAnalysis.MissingFields == nil {
		env.GapAnalysis.MissingFields = []string{}
	}
	if env.GapAnalysis.LowConfidenceFields == nil {
		env.GapAnalysis.LowConfidenceFields = []string{}
	}
	if env.GapAnalysis.Recommendations == nil {
		env.GapAnalysis.Recommendations = []string{}
	}

	return env
}
