package model

import (
	"testing"
	"time"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if !s.Valid() {
			t.Errorf("Expected %q to be valid", s)
		}
	}

	for _, s := range []Status{"", "cancelled", "done", "PENDING"} {
		if s.Valid() {
			t.Errorf("Expected %q to be invalid", s)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Error("Pending and processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("Completed and failed must be terminal")
	}
}

func TestStatusOf(t *testing.T) {
	now := time.Now()
	c := &Contract{
		ContractID:   "test-id",
		Filename:     "test.pdf",
		Status:       StatusFailed,
		Progress:     50,
		ErrorDetails: "text extraction failed",
		RawText:      "should not leak into status",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	sr := StatusOf(c)
	if sr.ContractID != "test-id" {
		t.Errorf("Expected contract_id test-id, got %s", sr.ContractID)
	}
	if sr.Status != StatusFailed {
		t.Errorf("Expected status failed, got %s", sr.Status)
	}
	if sr.Progress != 50 {
		t.Errorf("Expected progress 50, got %f", sr.Progress)
	}
	if sr.ErrorDetails != "text extraction failed" {
		t.Errorf("Expected error details, got %q", sr.ErrorDetails)
	}
}

func TestScoringRecompute(t *testing.T) {
	s := Scoring{
		FinancialCompleteness: 25,
		PartyIdentification:   20,
		PaymentTermsClarity:   15,
		SLADefinition:         10,
		ContactInformation:    8,
	}
	s.Recompute()
	if s.TotalScore != 78 {
		t.Errorf("Expected total 78, got %f", s.TotalScore)
	}
}

func TestScoringRecomputeClamps(t *testing.T) {
	s := Scoring{
		FinancialCompleteness: 30,
		PartyIdentification:   25,
		PaymentTermsClarity:   20,
		SLADefinition:         15,
		ContactInformation:    15, // over the sub-score ceiling
	}
	s.Recompute()
	if s.TotalScore != 100 {
		t.Errorf("Expected total clamped to 100, got %f", s.TotalScore)
	}
}
