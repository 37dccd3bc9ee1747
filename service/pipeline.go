package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"github.com/AnTengye/contractintel/model"
	"github.com/AnTengye/contractintel/pkg/logger"
	"golang.org/x/sync/semaphore"
)

// Progress milestones for a processing run.
const (
	progressStarted    = 10.0
	progressTextDone   = 50.0
	progressAggregated = 90.0
	progressCompleted  = 100.0
)

// Processor drives one contract through the processing pipeline: text
// extraction, four structured-extraction sub-calls, aggregation, and the
// final commit. All collaborators are injected so tests can substitute
// doubles.
type Processor struct {
	store     *ContractStore
	files     FileStore
	ocr       TextExtractor
	extractor StructuredExtractor
}

func NewProcessor(store *ContractStore, files FileStore, ocr TextExtractor, extractor StructuredExtractor) *Processor {
	return &Processor{
		store:     store,
		files:     files,
		ocr:       ocr,
		extractor: extractor,
	}
}

// Process runs the pipeline for one contract until the record reaches a
// terminal state. It never returns an error and never panics outward; all
// failure information flows through the record's status and error_details.
func (p *Processor) Process(ctx context.Context, contractID, filePath string) {
	ctx = context.WithValue(ctx, logger.ContractIDKey, contractID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic during contract processing",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			p.fail(ctx, contractID, fmt.Sprintf("processing error: %v", r))
		}
	}()

	p.advance(ctx, contractID, progressStarted)

	// Stage 1: text extraction.
	content, err := p.readFile(ctx, filePath)
	if err != nil {
		logger.Error(ctx, "failed to read stored file", "error", err)
		p.fail(ctx, contractID, fmt.Sprintf("text extraction failed: %v", err))
		return
	}

	logger.Info(ctx, "starting text extraction")
	rawText, err := p.ocr.ExtractText(ctx, content)
	if err != nil {
		logger.Error(ctx, "text extraction failed", "error", err)
		p.fail(ctx, contractID, fmt.Sprintf("text extraction failed: %v", err))
		return
	}

	p.advance(ctx, contractID, progressTextDone)

	// Stage 2: structured extraction. The basic call is load-bearing; the
	// others degrade to zero-value sections.
	logger.Info(ctx, "starting structured extraction")
	basic, err := p.extractBasic(ctx, rawText)
	if err != nil {
		logger.Error(ctx, "basic extraction failed", "error", err)
		p.fail(ctx, contractID, fmt.Sprintf("structured extraction failed: %v", err))
		return
	}

	financial := p.extractFinancial(ctx, rawText)
	technical := p.extractTechnical(ctx, rawText)
	scoring := p.extractScoring(ctx, sectionSummary{
		PartyCount:  len(basic.Parties),
		HasFinance:  financial != nil,
		HasPayment:  financial != nil,
		HasSLA:      technical != nil,
		HasContacts: hasContacts(basic.AccountInfo),
	})

	// Stage 3: aggregation.
	envelope := combine(basic, financial, technical, scoring)

	if err := p.store.UpdateResult(ctx, contractID, rawText, envelope); err != nil {
		logger.Error(ctx, "failed to persist extraction result", "error", err)
		p.fail(ctx, contractID, fmt.Sprintf("processing error: %v", err))
		return
	}
	p.advance(ctx, contractID, progressAggregated)

	// Final commit.
	progress := progressCompleted
	if err := p.store.UpdateStatus(ctx, contractID, model.StatusCompleted, &progress, ""); err != nil {
		logger.Error(ctx, "failed to mark contract completed", "error", err)
		return
	}

	logger.Info(ctx, "contract processed successfully", "total_score", envelope.Scoring.TotalScore)
}

// SimpleParse runs the synchronous lightweight variant: text extraction
// plus a single structured call for five flat fields. Nothing is persisted.
func (p *Processor) SimpleParse(ctx context.Context, content []byte, fileID, filename string) (*model.SimpleParseResult, error) {
	rawText, err := p.ocr.ExtractText(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	payload, err := p.extractor.Extract(ctx, buildSimpleParsePrompt(rawText))
	if err != nil {
		return nil, fmt.Errorf("structured extraction failed: %w", err)
	}

	var fields model.SimpleParseFields
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("structured extraction failed: %w", err)
	}

	return &model.SimpleParseResult{
		FileID:          fileID,
		Filename:        filename,
		Status:          "parsed",
		ExtractedFields: fields,
	}, nil
}

func (p *Processor) readFile(ctx context.Context, filePath string) ([]byte, error) {
	f, err := p.files.Open(ctx, filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (p *Processor) extractBasic(ctx context.Context, text string) (*basicPayload, error) {
	payload, err := p.extractor.Extract(ctx, buildBasicPrompt(text))
	if err != nil {
		return nil, err
	}
	return decodeBasic(payload)
}

func (p *Processor) extractFinancial(ctx context.Context, text string) *financialPayload {
	payload, err := p.extractor.Extract(ctx, buildFinancialPrompt(text))
	if err == nil {
		var parsed *financialPayload
		if parsed, err = decodeFinancial(payload); err == nil {
			return parsed
		}
	}
	logger.Warn(ctx, "financial extraction failed, continuing with empty section", "error", err)
	return nil
}

func (p *Processor) extractTechnical(ctx context.Context, text string) *technicalPayload {
	payload, err := p.extractor.Extract(ctx, buildTechnicalPrompt(text))
	if err == nil {
		var parsed *technicalPayload
		if parsed, err = decodeTechnical(payload); err == nil {
			return parsed
		}
	}
	logger.Warn(ctx, "technical extraction failed, continuing with empty section", "error", err)
	return nil
}

func (p *Processor) extractScoring(ctx context.Context, sum sectionSummary) *scoringPayload {
	payload, err := p.extractor.Extract(ctx, buildScoringPrompt(sum))
	if err == nil {
		var parsed *scoringPayload
		if parsed, err = decodeScoring(payload); err == nil {
			return parsed
		}
	}
	logger.Warn(ctx, "scoring extraction failed, continuing with zero score", "error", err)
	return nil
}

// advance moves the record to Processing at the given progress milestone.
func (p *Processor) advance(ctx context.Context, contractID string, progress float64) {
	if err := p.store.UpdateStatus(ctx, contractID, model.StatusProcessing, &progress, ""); err != nil {
		logger.Warn(ctx, "failed to update progress", "progress", progress, "error", err)
	}
}

// fail moves the record to the Failed terminal state, leaving progress at
// its last milestone.
func (p *Processor) fail(ctx context.Context, contractID, detail string) {
	if err := p.store.UpdateStatus(ctx, contractID, model.StatusFailed, nil, detail); err != nil {
		logger.Error(ctx, "failed to mark contract failed", "error", err)
	}
}

func hasContacts(ai model.AccountInfo) bool {
	return ai.BillingDetails != "" || ai.BillingContact != "" ||
		ai.TechnicalContact != "" || len(ai.AccountNumbers) > 0
}

// Supervisor owns fire-and-forget pipeline execution. Every submitted run
// executes on a background context detached from the uploading request, so
// a dropped connection cannot abandon a record in a non-terminal state.
type Supervisor struct {
	processor *Processor
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
}

func NewSupervisor(processor *Processor, maxConcurrent int64) *Supervisor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Supervisor{
		processor: processor,
		sem:       semaphore.NewWeighted(maxConcurrent),
	}
}

// Submit schedules a processing run and returns immediately.
func (s *Supervisor) Submit(contractID, filePath string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx := context.Background()
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer s.sem.Release(1)

		s.processor.Process(ctx, contractID, filePath)
	}()
}

// Shutdown blocks until all in-flight runs reach a terminal state or ctx
// expires.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
