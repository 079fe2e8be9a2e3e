package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pipeline runs one upload through every stage in order. It holds only
// immutable collaborators, so concurrent scans share nothing.
type Pipeline struct {
	preprocessor *Preprocessor
	extractor    *Extractor
	parser       *Parser
	validator    *Validator
	assembler    *Assembler
	metrics      *Metrics
}

// NewPipeline wires the stages together; metrics may be nil
func NewPipeline(preprocessor *Preprocessor, extractor *Extractor, parser *Parser, validator *Validator, assembler *Assembler, metrics *Metrics) *Pipeline {
	return &Pipeline{
		preprocessor: preprocessor,
		extractor:    extractor,
		parser:       parser,
		validator:    validator,
		assembler:    assembler,
		metrics:      metrics,
	}
}

// Scan validates the upload and returns its Draft or the first stage failure.
// Panics in any stage are reported as internal errors.
func (p *Pipeline) Scan(ctx context.Context, upload Upload) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Scan panicked", "panic", r)
			out = Outcome{Kind: KindInternalError, Reason: ReasonInternal}
		}
		p.metrics.scan(out.Kind)
		slog.Info("Scan finished", "outcome", out.Kind, "duration", time.Since(start))
	}()

	draft, err := p.run(ctx, upload)
	if err != nil {
		out = outcomeFromError(err)
		p.logFailure(out, err)
		return out
	}
	return Outcome{Kind: KindSuccess, Draft: draft}
}

func (p *Pipeline) run(ctx context.Context, upload Upload) (*Draft, error) {
	stageStart := time.Now()
	data, err := ValidateUpload(upload)
	p.metrics.stage("ingress", stageStart)
	if err != nil {
		return nil, err
	}
	slog.Info("Upload accepted", "filename", upload.Filename, "bytes", len(data))

	stageStart = time.Now()
	image, err := p.preprocessor.Preprocess(data)
	p.metrics.stage("preprocess", stageStart)
	if err != nil {
		return nil, err
	}
	slog.Info("Image preprocessed", "input_bytes", len(data), "output_bytes", len(image))

	stageStart = time.Now()
	result, err := p.extractor.Extract(ctx, image)
	p.metrics.stage("ocr", stageStart)
	if err != nil {
		return nil, err
	}

	cleaned := CleanText(result.Text)
	slog.Info("Text extracted", "raw_chars", len(result.Text), "cleaned_chars", len(cleaned))

	stageStart = time.Now()
	reply, err := p.parser.Parse(ctx, cleaned)
	p.metrics.stage("completion", stageStart)
	if err != nil {
		return nil, err
	}

	stageStart = time.Now()
	invoice, err := p.validator.Validate(reply)
	p.metrics.stage("validate", stageStart)
	if err != nil {
		return nil, err
	}

	draft := p.assembler.Assemble(invoice)
	if draft == nil {
		return nil, fmt.Errorf("assembling draft: no result")
	}
	slog.Info("Invoice parsed", "supplier", draft.Expense.NameSupplier, "line_items", len(draft.LineItems))
	return draft, nil
}

func (p *Pipeline) logFailure(out Outcome, err error) {
	switch out.Kind {
	case KindInternalError, KindTransientFailure:
		slog.Error("Scan failed", "outcome", out.Kind, "error", err)
	case KindParseFailure, KindNotAnInvoice:
		slog.Warn("Scan rejected", "outcome", out.Kind, "error", err, "raw_output", out.RawText)
	default:
		slog.Info("Scan rejected", "outcome", out.Kind, "invalid", out.Invalid, "error", err)
	}
}
