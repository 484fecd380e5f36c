package interpret

import (
	"context"
	"fmt"
)

// Pipeline runs the two-stage interpretation: classify, then dispatch
// to the extractor selected by the intent. The two completions are
// strictly sequential; extraction depends on the classification
// result. No state is shared across calls.
type Pipeline struct {
	classifier *Classifier
	receipts   *ReceiptExtractor
	statuses   *StatusExtractor
}

// NewPipeline wires the pipeline onto one completer.
func NewPipeline(c Completer) *Pipeline {
	return &Pipeline{
		classifier: NewClassifier(c),
		receipts:   NewReceiptExtractor(c),
		statuses:   NewStatusExtractor(c),
	}
}

// Interpret classifies the email and extracts the matching record.
// Errors: ErrUnavailable when classification fails, ErrNoRecord when a
// status email yields no usable record. Purchase emails never fail;
// at worst they produce a degraded record.
func (p *Pipeline) Interpret(ctx context.Context, msg EmailMessage) (Result, error) {
	intent, err := p.classifier.Classify(ctx, msg)
	if err != nil {
		return Result{}, err
	}

	switch intent {
	case IntentPurchase:
		product, degraded := p.receipts.Extract(ctx, msg)
		return Result{Intent: intent, Product: &product, Degraded: degraded}, nil
	case IntentReturn, IntentShipmentUpdate:
		update, err := p.statuses.Extract(ctx, msg)
		if err != nil {
			return Result{}, err
		}
		return Result{Intent: intent, Status: update}, nil
	case IntentUnknown:
		return Result{}, ErrUnavailable
	default:
		// Unreachable while Intent stays a closed set.
		return Result{}, fmt.Errorf("interpret: unhandled intent %v", intent)
	}
}
