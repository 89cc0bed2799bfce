package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrToStatus = attribute.Key("to_status")
	AttrDocType  = attribute.Key("document_type")
)

// DealMetrics counts deal lifecycle activity
type DealMetrics struct {
	transitions     *Counter
	pxConverted     *Counter
	pxReverted      *Counter
	documentsIssued *Counter
}

// NewDealMetrics registers the deal counters on meter
func NewDealMetrics(meter metric.Meter) (*DealMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewDealMetrics: meter cannot be nil")
	}
	transitions, err := NewCounter(meter, "deal_transitions_total", "Deal status transitions", "{transition}")
	if err != nil {
		return nil, err
	}
	pxConverted, err := NewCounter(meter, "px_vehicles_created_total", "Stock vehicles created from part-exchanges", "{vehicle}")
	if err != nil {
		return nil, err
	}
	pxReverted, err := NewCounter(meter, "px_vehicles_removed_total", "Part-exchange vehicles removed on cancellation", "{vehicle}")
	if err != nil {
		return nil, err
	}
	documents, err := NewCounter(meter, "documents_issued_total", "Sales documents issued", "{document}")
	if err != nil {
		return nil, err
	}
	return &DealMetrics{
		transitions:     transitions,
		pxConverted:     pxConverted,
		pxReverted:      pxReverted,
		documentsIssued: documents,
	}, nil
}

// RecordTransition counts a status change
func (m *DealMetrics) RecordTransition(ctx context.Context, to string) {
	m.transitions.Inc(ctx, AttrToStatus.String(to))
}

// RecordPartExchangeConverted counts vehicles created from trade-ins
func (m *DealMetrics) RecordPartExchangeConverted(ctx context.Context, n int) {
	if n > 0 {
		m.pxConverted.Add(ctx, int64(n))
	}
}

// RecordPartExchangeReverted counts trade-in vehicles removed again
func (m *DealMetrics) RecordPartExchangeReverted(ctx context.Context, n int) {
	if n > 0 {
		m.pxReverted.Add(ctx, int64(n))
	}
}

// RecordDocumentIssued counts an issued document
func (m *DealMetrics) RecordDocumentIssued(ctx context.Context, docType string) {
	m.documentsIssued.Inc(ctx, AttrDocType.String(docType))
}
