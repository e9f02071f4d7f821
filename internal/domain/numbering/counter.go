package numbering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
)

// DocumentKind identifies a numbered document family. Each kind has its own
// independent counter per tenant.
type DocumentKind string

const (
	KindInvoice       DocumentKind = "invoice"
	KindPurchaseOrder DocumentKind = "purchase_order"
	KindSalesOrder    DocumentKind = "sales_order"
)

// IsValid checks if the kind is a known DocumentKind
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindInvoice, KindPurchaseOrder, KindSalesOrder:
		return true
	}
	return false
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// NumberFormat selects how an allocated counter value is rendered.
// The format only affects the rendered string; the underlying counter is a
// single monotonically increasing integer that is never reset automatically
// at year or month boundaries.
type NumberFormat string

const (
	FormatRunningOnly  NumberFormat = "running_only"
	FormatYearRunning  NumberFormat = "year_running"
	FormatMonthRunning NumberFormat = "month_running"
)

// IsValid checks if the format is a known NumberFormat
func (f NumberFormat) IsValid() bool {
	switch f {
	case FormatRunningOnly, FormatYearRunning, FormatMonthRunning:
		return true
	}
	return false
}

// String returns the string representation of NumberFormat
func (f NumberFormat) String() string {
	return string(f)
}

const (
	MinLeadingZeros = 1
	MaxLeadingZeros = 10
)

// DocumentCounter is the per-tenant, per-kind sequential number source.
// CurrentCounter holds the last issued integer; allocation increments it and
// renders the result, so the two must happen in one atomic unit of work in
// the storage layer.
type DocumentCounter struct {
	shared.TenantAggregateRoot
	Kind           DocumentKind
	Prefix         string
	Format         NumberFormat
	LeadingZeros   int
	CurrentCounter int64
}

// NewDocumentCounter creates a counter config for a document kind, starting
// with no numbers issued.
func NewDocumentCounter(tenantID uuid.UUID, kind DocumentKind, prefix string, format NumberFormat, leadingZeros int) (*DocumentCounter, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", fmt.Sprintf("Unknown document kind %q", kind))
	}
	if !format.IsValid() {
		return nil, shared.NewDomainError("INVALID_NUMBER_FORMAT", fmt.Sprintf("Unknown number format %q", format))
	}
	if leadingZeros < MinLeadingZeros || leadingZeros > MaxLeadingZeros {
		return nil, shared.NewDomainError("INVALID_LEADING_ZEROS", fmt.Sprintf("Leading zeros must be between %d and %d", MinLeadingZeros, MaxLeadingZeros))
	}

	return &DocumentCounter{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		Prefix:              prefix,
		Format:              format,
		LeadingZeros:        leadingZeros,
		CurrentCounter:      0,
	}, nil
}

// defaultPrefixes holds the prefix a tenant starts with for each kind
// before configuring anything.
var defaultPrefixes = map[DocumentKind]string{
	KindInvoice:       "INV-",
	KindPurchaseOrder: "PO-",
	KindSalesOrder:    "SO-",
}

// NewDefaultCounter creates the counter config a tenant implicitly has for
// a kind before any explicit configuration: kind prefix, running_only
// format, five leading zeros.
func NewDefaultCounter(tenantID uuid.UUID, kind DocumentKind) (*DocumentCounter, error) {
	return NewDocumentCounter(tenantID, kind, defaultPrefixes[kind], FormatRunningOnly, 5)
}

// Next increments the counter and renders the newly issued number.
// Callers must persist the incremented counter in the same transaction that
// observed the previous value; the domain object itself carries no locking.
func (c *DocumentCounter) Next(now time.Time) string {
	c.CurrentCounter++
	c.UpdatedAt = time.Now()
	return c.render(c.CurrentCounter, now)
}

// Peek renders what the next allocated number would look like without
// mutating any state. For UI preview only; the actual number is decided at
// allocation time.
func (c *DocumentCounter) Peek(now time.Time) string {
	return c.render(c.CurrentCounter+1, now)
}

// SetCounter is the administrative override. Any value >= 1 is accepted and
// the operation is not validated against numbers already issued, so setting
// the counter backwards can produce duplicate document numbers.
func (c *DocumentCounter) SetCounter(value int64) error {
	if value < 1 {
		return shared.NewDomainError("INVALID_COUNTER_VALUE", "Counter value must be at least 1")
	}
	c.CurrentCounter = value
	c.UpdatedAt = time.Now()
	return nil
}

// ResetCounter restarts numbering so the next issued number renders as 1.
// Like SetCounter this is unchecked against already-issued numbers.
func (c *DocumentCounter) ResetCounter() {
	c.CurrentCounter = 0
	c.UpdatedAt = time.Now()
}

// UpdateConfig changes the rendering configuration. It never touches
// CurrentCounter.
func (c *DocumentCounter) UpdateConfig(prefix string, format NumberFormat, leadingZeros int) error {
	if !format.IsValid() {
		return shared.NewDomainError("INVALID_NUMBER_FORMAT", fmt.Sprintf("Unknown number format %q", format))
	}
	if leadingZeros < MinLeadingZeros || leadingZeros > MaxLeadingZeros {
		return shared.NewDomainError("INVALID_LEADING_ZEROS", fmt.Sprintf("Leading zeros must be between %d and %d", MinLeadingZeros, MaxLeadingZeros))
	}
	c.Prefix = prefix
	c.Format = format
	c.LeadingZeros = leadingZeros
	c.UpdatedAt = time.Now()
	return nil
}

// render formats a counter value according to the configured format:
//
//	running_only:  prefix + padded counter
//	year_running:  prefix + last two digits of year + padded counter
//	month_running: prefix + last two digits of year + two-digit month + padded counter
func (c *DocumentCounter) render(value int64, now time.Time) string {
	padded := fmt.Sprintf("%0*d", c.LeadingZeros, value)
	switch c.Format {
	case FormatYearRunning:
		return fmt.Sprintf("%s%02d%s", c.Prefix, now.Year()%100, padded)
	case FormatMonthRunning:
		return fmt.Sprintf("%s%02d%02d%s", c.Prefix, now.Year()%100, int(now.Month()), padded)
	default:
		return c.Prefix + padded
	}
}
