package models

import (
	"github.com/opsdesk/backend/internal/domain/numbering"
)

// DocumentCounterModel is the persistence model for the DocumentCounter
// aggregate root. One row per tenant and document kind; the unique index is
// what makes lazy counter creation safe under concurrency.
type DocumentCounterModel struct {
	TenantAggregateModel
	Kind           string `gorm:"type:varchar(30);not null;uniqueIndex:idx_document_counter_tenant_kind,priority:2"`
	Prefix         string `gorm:"type:varchar(20);not null"`
	Format         string `gorm:"type:varchar(20);not null"`
	LeadingZeros   int    `gorm:"not null;default:5"`
	CurrentCounter int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentCounterModel) TableName() string {
	return "document_counters"
}

// ToDomain converts the persistence model to a domain DocumentCounter.
func (m *DocumentCounterModel) ToDomain() *numbering.DocumentCounter {
	counter := &numbering.DocumentCounter{
		Kind:           numbering.DocumentKind(m.Kind),
		Prefix:         m.Prefix,
		Format:         numbering.NumberFormat(m.Format),
		LeadingZeros:   m.LeadingZeros,
		CurrentCounter: m.CurrentCounter,
	}
	m.PopulateTenantAggregateRoot(&counter.TenantAggregateRoot)
	return counter
}

// FromDomain populates the persistence model from a domain DocumentCounter.
func (m *DocumentCounterModel) FromDomain(c *numbering.DocumentCounter) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Kind = c.Kind.String()
	m.Prefix = c.Prefix
	m.Format = c.Format.String()
	m.LeadingZeros = c.LeadingZeros
	m.CurrentCounter = c.CurrentCounter
}

// DocumentCounterModelFromDomain creates a new persistence model from a domain DocumentCounter.
func DocumentCounterModelFromDomain(c *numbering.DocumentCounter) *DocumentCounterModel {
	m := &DocumentCounterModel{}
	m.FromDomain(c)
	return m
}
