// Package triggers catalogs trigger kinds, matches business events to
// workflows, and starts executions when a trigger fires.
package triggers

import "strings"

// Descriptor describes one trigger kind for editor selection.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EventName   string `json:"event_name,omitempty"`
	Manual      bool   `json:"manual,omitempty"`
}

// Built-in trigger event names.
const (
	EventFormSubmission = "form.submitted"
	EventNewCustomer    = "customer.created"
	EventJobCreated     = "job.created"
	EventJobCompleted   = "job.completed"
	EventQuoteApproved  = "quote.approved"
	EventInvoiceOverdue = "invoice.overdue"
	EventSchedule       = "schedule.fired"
)

// Catalog is the read-only descriptor table of available trigger kinds.
type Catalog struct {
	descriptors []Descriptor
}

// NewCatalog creates a catalog with the built-in trigger kinds.
func NewCatalog() *Catalog {
	return &Catalog{
		descriptors: []Descriptor{
			{ID: "form_submission", Name: "Form submission", Description: "A website or landing-page form was submitted.", EventName: EventFormSubmission},
			{ID: "new_customer", Name: "New customer", Description: "A customer record was created.", EventName: EventNewCustomer},
			{ID: "job_created", Name: "Job created", Description: "A job was created.", EventName: EventJobCreated},
			{ID: "job_completed", Name: "Job completed", Description: "A job was marked as completed.", EventName: EventJobCompleted},
			{ID: "quote_approved", Name: "Quote approved", Description: "A customer approved a quote.", EventName: EventQuoteApproved},
			{ID: "invoice_overdue", Name: "Invoice overdue", Description: "An invoice passed its due date without payment.", EventName: EventInvoiceOverdue},
			{ID: "schedule", Name: "Schedule", Description: "A recurring schedule fired.", EventName: EventSchedule},
			{ID: "manual", Name: "Manual", Description: "An operator starts the workflow by hand.", Manual: true},
		},
	}
}

// Descriptors returns every trigger kind in catalog order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)

	return out
}

// Search returns descriptors whose name or description contains the text,
// case-insensitively. Empty text matches everything.
func (c *Catalog) Search(text string) []Descriptor {
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return c.Descriptors()
	}

	out := make([]Descriptor, 0)

	for _, descriptor := range c.descriptors {
		name := strings.ToLower(descriptor.Name)
		description := strings.ToLower(descriptor.Description)

		if strings.Contains(name, query) || strings.Contains(description, query) {
			out = append(out, descriptor)
		}
	}

	return out
}
