package models

import "fmt"

// TargetType identifies the business record a node is linked to.
type TargetType string

const (
	TargetTypeJob      TargetType = "job"
	TargetTypeQuote    TargetType = "quote"
	TargetTypeCustomer TargetType = "customer"
	TargetTypeMessage  TargetType = "message"
	TargetTypeSocial   TargetType = "social"
	TargetTypeCalendar TargetType = "calendar"
)

// TargetRef is an optional linkage from a node to a business record.
type TargetRef struct {
	Type TargetType `json:"type" validate:"required"`
	ID   string     `json:"id"   validate:"required"`
}

// NodePayload is the tagged variant carried by a node. The set of
// implementations is sealed; EmptyPayload is the single place mapping node
// types to payload shapes.
type NodePayload interface {
	isNodePayload()
}

// StepPayload is the payload of passive data-reference nodes
// (customer, job, task, quote, custom, vision).
type StepPayload struct {
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Target      *TargetRef `json:"target,omitempty"`
}

// AutomationPayload binds a node to a saved automation record.
type AutomationPayload struct {
	Label        string     `json:"label"`
	Description  string     `json:"description,omitempty"`
	AutomationID string     `json:"automation_id" validate:"required"`
	Target       *TargetRef `json:"target,omitempty"`
}

// MessagePayload is the payload of messaging and whatsapp nodes.
type MessagePayload struct {
	Label string `json:"label"`
	To    string `json:"to"   validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// EmailPayload is the payload of email nodes.
type EmailPayload struct {
	Label   string `json:"label"`
	To      string `json:"to"      validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html"`
}

// SocialPayload is the payload of social posting nodes.
type SocialPayload struct {
	Label     string   `json:"label"`
	Platforms []string `json:"platforms" validate:"required,min=1"`
	Content   string   `json:"content"   validate:"required"`
	Images    []string `json:"images,omitempty"`
}

func (*StepPayload) isNodePayload()       {}
func (*AutomationPayload) isNodePayload() {}
func (*MessagePayload) isNodePayload()    {}
func (*EmailPayload) isNodePayload()      {}
func (*SocialPayload) isNodePayload()     {}

// EmptyPayload returns a zero payload of the variant declared for the node
// type. The switch is exhaustive over the closed type set.
func EmptyPayload(t NodeType) (NodePayload, error) {
	switch t {
	case NodeTypeCustomer, NodeTypeJob, NodeTypeTask, NodeTypeQuote, NodeTypeCustom, NodeTypeVision:
		return &StepPayload{}, nil
	case NodeTypeAutomation:
		return &AutomationPayload{}, nil
	case NodeTypeMessaging, NodeTypeWhatsApp:
		return &MessagePayload{}, nil
	case NodeTypeEmail:
		return &EmailPayload{}, nil
	case NodeTypeSocial:
		return &SocialPayload{}, nil
	}

	return nil, fmt.Errorf("unknown node type %q", t)
}

// PayloadLabel returns the operator-facing label of any payload variant.
func PayloadLabel(p NodePayload) string {
	switch payload := p.(type) {
	case *StepPayload:
		return payload.Label
	case *AutomationPayload:
		return payload.Label
	case *MessagePayload:
		return payload.Label
	case *EmailPayload:
		return payload.Label
	case *SocialPayload:
		return payload.Label
	}

	return ""
}
