// Package channels defines the dispatch adapter protocol. An adapter turns
// one workflow node into one side effect on an external medium and reports
// the outcome without interpreting it.
package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldflow/fieldflow/pkg/models"
)

// ErrUnknownChannel is returned when no adapter is registered for a channel.
var ErrUnknownChannel = errors.New("unknown channel")

// Adapter dispatches one node to an external medium. Dispatch returns a
// result for both successful and failed deliveries; the error return is
// reserved for payloads the adapter cannot interpret at all.
type Adapter interface {
	Channel() models.Channel
	Dispatch(ctx context.Context, node *models.Node, execution *models.Execution) (*models.DispatchResult, error)
}

// AdapterFactory creates adapters from configuration.
type AdapterFactory interface {
	ID() models.Channel
	Name() string
	Description() string
	Create(ctx context.Context, config map[string]any) (Adapter, error)
	Schema() map[string]any
}

// ChannelFor maps a node type to the channel that dispatches it. Only action
// node types have a channel.
func ChannelFor(nodeType models.NodeType) (models.Channel, error) {
	switch nodeType {
	case models.NodeTypeAutomation:
		return models.ChannelAutomation, nil
	case models.NodeTypeMessaging:
		return models.ChannelSMS, nil
	case models.NodeTypeWhatsApp:
		return models.ChannelWhatsApp, nil
	case models.NodeTypeEmail:
		return models.ChannelEmail, nil
	case models.NodeTypeSocial:
		return models.ChannelSocial, nil
	case models.NodeTypeCustomer, models.NodeTypeJob, models.NodeTypeTask,
		models.NodeTypeQuote, models.NodeTypeCustom, models.NodeTypeVision:
		return "", fmt.Errorf("node type %q is not dispatchable: %w", nodeType, ErrUnknownChannel)
	default:
		return "", fmt.Errorf("node type %q is not dispatchable: %w", nodeType, ErrUnknownChannel)
	}
}
