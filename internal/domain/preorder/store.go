package preorder

import "context"

// Reader provides read access to customer pre-orders. The notification core
// never writes to them. Implementations live in infra/store/.
type Reader interface {
	// GetByID retrieves a customer pre-order with its campaign loaded.
	// Returns nil, nil if no record is found.
	GetByID(ctx context.Context, id string) (*CustomerPreOrder, error)
}
