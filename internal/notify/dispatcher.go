package notify

import "context"

type Result string

const (
	ResultOK      Result = "ok"
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
)

// LocationChange describes an order movement worth telling the customer
// about.
type LocationChange struct {
	OrderID       int64
	CustomerName  string
	Phone         string
	LocationID    string
	LocationLabel string
	StatusLabel   string
}

// Dispatcher delivers customer notifications. Delivery is best effort:
// implementations return ResultSkipped when there is no destination and
// ResultFailed with the error when the gateway rejects the send. Callers
// never fail their own operation on a dispatch error.
type Dispatcher interface {
	NotifyLocationChange(ctx context.Context, change LocationChange) (Result, error)
}

// Noop silently drops every notification. Used when no gateway is
// configured.
type Noop struct{}

func (Noop) NotifyLocationChange(context.Context, LocationChange) (Result, error) {
	return ResultSkipped, nil
}
