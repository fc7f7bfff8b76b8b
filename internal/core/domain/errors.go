package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork           = errors.New("network error")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyDraft        = errors.New("order has no line items")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrLineNotFound      = errors.New("line item not in draft")
	ErrIllegalTransition = errors.New("transition not allowed in current status")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrDuplicateRequest  = errors.New("duplicate request")
)

// AvailableUnknown marks an InsufficientStockError whose rejection carried no figure.
const AvailableUnknown = -1

// InsufficientStockError reports the quantity the inventory side said is available for SKU.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Available < 0 {
		return fmt.Sprintf("insufficient stock for %s", e.SKU)
	}
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.SKU, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// RemoteError is implemented by transport errors that carry a server supplied message.
type RemoteError interface {
	error
	RemoteMessage() string
}

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindValidation
	KindInsufficientStock
	KindNotFound
	KindIllegalTransition
	KindRemote
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindNotFound:
		return "not_found"
	case KindIllegalTransition:
		return "illegal_transition"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Kind classifies err for display and retry decisions.
func Kind(err error) ErrorKind {
	var remote RemoteError
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrIllegalTransition):
		return KindIllegalTransition
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyDraft), errors.Is(err, ErrInvalidQuantity):
		return KindValidation
	case errors.As(err, &remote):
		return KindRemote
	default:
		return KindUnknown
	}
}

// Message returns the text shown to an operator for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		if stock.Available < 0 {
			return "Insufficient stock."
		}
		return fmt.Sprintf("Insufficient stock. Only %d available.", stock.Available)
	}
	var remote RemoteError
	if errors.As(err, &remote) && remote.RemoteMessage() != "" {
		return remote.RemoteMessage()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unexpected error occurred"
}
