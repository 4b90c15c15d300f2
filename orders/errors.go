package orders

import (
	"errors"
	"fmt"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/store"
)

var (
	ErrNotFound             = errors.New("order not found")                           // 404
	ErrForbidden            = errors.New("order belongs to someone else")             // 403
	ErrExpired              = errors.New("time limit expired")                        // 400
	ErrStaleTransition      = errors.New("order status no longer allows this action") // 400
	ErrInvalidInput         = errors.New("invalid input")                             // 400
	ErrConfirmationMismatch = errors.New("incorrect confirmation code")               // 400
	ErrStore                = errors.New("operation did not take effect")             // 500
)

// translate maps store errors onto the taxonomy above.
func translate(err error, id uint) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: order %d", ErrNotFound, id)
	case errors.Is(err, store.ErrStale):
		return fmt.Errorf("%w: order %d", ErrStaleTransition, id)
	default:
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
}
