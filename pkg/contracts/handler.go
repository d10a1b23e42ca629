package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

// Handler mounts its routes on the shared router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}

// Worker is a background loop that runs until ctx is cancelled.
type Worker func(ctx context.Context) error

// Closer releases a resource on shutdown.
type Closer func() error
