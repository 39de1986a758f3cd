package ws

import (
	"context"

	"github.com/mcoot/battlearena/internal/model"
)

// Handler receives decoded client events. The arena controller implements it.
type Handler interface {
	HandleSetup(ctx context.Context, conn model.ConnID, identity model.Identity) error
	HandleReadyForBattle(ctx context.Context, conn model.ConnID, identity model.Identity) error
	HandleAttack(ctx context.Context, conn model.ConnID, identity model.Identity) error
	HandleDefend(ctx context.Context, conn model.ConnID, identity model.Identity) error
	HandleRestart(ctx context.Context, conn model.ConnID, identity model.Identity) error
	HandleDisconnect(ctx context.Context, conn model.ConnID)
}
