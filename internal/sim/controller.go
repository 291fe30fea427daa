package sim

import "context"

// Controller is the operator surface shared by the TUI and the admin server.
type Controller interface {
	Jam(ctx context.Context, t Target) ActionResult
	Hijack(ctx context.Context, t Target) ActionResult
	RestoreAll(ctx context.Context) ActionResult
	RequestBriefing(ctx context.Context) error
}

// ControllerSetter is implemented by writers that accept operator input.
type ControllerSetter interface {
	SetController(Controller)
}
