package shared

import "context"

// Actor identifies the authenticated user attached to a request.
type Actor struct {
	ID    int64
	Name  string
	Email string
	Role  string
}

type contextKey string

const actorKey contextKey = "actor"

// ContextWithActor stores the actor in the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor stored in the context, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
