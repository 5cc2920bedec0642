package control

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Metadata keys carrying the calling actor.
const (
	hostnameKey = "x-actor-hostname"
	usernameKey = "x-actor-username"
)

// Actor identifies who issued a control call.
type Actor struct {
	Hostname string
	Username string
}

// String returns "username@hostname".
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}

// OutgoingContext attaches the actor to the metadata of outgoing calls.
func OutgoingContext(ctx context.Context, actor *Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		hostnameKey, actor.Hostname,
		usernameKey, actor.Username)
}

// ActorFromContext returns the actor of an incoming call, if the client sent one.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, false
	}

	hostnames, usernames := md.Get(hostnameKey), md.Get(usernameKey)
	if len(hostnames) == 0 && len(usernames) == 0 {
		return nil, false
	}

	actor := new(Actor)
	if len(hostnames) > 0 {
		actor.Hostname = hostnames[0]
	}

	if len(usernames) > 0 {
		actor.Username = usernames[0]
	}

	return actor, true
}
