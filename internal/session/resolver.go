package session

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/roomflow/internal/cachemanager"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/route"
)

// DefaultAliasTTL is how long a resolved alias is trusted.
const DefaultAliasTTL = 10 * time.Minute

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAliasCache sets the cache for alias resolutions and their ttl.
func WithAliasCache(cache cachemanager.CacheManager[string, AliasResolution], ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.aliasCache = cache
		r.aliasTTL = ttl
	}
}

// WithTracer records a span per lookup.
func WithTracer(tracer trace.Tracer) ResolverOption {
	return func(r *Resolver) { r.tracer = tracer }
}

// Resolver answers the lookups flows make before presenting a room.
// Alias resolutions are cached; concurrent identical lookups are collapsed
// into a single request.
type Resolver struct {
	client     Client
	aliasCache cachemanager.CacheManager[string, AliasResolution]
	aliasTTL   time.Duration
	aliases    *cachemanager.ReadThroughCache[string, AliasResolution, string]
	summaries  singleflight.Group
	events     singleflight.Group
	tracer     trace.Tracer
}

func NewResolver(client Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:   client,
		aliasTTL: DefaultAliasTTL,
		tracer:   noop.NewTracerProvider().Tracer("session"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.aliasCache == nil {
		r.aliasCache = cachemanager.NewInMemoryCacheManager[string, AliasResolution]("aliases", r.aliasTTL, cachemanager.DefaultCleanupInterval)
	}
	r.aliases = cachemanager.NewReadThroughCache(r.aliasCache, client.ResolveAlias, false)
	return r
}

// Client returns the underlying session client.
func (r *Resolver) Client() Client { return r.client }

// ResolveAlias resolves alias to a room id, using the cache when possible.
func (r *Resolver) ResolveAlias(ctx context.Context, alias string) (AliasResolution, error) {
	ctx, span := r.tracer.Start(ctx, "session.resolve_alias", trace.WithAttributes(attribute.String("alias", alias)))
	defer span.End()

	res, err := r.aliases.Get(ctx, alias, alias, r.aliasTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatSession, "alias resolution failed", err, "alias", alias)
		return AliasResolution{}, err
	}
	span.SetAttributes(attribute.String("room_id", res.RoomID))
	return res, nil
}

// RoomSummary fetches the summary of roomID.
func (r *Resolver) RoomSummary(ctx context.Context, roomID string) (RoomInfo, error) {
	ctx, span := r.tracer.Start(ctx, "session.room_summary", trace.WithAttributes(attribute.String("room_id", roomID)))
	defer span.End()

	v, err, shared := r.summaries.Do(roomID, func() (any, error) {
		return r.client.RoomSummary(ctx, roomID)
	})
	span.SetAttributes(attribute.Bool("shared", shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RoomInfo{}, err
	}
	return v.(RoomInfo), nil
}

// EventDetails fetches the routing details of eventID in roomID.
func (r *Resolver) EventDetails(ctx context.Context, roomID, eventID string) (EventDetails, error) {
	ctx, span := r.tracer.Start(ctx, "session.event_details", trace.WithAttributes(
		attribute.String("room_id", roomID),
		attribute.String("event_id", eventID),
	))
	defer span.End()

	v, err, _ := r.events.Do(roomID+"/"+eventID, func() (any, error) {
		return r.client.EventDetails(ctx, roomID, eventID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EventDetails{}, err
	}
	return v.(EventDetails), nil
}

// ResolveRoute turns an alias route into its id-based equivalent. Other
// routes are returned unchanged.
func (r *Resolver) ResolveRoute(ctx context.Context, rt route.Route) (route.Route, error) {
	if !rt.NeedsAliasResolution() {
		return rt, nil
	}
	res, err := r.ResolveAlias(ctx, rt.Alias)
	if err != nil {
		return rt, fmt.Errorf("resolve route %s: %w", rt, err)
	}
	return route.Normalize(rt, res.RoomID, res.Via), nil
}

// InvalidateAlias forgets a cached alias resolution.
func (r *Resolver) InvalidateAlias(ctx context.Context, alias string) error {
	return r.aliases.Invalidate(ctx, alias)
}

// CacheStats reports the alias cache counters.
func (r *Resolver) CacheStats() cachemanager.Stats {
	return r.aliasCache.Stats()
}
