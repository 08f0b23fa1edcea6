package catalog

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/mood"
)

// FallbackPolicy controls what Resolve returns when no song matches a mood.
type FallbackPolicy string

const (
	// FallbackFullCatalog returns the whole catalog when a mood has no matches.
	FallbackFullCatalog FallbackPolicy = "fullCatalog"
	// FallbackNone returns the empty match set.
	FallbackNone FallbackPolicy = "none"
)

// ParseFallbackPolicy parses a policy name. An empty string selects FallbackFullCatalog.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case "", FallbackFullCatalog:
		return FallbackFullCatalog, nil
	case FallbackNone:
		return FallbackNone, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q (want %q or %q)", s, FallbackFullCatalog, FallbackNone)
	}
}

// Result is the answer to a mood query.
type Result struct {
	Songs        []Song
	UsedFallback bool
}

// Resolver answers "songs for mood M" against a Store.
type Resolver struct {
	store  Store
	policy FallbackPolicy
	logger hclog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFallbackPolicy sets the no-match policy.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(r *Resolver) {
		if p != "" {
			r.policy = p
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l hclog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l.Named("resolver")
		}
	}
}

// NewResolver creates a Resolver. The default policy is FallbackFullCatalog.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		policy: FallbackFullCatalog,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the configured fallback policy.
func (r *Resolver) Policy() FallbackPolicy {
	return r.policy
}

// Resolve returns the songs for m. An empty mood means no filter.
// Store failures are wrapped with ErrUnavailable and never retried.
func (r *Resolver) Resolve(ctx context.Context, m mood.Mood) (Result, error) {
	if m == "" {
		return r.All(ctx)
	}

	songs, err := r.store.FindByMood(ctx, m)
	if err != nil {
		return Result{}, fmt.Errorf("%w: finding songs by mood: %w", ErrUnavailable, err)
	}
	if len(songs) > 0 || r.policy == FallbackNone {
		return Result{Songs: nonNil(songs)}, nil
	}

	r.logger.Debug("no songs for mood, falling back to full catalog", "mood", m)
	all, err := r.All(ctx)
	if err != nil {
		return Result{}, err
	}
	all.UsedFallback = true
	return all, nil
}

// All returns the unfiltered catalog.
func (r *Resolver) All(ctx context.Context) (Result, error) {
	songs, err := r.store.FindAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: finding all songs: %w", ErrUnavailable, err)
	}
	return Result{Songs: nonNil(songs)}, nil
}

func nonNil(songs []Song) []Song {
	if songs == nil {
		return []Song{}
	}
	return songs
}
