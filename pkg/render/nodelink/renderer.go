package nodelink

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/cache"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/observability"
	"github.com/matzehuels/flowmodel/pkg/render"
)

// keyType is reported to the cache hooks.
const keyType = "artifact"

// Renderer renders diagrams and keeps the results in a cache keyed by the
// hash of the DOT source and the output options.
type Renderer struct {
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger

	// svg is swapped in tests.
	svg func(ctx context.Context, dot string) ([]byte, error)
}

// RendererOption configures a [Renderer].
type RendererOption func(*Renderer)

// WithKeyer sets the keyer; the default is [cache.NewDefaultKeyer].
func WithKeyer(k cache.Keyer) RendererOption { return func(r *Renderer) { r.keyer = k } }

// WithTTL sets the lifetime of cached artifacts. Zero keeps them forever.
func WithTTL(ttl time.Duration) RendererOption { return func(r *Renderer) { r.ttl = ttl } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) RendererOption { return func(r *Renderer) { r.logger = l } }

// NewRenderer creates a renderer over c. A nil cache disables caching.
func NewRenderer(c cache.Cache, opts ...RendererOption) *Renderer {
	r := &Renderer{cache: c, keyer: cache.NewDefaultKeyer(), svg: RenderSVG}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = cache.NewNullCache()
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Render draws v in format ("svg", "pdf" or "png"). Scale applies to PNG.
func (r *Renderer) Render(ctx context.Context, v model.View, opts Options, format string, scale float64) ([]byte, error) {
	if format == "" {
		format = render.FormatSVG
	}
	dot := ToDOT(v, opts)
	key := r.keyer.ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{
		Format:     format,
		Scale:      scale,
		Detailed:   opts.Detailed,
		Positioned: opts.Positioned,
	})

	hooks := observability.Cache()
	data, hit, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed", "err", err)
	}
	if hit {
		hooks.OnCacheHit(ctx, keyType)
		return data, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	svg, err := r.svg(ctx, dot)
	if err != nil {
		return nil, err
	}
	out, err := render.Convert(ctx, svg, format, scale)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, out, r.ttl); err != nil {
		r.logger.Warn("cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, keyType, len(out))
	}
	return out, nil
}
