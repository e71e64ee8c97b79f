package cache

// ScopedKeyer prefixes the keys of another [Keyer] so that several
// workspaces or servers can share one backend:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "workspace:orders:")
type ScopedKeyer struct {
	Keyer
	Prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return ScopedKeyer{Keyer: inner, Prefix: prefix}
}

func (k ScopedKeyer) DocumentKey(name string) string {
	return k.Prefix + k.Keyer.DocumentKey(name)
}

func (k ScopedKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + k.Keyer.ArtifactKey(dotHash, opts)
}
