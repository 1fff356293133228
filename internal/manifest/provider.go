package manifest

// StaticProvider serves a fixed package set. It backs tests and tools that
// need selector-compatible manifests without touching the filesystem.
type StaticProvider struct {
	packages []Package
}

// NewStaticProvider wraps the given packages in provider form.
func NewStaticProvider(packages ...Package) *StaticProvider {
	return &StaticProvider{packages: append([]Package(nil), packages...)}
}

// Packages returns the provided packages in their original order.
func (p *StaticProvider) Packages() []Package {
	return append([]Package(nil), p.packages...)
}

// Replace swaps the package set, emulating a rediscovery.
func (p *StaticProvider) Replace(packages ...Package) {
	p.packages = append([]Package(nil), packages...)
}
