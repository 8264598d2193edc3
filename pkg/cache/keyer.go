package cache

// Keyer derives cache keys. Keys are content addressed: the same snapshot
// and options always map to the same key.
type Keyer interface {
	// GraphKey is the key of a built result for a snapshot hash.
	GraphKey(snapshotHash string, opts GraphKeyOpts) string

	// ArtifactKey is the key of a rendered artifact of a built result.
	ArtifactKey(graphKey string, opts ArtifactKeyOpts) string
}

// GraphKeyOpts holds the build options that change a result.
type GraphKeyOpts struct {
	DropUnresolved bool   `json:"drop_unresolved"`
	Reverse        string `json:"reverse"`
}

// ArtifactKeyOpts identifies one rendering of a result.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	ABI        string `json:"abi"`
	Transitive bool   `json:"transitive"`
}

// DefaultKeyer produces keys of the form "linkgraph:<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey implements [Keyer].
func (DefaultKeyer) GraphKey(snapshotHash string, opts GraphKeyOpts) string {
	return hashKey(KeyPrefix+"graph", snapshotHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(graphKey string, opts ArtifactKeyOpts) string {
	return hashKey(KeyPrefix+"artifact", graphKey, opts)
}
