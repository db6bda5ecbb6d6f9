package core

// MorphemeType is the terse storage-layer variant set the spec fixes for the
// binary format (spec §9 Open Questions: the richer builder-side labels —
// AgentSuffix, VerbSuffix, TenseSuffix, and friends — are a higher-level
// classification layered on top, not part of the on-disk enum).
type MorphemeType uint8

const (
	MorphemeRoot MorphemeType = iota
	MorphemePrefix
	MorphemeSuffix
	MorphemeInfix
	MorphemeCircumfix
	MorphemeCompound
)

func (m MorphemeType) String() string {
	switch m {
	case MorphemeRoot:
		return "root"
	case MorphemePrefix:
		return "prefix"
	case MorphemeSuffix:
		return "suffix"
	case MorphemeInfix:
		return "infix"
	case MorphemeCircumfix:
		return "circumfix"
	case MorphemeCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// CompositionWeight returns the data-driven weight used by morphological
// composition and the adaptive manager's defaults (spec §4.5: "these
// weights are data, not code").
func (m MorphemeType) CompositionWeight() float32 {
	switch m {
	case MorphemeRoot:
		return 0.6
	case MorphemePrefix:
		return 0.2
	case MorphemeSuffix:
		return 0.2
	case MorphemeInfix:
		return 0.3
	case MorphemeCircumfix:
		return 0.3
	case MorphemeCompound:
		return 0.5
	default:
		return 0
	}
}

// Valid reports whether m is one of the six storage-layer variants.
func (m MorphemeType) Valid() bool {
	return m <= MorphemeCompound
}

// FineGrainedClass is the builder-side-only, richer classification attached
// alongside a node's storage-layer MorphemeType. It never reaches the file
// format; it exists purely for builder tooling and diagnostics.
type FineGrainedClass uint8

const (
	FineGrainedNone FineGrainedClass = iota
	FineGrainedAgentSuffix
	FineGrainedVerbSuffix
	FineGrainedTenseSuffix
	FineGrainedWord
	FineGrainedPhoneme
)
