// Package config holds the tunables shared by the builder, spatial index,
// and virtual machine, configured through functional options the way the
// teacher's FileWriterOption configures rebalancing behaviour.
package config

// Config collects every tunable knob in the system. Zero value is never used
// directly; Default() fills in the values the spec fixes.
type Config struct {
	// OctreeMaxDepth is the maximum recursion depth of the spatial index.
	OctreeMaxDepth uint8
	// OctreeMaxLeafItems is the item count at which a leaf stops splitting.
	OctreeMaxLeafItems int
	// KNNProbeRadius is the starting radius for k-NN search.
	KNNProbeRadius float32
	// KNNGrowthFactor multiplies the probe radius each time k-NN
	// search comes up short.
	KNNGrowthFactor float32
	// KNNCeilingRadius is the largest radius k-NN search will try.
	KNNCeilingRadius float32

	// VMExecutionCap is the maximum number of instructions a single
	// compiled query may execute before ExecutionLimitExceeded.
	VMExecutionCap int
	// VMMaxRegisters is the number of general-purpose node-set registers.
	VMMaxRegisters int

	// Flexibility holds the adaptive spatial manager's tuning knobs.
	Flexibility FlexibilityParams
}

// FlexibilityParams controls how aggressively the adaptive spatial manager
// trusts learned patterns over fresh placement.
type FlexibilityParams struct {
	// PatternWeight weights existing learned patterns vs. a brand-new
	// position (0=ignore patterns, 1=patterns only).
	PatternWeight float32
	// MinSeparation is the minimum distance enforced between morphemes.
	MinSeparation float32
	// TypeDeviation is the allowed drift from a type's centroid before a
	// position is flagged as disruptive.
	TypeDeviation float32
	// AllowDrift lets adapt_to_new_morpheme nudge learned centroids.
	AllowDrift bool
	// LearningRate controls how fast centroids move toward new samples.
	LearningRate float32
}

// Default returns the configuration the spec fixes as default behaviour.
func Default() Config {
	return Config{
		OctreeMaxDepth:     10,
		OctreeMaxLeafItems: 16,
		KNNProbeRadius:     0.1,
		KNNGrowthFactor:    2.0,
		KNNCeilingRadius:   2.0,
		VMExecutionCap:     10_000,
		VMMaxRegisters:     16,
		Flexibility: FlexibilityParams{
			PatternWeight: 0.7,
			MinSeparation: 0.01,
			TypeDeviation: 0.2,
			AllowDrift:    true,
			LearningRate:  0.1,
		},
	}
}

// Option mutates a Config during construction.
type Option func(*Config)

// New builds a Config starting from Default and applying opts in order.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithExecutionCap overrides the VM's instruction budget per query.
func WithExecutionCap(cap int) Option {
	return func(c *Config) { c.VMExecutionCap = cap }
}

// WithOctreeLimits overrides the octree's depth and leaf-size limits.
func WithOctreeLimits(maxDepth uint8, maxLeafItems int) Option {
	return func(c *Config) {
		c.OctreeMaxDepth = maxDepth
		c.OctreeMaxLeafItems = maxLeafItems
	}
}

// WithFlexibility overrides the adaptive spatial manager's tuning.
func WithFlexibility(f FlexibilityParams) Option {
	return func(c *Config) { c.Flexibility = f }
}
