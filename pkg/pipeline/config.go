package pipeline

// Config collects every pipeline tunable into one record so tests can
// override defaults (spec.md §4.8: "All configuration values are
// collected into a single record to allow test overrides").
type Config struct {
	InitialQueries          int
	ResultsPerQuery         int
	MaxTotalResults         int
	MaxRefinementIterations int
}

// DefaultConfig carries the literal defaults from spec.md §4.8.
func DefaultConfig() Config {
	return Config{
		InitialQueries:          2,
		ResultsPerQuery:         10,
		MaxTotalResults:         30,
		MaxRefinementIterations: 1,
	}
}
