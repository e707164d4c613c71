package config

// Config represents the full application configuration.
type Config struct {
	Git      GitConfig      `yaml:"git"`
	Patterns PatternsConfig `yaml:"patterns"`
	Cache    CacheConfig    `yaml:"cache"`
	Strategy StrategyConfig `yaml:"strategy"`
	Backport BackportConfig `yaml:"backport"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GitConfig locates the repository and names the branches the run spans.
type GitConfig struct {
	// RepositoryDir is the working tree backports are applied in.
	RepositoryDir string `yaml:"repositoryDir"`

	// UpstreamBranch is where merged PRs come from.
	UpstreamBranch string `yaml:"upstreamBranch"`

	// TargetBranch is the stable branch picks land on. It must be checked
	// out before a run mutates anything.
	TargetBranch string `yaml:"targetBranch"`
}

// PatternsConfig locates the pattern list files.
type PatternsConfig struct {
	Directory string `yaml:"directory"`
}

// CacheConfig configures the decision cache.
// Backend selects the store: "dir" keeps one editable file per commit,
// "sqlite" keeps everything in a single database file.
type CacheConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// StrategyConfig selects the cherry-pick granularity.
type StrategyConfig struct {
	// Mode is one of PR, MIXED, COMMITS.
	Mode string `yaml:"mode"`

	// MixedThreshold is the member count below which MIXED demotes a PR
	// to per-commit handling.
	MixedThreshold int `yaml:"mixedThreshold"`
}

// BackportConfig tunes how picked commits are recorded.
type BackportConfig struct {
	SignOff     bool   `yaml:"signOff"`
	SignCommits bool   `yaml:"signCommits"`
	MergeTool   string `yaml:"mergeTool"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`  // debug, info, error
	Format  string `yaml:"format"` // json, human
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Git = chooseGit(base.Git, overlay.Git)
	result.Patterns = choosePatterns(base.Patterns, overlay.Patterns)
	result.Cache = chooseCache(base.Cache, overlay.Cache)
	result.Strategy = chooseStrategy(base.Strategy, overlay.Strategy)
	result.Backport = chooseBackport(base.Backport, overlay.Backport)
	result.Logging = chooseLogging(base.Logging, overlay.Logging)

	return result
}

func chooseGit(base, overlay GitConfig) GitConfig {
	result := base
	if overlay.RepositoryDir != "" {
		result.RepositoryDir = overlay.RepositoryDir
	}
	if overlay.UpstreamBranch != "" {
		result.UpstreamBranch = overlay.UpstreamBranch
	}
	if overlay.TargetBranch != "" {
		result.TargetBranch = overlay.TargetBranch
	}
	return result
}

func choosePatterns(base, overlay PatternsConfig) PatternsConfig {
	if overlay.Directory != "" {
		return overlay
	}
	return base
}

func chooseCache(base, overlay CacheConfig) CacheConfig {
	result := base
	if overlay.Backend != "" {
		result.Backend = overlay.Backend
	}
	if overlay.Path != "" {
		result.Path = overlay.Path
	}
	return result
}

func chooseStrategy(base, overlay StrategyConfig) StrategyConfig {
	result := base
	if overlay.Mode != "" {
		result.Mode = overlay.Mode
	}
	if overlay.MixedThreshold != 0 {
		result.MixedThreshold = overlay.MixedThreshold
	}
	return result
}

func chooseBackport(base, overlay BackportConfig) BackportConfig {
	if overlay.SignOff || overlay.SignCommits || overlay.MergeTool != "" {
		return overlay
	}
	return base
}

func chooseLogging(base, overlay LoggingConfig) LoggingConfig {
	if overlay.Enabled || overlay.Level != "" || overlay.Format != "" {
		return overlay
	}
	return base
}
