package config

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (YAML, ENV, defaults)
// so the app layer doesn't depend on infrastructure details.
type Config interface {
	// Home returns the base directory (SPRINTFLOW_HOME)
	Home() string

	// DatabasePath returns the SQLite database path (SPRINTFLOW_DB)
	DatabasePath() string

	// ActorName returns the acting user's name (SPRINTFLOW_ACTOR)
	ActorName() string

	// ActorRole returns the acting user's role (SPRINTFLOW_ROLE)
	ActorRole() string

	// DigestDir returns where notification digests are written
	DigestDir() string

	// ReportDir returns where sprint reports are exported
	ReportDir() string

	// ConfigSource reports where the configuration came from: "yaml",
	// "env" or "default"
	ConfigSource() string
}

// AppConfig is the concrete implementation of the Config interface
type AppConfig struct {
	home         string
	databasePath string
	actorName    string
	actorRole    string
	digestDir    string
	reportDir    string
	configSource string
}

// NewAppConfig creates a config from resolved values
func NewAppConfig(home, databasePath, actorName, actorRole, digestDir, reportDir, configSource string) *AppConfig {
	return &AppConfig{
		home:         home,
		databasePath: databasePath,
		actorName:    actorName,
		actorRole:    actorRole,
		digestDir:    digestDir,
		reportDir:    reportDir,
		configSource: configSource,
	}
}

// Home returns the base directory
func (c *AppConfig) Home() string { return c.home }

// DatabasePath returns the SQLite database path
func (c *AppConfig) DatabasePath() string { return c.databasePath }

// ActorName returns the acting user's name
func (c *AppConfig) ActorName() string { return c.actorName }

// ActorRole returns the acting user's role
func (c *AppConfig) ActorRole() string { return c.actorRole }

// DigestDir returns the notification digest directory
func (c *AppConfig) DigestDir() string { return c.digestDir }

// ReportDir returns the sprint report directory
func (c *AppConfig) ReportDir() string { return c.reportDir }

// ConfigSource reports where the configuration came from
func (c *AppConfig) ConfigSource() string { return c.configSource }
