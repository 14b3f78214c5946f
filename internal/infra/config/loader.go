// Package config loads settings from settings.yaml with environment
// variable fallbacks. Priority: settings.yaml > ENV > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	appconfig "github.com/anchorworks/sprintflow/internal/app/config"
)

// settingsFile is the YAML shape of settings.yaml
type settingsFile struct {
	Database  string `yaml:"database"`
	Actor     string `yaml:"actor"`
	Role      string `yaml:"role"`
	DigestDir string `yaml:"digest_dir"`
	ReportDir string `yaml:"report_dir"`
}

// LoadSettings builds the application config for the given base directory
func LoadSettings(baseDir string) (appconfig.Config, error) {
	database := filepath.Join(baseDir, "sprintflow.db")
	actor := os.Getenv("SPRINTFLOW_ACTOR")
	role := os.Getenv("SPRINTFLOW_ROLE")
	digestDir := filepath.Join(baseDir, "digests")
	reportDir := filepath.Join(baseDir, "reports")
	source := "default"

	if env := os.Getenv("SPRINTFLOW_DB"); env != "" {
		database = env
		source = "env"
	}
	if actor != "" || role != "" {
		source = "env"
	}
	if role == "" {
		role = "member"
	}

	path := filepath.Join(baseDir, "settings.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return appconfig.NewAppConfig(baseDir, database, actor, role, digestDir, reportDir, source), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings failed: %w", err)
	}

	var sf settingsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse settings failed: %w", err)
	}

	if sf.Database != "" {
		database = sf.Database
	}
	if sf.Actor != "" {
		actor = sf.Actor
	}
	if sf.Role != "" {
		role = sf.Role
	}
	if sf.DigestDir != "" {
		digestDir = sf.DigestDir
	}
	if sf.ReportDir != "" {
		reportDir = sf.ReportDir
	}

	return appconfig.NewAppConfig(baseDir, database, actor, role, digestDir, reportDir, "yaml"), nil
}
