package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("SPRINTFLOW_DB", "")
	t.Setenv("SPRINTFLOW_ACTOR", "")
	t.Setenv("SPRINTFLOW_ROLE", "")

	base := t.TempDir()
	cfg, err := LoadSettings(base)
	require.NoError(t, err)

	assert.Equal(t, base, cfg.Home())
	assert.Equal(t, filepath.Join(base, "sprintflow.db"), cfg.DatabasePath())
	assert.Equal(t, "", cfg.ActorName())
	assert.Equal(t, "member", cfg.ActorRole())
	assert.Equal(t, filepath.Join(base, "digests"), cfg.DigestDir())
	assert.Equal(t, filepath.Join(base, "reports"), cfg.ReportDir())
	assert.Equal(t, "default", cfg.ConfigSource())
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("SPRINTFLOW_DB", "/var/lib/sprintflow/app.db")
	t.Setenv("SPRINTFLOW_ACTOR", "alice")
	t.Setenv("SPRINTFLOW_ROLE", "admin")

	cfg, err := LoadSettings(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/sprintflow/app.db", cfg.DatabasePath())
	assert.Equal(t, "alice", cfg.ActorName())
	assert.Equal(t, "admin", cfg.ActorRole())
	assert.Equal(t, "env", cfg.ConfigSource())
}

func TestLoadSettings_YAMLWinsOverEnv(t *testing.T) {
	t.Setenv("SPRINTFLOW_DB", "/env/app.db")
	t.Setenv("SPRINTFLOW_ACTOR", "alice")
	t.Setenv("SPRINTFLOW_ROLE", "member")

	base := t.TempDir()
	yaml := `database: /yaml/app.db
actor: bob
role: admin
digest_dir: /yaml/digests
report_dir: /yaml/reports
`
	require.NoError(t, os.WriteFile(filepath.Join(base, "settings.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadSettings(base)
	require.NoError(t, err)

	assert.Equal(t, "/yaml/app.db", cfg.DatabasePath())
	assert.Equal(t, "bob", cfg.ActorName())
	assert.Equal(t, "admin", cfg.ActorRole())
	assert.Equal(t, "/yaml/digests", cfg.DigestDir())
	assert.Equal(t, "/yaml/reports", cfg.ReportDir())
	assert.Equal(t, "yaml", cfg.ConfigSource())
}

func TestLoadSettings_PartialYAMLFallsBack(t *testing.T) {
	t.Setenv("SPRINTFLOW_DB", "")
	t.Setenv("SPRINTFLOW_ACTOR", "alice")
	t.Setenv("SPRINTFLOW_ROLE", "")

	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "settings.yaml"), []byte("actor: bob\n"), 0o644))

	cfg, err := LoadSettings(base)
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.ActorName(), "yaml value wins")
	assert.Equal(t, filepath.Join(base, "sprintflow.db"), cfg.DatabasePath(), "default fills the gap")
	assert.Equal(t, "member", cfg.ActorRole())
}

func TestLoadSettings_MalformedYAML(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "settings.yaml"), []byte("{not yaml"), 0o644))

	_, err := LoadSettings(base)
	assert.Error(t, err)
}
