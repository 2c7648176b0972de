package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"MoleculeRadar/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(unitModeEnv, "")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Orchestrator.GlobalDeadline != 45*time.Second {
		t.Fatalf("unexpected global deadline: %v", cfg.Orchestrator.GlobalDeadline)
	}
	if cfg.Units.Mode != UnitModeLive {
		t.Fatalf("expected live mode by default, got %s", cfg.Units.Mode)
	}

	var sum float64
	for _, role := range domain.Roles {
		sum += cfg.Synthesis.WeightFor(role)
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("default weights must sum to 1, got %.3f", sum)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  port: 9090
orchestrator:
  globalDeadline: 20s
  unitDeadlines:
    clinical: 10s
units:
  mode: canned
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(unitModeEnv, "")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Fatalf("file port not applied: %d", cfg.Server.Port)
	}
	if cfg.Orchestrator.GlobalDeadline != 20*time.Second {
		t.Fatalf("file deadline not applied: %v", cfg.Orchestrator.GlobalDeadline)
	}
	if cfg.Orchestrator.DeadlineFor(domain.RoleClinical) != 10*time.Second {
		t.Fatalf("per-role deadline not applied: %v", cfg.Orchestrator.DeadlineFor(domain.RoleClinical))
	}
	// Untouched roles keep the shared default.
	if cfg.Orchestrator.DeadlineFor(domain.RolePatent) != 30*time.Second {
		t.Fatalf("shared deadline lost: %v", cfg.Orchestrator.DeadlineFor(domain.RolePatent))
	}
	if cfg.Units.Mode != UnitModeCanned {
		t.Fatalf("file mode not applied: %s", cfg.Units.Mode)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
database:
  dsn: postgres://file/db
units:
  mode: live
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env/db")
	t.Setenv(unitModeEnv, "canned")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("env DSN did not win: %s", cfg.Database.DSN)
	}
	if cfg.Units.Mode != UnitModeCanned {
		t.Fatalf("env mode did not win: %s", cfg.Units.Mode)
	}
}

func TestRiskFloorFallsBackToShared(t *testing.T) {
	cfg := SynthesisConfig{RiskFloor: 40, RiskFloors: map[string]float64{string(domain.RoleTrade): 25}}

	if got := cfg.RiskFloorFor(domain.RoleTrade); got != 25 {
		t.Fatalf("per-role floor not applied: %.0f", got)
	}
	if got := cfg.RiskFloorFor(domain.RolePatent); got != 40 {
		t.Fatalf("shared floor lost: %.0f", got)
	}
}
