package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testScenario = `
name: bumper
body: {mass: 1}
mesh: {vertices: [[0, 0, 0], [0.1, 0, 0]]}
frames:
  - collisions:
      - relative_velocity: [0, 0, -1]
        impulse: [0, 0, 10]
        dynamic: true
        contacts:
          - point: [0.1, 0, 0]
            normal: [0, 0, 1]
`

func TestRunScenariosReturnsErrorAfterFlushingLog(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	logPath := filepath.Join(dir, "deformsim.log")
	cfg := "logging:\n  level: info\n  log_file: " + logPath + "\n"
	if err := os.WriteFile("config.yaml", []byte(cfg), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := os.WriteFile("bumper.yaml", []byte(testScenario), 0644); err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}

	err := runScenarios([]string{"bumper.yaml", "missing.yaml"})
	if err == nil {
		t.Fatal("expected error for missing scenario")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "scenario finished") {
		t.Errorf("log file missing run summary:\n%s", data)
	}
}
