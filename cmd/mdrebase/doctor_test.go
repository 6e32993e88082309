package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeDoctorConfig writes a config file pointing at root and returns its path.
func writeDoctorConfig(t *testing.T, root string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctor.yaml")
	if err := os.WriteFile(path, []byte("root: "+root+"\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDoctorCommand_AllChecksPass(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeDoc(t, root, "doc.md", "# Doc\n")
	cfgPath := writeDoctorConfig(t, root)

	out, err := execCommand(t, "doctor", "--config", cfgPath, "--json")
	if err != nil {
		t.Fatalf("doctor failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	summary, ok := result["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary missing: %s", out)
	}
	if summary["failed"] != float64(0) {
		t.Errorf("failed = %v, want 0\nOutput: %s", summary["failed"], out)
	}
	checks, ok := result["checks"].([]any)
	if !ok || len(checks) != 5 {
		t.Fatalf("checks = %v, want 5 entries", result["checks"])
	}
	for _, raw := range checks {
		check, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("check entry has wrong shape: %v", raw)
		}
		if check["status"] != "pass" {
			t.Errorf("check %v = %v, want pass", check["name"], check["status"])
		}
	}
}

func TestDoctorCommand_MissingRootFails(t *testing.T) {
	isolateEnv(t)
	cfgPath := writeDoctorConfig(t, filepath.Join(t.TempDir(), "nope"))

	out, err := execCommand(t, "doctor", "--config", cfgPath, "--json")
	if err == nil {
		t.Fatal("expected doctor to fail for missing root")
	}

	result := parseJSON(t, out)
	checks, ok := result["checks"].([]any)
	if !ok {
		t.Fatalf("checks missing: %s", out)
	}
	statuses := map[string]string{}
	for _, raw := range checks {
		check, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("check entry has wrong shape: %v", raw)
		}
		name, _ := check["name"].(string)
		status, _ := check["status"].(string)
		statuses[name] = status
	}
	if statuses["root"] != "fail" {
		t.Errorf("root check = %q, want fail", statuses["root"])
	}
	if statuses["root writable"] != "warn" {
		t.Errorf("root writable check = %q, want warn (skipped)", statuses["root writable"])
	}
	if statuses["config"] != "pass" {
		t.Errorf("config check = %q, want pass", statuses["config"])
	}
}

func TestDoctorCommand_EmptyTreeWarns(t *testing.T) {
	isolateEnv(t)
	cfgPath := writeDoctorConfig(t, t.TempDir())

	out, err := execCommand(t, "doctor", "--config", cfgPath, "--json")
	if err != nil {
		t.Fatalf("warnings should not fail doctor: %v\nOutput: %s", err, out)
	}

	summary, ok := parseJSON(t, out)["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary missing: %s", out)
	}
	if summary["warnings"] != float64(1) {
		t.Errorf("warnings = %v, want 1", summary["warnings"])
	}
}

func TestDoctorCommand_BrokenConfigFails(t *testing.T) {
	isolateEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(cfgPath, []byte("root: [\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	out, err := execCommand(t, "doctor", "--config", cfgPath, "--json")
	if err == nil {
		t.Fatal("expected doctor to fail for broken config")
	}
	if !strings.Contains(out, "\"config\"") {
		t.Errorf("output should include the config check: %s", out)
	}
}

func TestDoctorCommand_HumanOutput(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeDoc(t, root, "doc.md", "# Doc\n")
	cfgPath := writeDoctorConfig(t, root)

	out, err := execCommand(t, "doctor", "--config", cfgPath)
	if err != nil {
		t.Fatalf("doctor failed: %v\nOutput: %s", err, out)
	}

	checks := []string{
		"mdrebase doctor v",
		"ok",
		"config",
		"root",
		"journal",
		"passed",
	}
	for _, check := range checks {
		if !strings.Contains(out, check) {
			t.Errorf("human output missing %q\nOutput: %s", check, out)
		}
	}
}
