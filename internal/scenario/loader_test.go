package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

// helper: write a scenario file into dir
func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const yamlScenario = `id: live-binds
description: binds during the live phase only
steps:
  - phase: start
  - phase: live
  - bind:
      count: 3
expect:
  exit_code: 0
  out_of_phase: 0
`

const jsonScenario = `{
  "id": "onload-bind",
  "steps": [
    {"bind": {"count": 1, "thread": "main"}}
  ],
  "expect": {"exit_code": 97, "out_of_phase": 1}
}`

const tomlScenario = `id = "concurrent-early"

[[steps]]
[steps.bind]
count = 8
workers = 4

[expect]
exit_code = 97
out_of_phase = 8
`

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	p := writeScenario(t, dir, "live.yaml", yamlScenario)
	sc, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.ID != "live-binds" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Steps[2].Bind == nil || sc.Steps[2].Bind.Count != 3 {
		t.Fatalf("bind step not parsed: %+v", sc.Steps[2])
	}
	if sc.Expect == nil || sc.Expect.ExitCode != 0 {
		t.Fatalf("expect block not parsed: %+v", sc.Expect)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	sc, err := Load(writeScenario(t, dir, "onload.json", jsonScenario))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.ID != "onload-bind" || sc.Expect.ExitCode != 97 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	sc, err := Load(writeScenario(t, dir, "concurrent.toml", tomlScenario))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.Steps[0].Bind == nil || sc.Steps[0].Bind.Workers != 4 {
		t.Fatalf("workers not parsed: %+v", sc.Steps[0])
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	p := writeScenario(t, dir, "s.ini", "id=x")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"noid.yaml":    "steps: []\n",
		"both.yaml":    "id: x\nsteps:\n  - phase: live\n    bind:\n      count: 1\n",
		"neither.yaml": "id: x\nsteps:\n  - {}\n",
		"phase.yaml":   "id: x\nsteps:\n  - phase: warmup\n",
		"count.yaml":   "id: x\nsteps:\n  - bind:\n      count: 0\n",
	}
	for name, content := range cases {
		p := writeScenario(t, dir, name, content)
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", yamlScenario)
	writeScenario(t, dir, "b.json", jsonScenario)
	writeScenario(t, dir, "c.toml", tomlScenario)
	writeScenario(t, dir, "ignored.txt", "not a scenario")
	reg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if reg.Len() != 3 {
		t.Fatalf("expected 3 scenarios, got %d", reg.Len())
	}
	if _, err := reg.Get("onload-bind"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := reg.Get("missing"); !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestLoadDirDuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", yamlScenario)
	writeScenario(t, dir, "b.yaml", yamlScenario)
	if _, err := LoadDir(dir); !IsDuplicateID(err) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}
