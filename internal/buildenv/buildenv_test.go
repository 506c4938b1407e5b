package buildenv

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sapphirepm/sapphire/internal/devtools"
	"github.com/sapphirepm/sapphire/internal/events"
)

func envValue(env []string, key string) (string, bool) {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func TestApplyToCommandMergesOverAmbient(t *testing.T) {
	t.Setenv("AMBIENT_ONLY", "kept")
	t.Setenv("OVERRIDDEN", "old")

	env := New()
	env.Set("OVERRIDDEN", "new")
	env.Set("ADDED", "value")

	cmd := exec.Command("true")
	env.ApplyToCommand(cmd)

	if v, _ := envValue(cmd.Env, "AMBIENT_ONLY"); v != "kept" {
		t.Errorf("AMBIENT_ONLY = %q, want kept", v)
	}
	if v, _ := envValue(cmd.Env, "OVERRIDDEN"); v != "new" {
		t.Errorf("OVERRIDDEN = %q, want new", v)
	}
	if v, _ := envValue(cmd.Env, "ADDED"); v != "value" {
		t.Errorf("ADDED = %q, want value", v)
	}
	if !sort.StringsAreSorted(cmd.Env) {
		t.Error("cmd.Env should be sorted for determinism")
	}
}

func TestPathStringPrefersBuildEntries(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")

	env := New()
	env.PrependPath("/opt/tools/bin")
	env.PrependPath("/opt/override/bin")

	sep := string(os.PathListSeparator)
	want := "/opt/override/bin" + sep + "/opt/tools/bin" + sep + "/usr/bin"
	if got := env.PathString(); got != want {
		t.Fatalf("PathString() = %q, want %q", got, want)
	}
}

func TestPathStringAmbientOnly(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	if got := New().PathString(); got != "/usr/bin" {
		t.Fatalf("PathString() = %q, want ambient PATH", got)
	}
}

func TestAppendFlag(t *testing.T) {
	env := New()
	env.AppendFlag("CFLAGS", "-arch arm64")
	env.AppendFlag("CFLAGS", "-O2")
	if got := env.Get("CFLAGS"); got != "-arch arm64 -O2" {
		t.Fatalf("CFLAGS = %q", got)
	}
}

func TestForPlatform(t *testing.T) {
	ccDir := t.TempDir()
	cc := filepath.Join(ccDir, "fake-cc")
	if err := os.WriteFile(cc, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CC", cc)
	t.Setenv("CXX", cc)

	sdk := t.TempDir()
	run := func(name string, args ...string) (string, error) {
		switch name {
		case "xcrun":
			return sdk, nil
		case "sw_vers":
			return "14.4.1", nil
		}
		t.Fatalf("unexpected command %q", name)
		return "", nil
	}
	p := devtools.New("darwin", "arm64", run, &events.Recorder{})

	env, err := ForPlatform(p)
	if err != nil {
		t.Fatalf("ForPlatform() error: %v", err)
	}
	if got := env.Get("CC"); got != cc {
		t.Errorf("CC = %q, want %q", got, cc)
	}
	if got := env.Get("SDKROOT"); got != sdk {
		t.Errorf("SDKROOT = %q, want %q", got, sdk)
	}
	if got := env.Get("MACOSX_DEPLOYMENT_TARGET"); got != "14.4" {
		t.Errorf("MACOSX_DEPLOYMENT_TARGET = %q, want 14.4", got)
	}
	if got := env.Get("CFLAGS"); !strings.Contains(got, "-arch arm64") {
		t.Errorf("CFLAGS = %q, want -arch arm64", got)
	}
}

func TestForPlatformNeutralHost(t *testing.T) {
	ccDir := t.TempDir()
	cc := filepath.Join(ccDir, "cc")
	if err := os.WriteFile(cc, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CC", cc)
	t.Setenv("CXX", cc)

	p := devtools.New("linux", "amd64", nil, &events.Recorder{})
	env, err := ForPlatform(p)
	if err != nil {
		t.Fatalf("ForPlatform() error: %v", err)
	}
	for _, key := range []string{"SDKROOT", "MACOSX_DEPLOYMENT_TARGET", "CFLAGS"} {
		if got := env.Get(key); got != "" {
			t.Errorf("%s = %q, want unset on a neutral host", key, got)
		}
	}
}
