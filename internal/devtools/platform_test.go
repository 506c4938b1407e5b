package devtools

import (
	"errors"
	"testing"

	"github.com/sapphirepm/sapphire/internal/errs"
	"github.com/sapphirepm/sapphire/internal/events"
)

func fakeRun(t *testing.T, wantName string, out string, err error) RunFunc {
	return func(name string, args ...string) (string, error) {
		t.Helper()
		if name != wantName {
			t.Fatalf("ran %q, want %q", name, wantName)
		}
		return out, err
	}
}

func TestSDKPathOffDarwin(t *testing.T) {
	p := New("linux", "amd64", func(string, ...string) (string, error) {
		t.Fatal("no subprocess should run off darwin")
		return "", nil
	}, &events.Recorder{})

	got, err := p.SDKPath()
	if err != nil || got != "/" {
		t.Fatalf("SDKPath() = %q, %v; want \"/\", nil", got, err)
	}
}

func TestSDKPathDarwin(t *testing.T) {
	sdk := t.TempDir()
	p := New("darwin", "arm64", fakeRun(t, "xcrun", sdk, nil), &events.Recorder{})

	got, err := p.SDKPath()
	if err != nil {
		t.Fatalf("SDKPath() error: %v", err)
	}
	if got != sdk {
		t.Fatalf("SDKPath() = %q, want %q", got, sdk)
	}
}

func TestSDKPathDarwinFailures(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{"runner error", "", errors.New("xcrun: not found")},
		{"empty output", "", nil},
		{"root path", "/", nil},
		{"missing directory", "/no/such/sdk", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("darwin", "arm64", fakeRun(t, "xcrun", tt.out, tt.err), &events.Recorder{})
			_, err := p.SDKPath()
			var envErr *errs.EnvError
			if !errors.As(err, &envErr) {
				t.Fatalf("SDKPath() error = %v, want EnvError", err)
			}
		})
	}
}

func TestOSVersion(t *testing.T) {
	tests := []struct {
		os   string
		out  string
		want string
	}{
		{"linux", "", "0.0"},
		{"darwin", "14.4.1", "14.4"},
		{"darwin", "14.4", "14.4"},
		{"darwin", "15", "15"},
	}
	for _, tt := range tests {
		p := New(tt.os, "arm64", fakeRun(t, "sw_vers", tt.out, nil), &events.Recorder{})
		got, err := p.OSVersion()
		if err != nil {
			t.Fatalf("OSVersion() on %s error: %v", tt.os, err)
		}
		if got != tt.want {
			t.Errorf("OSVersion() on %s with %q = %q, want %q", tt.os, tt.out, got, tt.want)
		}
	}
}

func TestOSVersionFailure(t *testing.T) {
	p := New("darwin", "arm64", fakeRun(t, "sw_vers", "", errors.New("boom")), &events.Recorder{})
	_, err := p.OSVersion()
	var envErr *errs.EnvError
	if !errors.As(err, &envErr) {
		t.Fatalf("OSVersion() error = %v, want EnvError", err)
	}
}

func TestArchFlag(t *testing.T) {
	tests := []struct {
		os, arch string
		want     string
	}{
		{"darwin", "amd64", "-arch x86_64"},
		{"darwin", "arm64", "-arch arm64"},
		{"linux", "amd64", ""},
		{"linux", "arm64", ""},
	}
	for _, tt := range tests {
		p := New(tt.os, tt.arch, nil, &events.Recorder{})
		if got := p.ArchFlag(); got != tt.want {
			t.Errorf("ArchFlag() on %s/%s = %q, want %q", tt.os, tt.arch, got, tt.want)
		}
	}
}

func TestArchFlagUnknownWarns(t *testing.T) {
	rec := &events.Recorder{}
	p := New("darwin", "riscv64", nil, rec)
	if got := p.ArchFlag(); got != "" {
		t.Fatalf("ArchFlag() = %q, want empty for unknown arch", got)
	}
	e, ok := rec.Find("arch.unknown")
	if !ok || e.Level != events.Warn {
		t.Fatalf("expected arch.unknown warning, got %+v", rec.Events)
	}
}

func TestInfoComposition(t *testing.T) {
	p := New("linux", "amd64", nil, &events.Recorder{})
	info, err := p.Info()
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	want := Info{SDKPath: "/", OSVersion: "0.0", ArchFlag: ""}
	if info != want {
		t.Fatalf("Info() = %+v, want %+v", info, want)
	}
}

func TestInfoPropagatesSDKError(t *testing.T) {
	p := New("darwin", "arm64", fakeRun(t, "xcrun", "", errors.New("no xcode")), &events.Recorder{})
	if _, err := p.Info(); err == nil {
		t.Fatal("Info() should propagate SDK probe failure")
	}
}

func TestShortVersion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"14.4.1", "14.4"},
		{"10.15.7", "10.15"},
		{"12.0", "12.0"},
		{"13", "13"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortVersion(tt.in); got != tt.want {
			t.Errorf("shortVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
