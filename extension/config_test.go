package extension

import (
	"testing"
	"time"

	"github.com/xraph/vesting/api"
	historymemory "github.com/xraph/vesting/history/memory"
)

func TestMergeConfigurations(t *testing.T) {
	e := New()

	yamlCfg := Config{Self: "vault.yaml", PluginTimeout: time.Second}
	progCfg := Config{
		Self:           "vault.prog",
		BasePath:       "/api/vesting",
		Overfunding:    "reject",
		DisableMigrate: true,
	}

	got := e.mergeConfigurations(yamlCfg, progCfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"yaml string wins", got.Self, "vault.yaml"},
		{"programmatic fills base path", got.BasePath, "/api/vesting"},
		{"programmatic fills overfunding", got.Overfunding, "reject"},
		{"yaml duration wins", got.PluginTimeout, time.Second},
		{"programmatic flag", got.DisableMigrate, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	got := New().mergeWithDefaults(Config{})
	want := DefaultConfig()
	if got.BasePath != want.BasePath || got.Overfunding != want.Overfunding || got.PluginTimeout != want.PluginTimeout {
		t.Errorf("expected defaults %+v, got %+v", want, got)
	}
}

func TestConfigValidate(t *testing.T) {
	for _, policy := range []string{"", "accept", "reject"} {
		if err := (Config{Overfunding: policy}).validate(); err != nil {
			t.Errorf("policy %q: unexpected error %v", policy, err)
		}
	}
	if err := (Config{Overfunding: "refund"}).validate(); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestBuildHistoryDefaultsToMemory(t *testing.T) {
	hs, err := New().buildHistory()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := hs.(*historymemory.Store); !ok {
		t.Errorf("expected memory history, got %T", hs)
	}
}

func TestBuildVaultOpts(t *testing.T) {
	e := New(WithConfig(Config{Self: "vault.example"}), WithMetrics())
	e.config = e.mergeWithDefaults(e.config)
	e.history = historymemory.New()

	// self, overfunding, plugin timeout, audit, metrics
	if got := len(e.buildVaultOpts()); got != 5 {
		t.Errorf("expected 5 options, got %d", got)
	}
}

func TestWithAuthenticator(t *testing.T) {
	e := New(WithAuthenticator(api.StaticKeys{{Identity: "admin.example", Key: "secret"}}))
	if got := len(e.apiOpts); got != 1 {
		t.Errorf("expected 1 api option, got %d", got)
	}
}
