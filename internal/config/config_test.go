package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "futureswatch-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Scheduler.FastInterval != 3*time.Second || cfg.Scheduler.SlowInterval != time.Minute {
		t.Fatalf("unexpected intervals: %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.OnlyDuringSession {
		t.Fatal("only_during_session should be overridden to false")
	}
	if cfg.Engine.Group != "2609" || cfg.Engine.Focus != "OI" {
		t.Fatalf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.ZScore.Threshold != 2.5 {
		t.Fatalf("unexpected zscore threshold: %v", cfg.ZScore.Threshold)
	}
	if cfg.Alerting.SpreadCooldown != 30*time.Second {
		t.Fatalf("unexpected spread cooldown: %v", cfg.Alerting.SpreadCooldown)
	}

	group, err := cfg.Group("2609")
	if err != nil {
		t.Fatalf("default group 2609 missing: %v", err)
	}
	if len(group.Instruments) != 4 || group.Instruments[2].Symbol != "nf_oi2609" {
		t.Fatalf("unexpected default instruments: %+v", group.Instruments)
	}
	if len(cfg.Spreads) != 3 || cfg.Spreads[0].Name != "Y-P" {
		t.Fatalf("unexpected default spreads: %+v", cfg.Spreads)
	}
	if len(cfg.Session.Windows) != 4 {
		t.Fatalf("unexpected session windows: %v", cfg.Session.Windows)
	}
}

func validConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{FastInterval: 2 * time.Second, SlowInterval: 2 * time.Minute},
		Session:   SessionConfig{Timezone: "Asia/Shanghai", Windows: []string{"09:00-11:30"}},
		Groups:    DefaultGroups(),
		Spreads:   DefaultSpreads(),
		Engine:    EngineConfig{Group: "2605", Focus: "Y", Capacity: 4000},
		Breakout:  BreakoutConfig{Window: 180, Confirm: 3, Buffer: 1, ATRLookback: 20, StopMultiplier: 0.5, RewardRisk: 2},
		ZScore:    ZScoreConfig{Window: 600, Threshold: 2},
		Alerting:  AlertingConfig{BreakoutCooldown: time.Minute, SpreadCooldown: time.Minute},
		Export:    ExportConfig{MaxDataPoints: 10},
	}
}

func TestValidateRejectsRangeViolations(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("baseline config should validate: %v", err)
	}

	cases := map[string]func(c *Config){
		"window":       func(c *Config) { c.Breakout.Window = 0 },
		"confirm":      func(c *Config) { c.Breakout.Confirm = -1 },
		"buffer":       func(c *Config) { c.Breakout.Buffer = 0 },
		"reward":       func(c *Config) { c.Breakout.RewardRisk = 0 },
		"zwindow":      func(c *Config) { c.ZScore.Window = 0 },
		"threshold":    func(c *Config) { c.ZScore.Threshold = 0 },
		"fast":         func(c *Config) { c.Scheduler.FastInterval = 0 },
		"cooldown":     func(c *Config) { c.Alerting.SpreadCooldown = 0 },
		"capacity":     func(c *Config) { c.Engine.Capacity = 100 },
		"group":        func(c *Config) { c.Engine.Group = "2701" },
		"focus":        func(c *Config) { c.Engine.Focus = "RM" },
		"spread_leg":   func(c *Config) { c.Spreads[0].LegB = "RM" },
		"session":      func(c *Config) { c.Session.Windows = []string{"9-11"} },
		"telegram":     func(c *Config) { c.Alerting.Telegram.Enabled = true },
		"export_point": func(c *Config) { c.Export.MaxDataPoints = 0 },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidateDuplicateSpread(t *testing.T) {
	cfg := validConfig()
	cfg.Spreads = append(cfg.Spreads, cfg.Spreads[0])
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate spread error, got %v", err)
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := validConfig()
	if cfg.ResolveMaxPoints(0) != 10 || cfg.ResolveMaxPoints(3) != 3 {
		t.Fatal("ResolveMaxPoints should prefer the override")
	}
}
