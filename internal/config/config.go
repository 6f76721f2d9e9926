package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"futureswatch/internal/logging"
	"futureswatch/internal/market"
	"futureswatch/internal/session"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig                      `mapstructure:"app"`
	Logging   logging.Config                 `mapstructure:"logging"`
	Database  DatabaseConfig                 `mapstructure:"database"`
	Scheduler SchedulerConfig                `mapstructure:"scheduler"`
	Session   SessionConfig                  `mapstructure:"session"`
	Source    SourceConfig                   `mapstructure:"source"`
	Groups    map[string][]market.Instrument `mapstructure:"groups"`
	Spreads   []market.SpreadDef             `mapstructure:"spreads"`
	Engine    EngineConfig                   `mapstructure:"engine"`
	Breakout  BreakoutConfig                 `mapstructure:"breakout"`
	ZScore    ZScoreConfig                   `mapstructure:"zscore"`
	Alerting  AlertingConfig                 `mapstructure:"alerting"`
	Metrics   MetricsConfig                  `mapstructure:"metrics"`
	Export    ExportConfig                   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates the optional PostgreSQL journal.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs polling cadence.
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	FastInterval      time.Duration `mapstructure:"fast_interval"`
	SlowInterval      time.Duration `mapstructure:"slow_interval"`
	OnlyDuringSession bool          `mapstructure:"only_during_session"`
	StartupDelay      time.Duration `mapstructure:"startup_delay"`
	AdvisoryLock      bool          `mapstructure:"advisory_lock"`
}

// SessionConfig describes trading hours.
type SessionConfig struct {
	Timezone string   `mapstructure:"timezone"`
	Windows  []string `mapstructure:"windows"`
}

// SourceConfig covers the Sina quote endpoint.
type SourceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Referer        string        `mapstructure:"referer"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// EngineConfig selects what the signal engine watches.
type EngineConfig struct {
	Group    string `mapstructure:"group"`
	Focus    string `mapstructure:"focus"`
	Capacity int    `mapstructure:"capacity"`
}

// BreakoutConfig parameterises the breakout-confirmation template.
type BreakoutConfig struct {
	Window         int     `mapstructure:"window"`
	Confirm        int     `mapstructure:"confirm"`
	Buffer         float64 `mapstructure:"buffer"`
	ATRLookback    int     `mapstructure:"atr_lookback"`
	StopMultiplier float64 `mapstructure:"stop_multiplier"`
	RewardRisk     float64 `mapstructure:"reward_risk"`
}

// ZScoreConfig parameterises spread anomaly scoring.
type ZScoreConfig struct {
	Window    int     `mapstructure:"window"`
	Threshold float64 `mapstructure:"threshold"`
}

// AlertingConfig defines alert cooldowns and routing.
type AlertingConfig struct {
	Enabled          bool           `mapstructure:"enabled"`
	BreakoutCooldown time.Duration  `mapstructure:"breakout_cooldown"`
	SpreadCooldown   time.Duration  `mapstructure:"spread_cooldown"`
	Channels         []string       `mapstructure:"channels"`
	Telegram         TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
// A .env file in the working directory is merged into the process
// environment first, without overriding variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FUTURESWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "futureswatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.fast_interval", "2s")
	v.SetDefault("scheduler.slow_interval", "120s")
	v.SetDefault("scheduler.only_during_session", true)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.advisory_lock", false)

	v.SetDefault("session.timezone", "Asia/Shanghai")
	v.SetDefault("session.windows", session.DefaultWindows)

	v.SetDefault("source.base_url", "https://hq.sinajs.cn")
	v.SetDefault("source.referer", "https://finance.sina.com.cn")
	v.SetDefault("source.request_timeout", "5s")
	v.SetDefault("source.user_agent", "")

	v.SetDefault("groups", groupsDefault())
	v.SetDefault("spreads", spreadsDefault())

	v.SetDefault("engine.group", "2605")
	v.SetDefault("engine.focus", "Y")
	v.SetDefault("engine.capacity", 4000)

	v.SetDefault("breakout.window", 180)
	v.SetDefault("breakout.confirm", 3)
	v.SetDefault("breakout.buffer", 1.0)
	v.SetDefault("breakout.atr_lookback", 20)
	v.SetDefault("breakout.stop_multiplier", 0.5)
	v.SetDefault("breakout.reward_risk", 2.0)

	v.SetDefault("zscore.window", 600)
	v.SetDefault("zscore.threshold", 2.0)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.breakout_cooldown", "10m")
	v.SetDefault("alerting.spread_cooldown", "15m")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

// DefaultGroups are the 2605 and 2609 oils-and-meal contract groups.
func DefaultGroups() map[string][]market.Instrument {
	groups := make(map[string][]market.Instrument, 2)
	for _, month := range []string{"2605", "2609"} {
		groups[month] = []market.Instrument{
			{Label: "Y", Symbol: "nf_y" + month},
			{Label: "P", Symbol: "nf_p" + month},
			{Label: "OI", Symbol: "nf_oi" + month},
			{Label: "M", Symbol: "nf_m" + month},
		}
	}
	return groups
}

// DefaultSpreads are the three oil spreads tracked in every group.
func DefaultSpreads() []market.SpreadDef {
	return []market.SpreadDef{
		{Name: "Y-P", LegA: "Y", LegB: "P"},
		{Name: "OI-Y", LegA: "OI", LegB: "Y"},
		{Name: "OI-P", LegA: "OI", LegB: "P"},
	}
}

// viper merges defaults most reliably as plain maps and slices.
func groupsDefault() map[string]any {
	out := make(map[string]any)
	for name, instruments := range DefaultGroups() {
		items := make([]map[string]any, 0, len(instruments))
		for _, inst := range instruments {
			items = append(items, map[string]any{"label": inst.Label, "symbol": inst.Symbol})
		}
		out[name] = items
	}
	return out
}

func spreadsDefault() []map[string]any {
	out := make([]map[string]any, 0, 3)
	for _, sp := range DefaultSpreads() {
		out = append(out, map[string]any{"name": sp.Name, "leg_a": sp.LegA, "leg_b": sp.LegB})
	}
	return out
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs range checks so the engine can assume sane parameters.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.FastInterval <= 0 || c.Scheduler.SlowInterval <= 0 {
		return fmt.Errorf("scheduler.fast_interval and scheduler.slow_interval must be greater than zero")
	}
	if err := session.ValidateWindows(c.Session.Windows); err != nil {
		return err
	}
	if len(c.Session.Windows) == 0 {
		return fmt.Errorf("session.windows must not be empty")
	}

	if _, err := c.Group(c.Engine.Group); err != nil {
		return err
	}
	if err := c.validateSpreads(); err != nil {
		return err
	}
	group, _ := c.Group(c.Engine.Group)
	if _, ok := group.Lookup(c.Engine.Focus); !ok {
		return fmt.Errorf("engine.focus %q is not an instrument of group %q", c.Engine.Focus, c.Engine.Group)
	}

	b := c.Breakout
	if b.Window <= 0 || b.Confirm <= 0 || b.ATRLookback <= 0 {
		return fmt.Errorf("breakout.window, breakout.confirm and breakout.atr_lookback must be greater than zero")
	}
	if b.Buffer <= 0 || b.StopMultiplier <= 0 || b.RewardRisk <= 0 {
		return fmt.Errorf("breakout.buffer, breakout.stop_multiplier and breakout.reward_risk must be greater than zero")
	}
	if c.ZScore.Window <= 0 {
		return fmt.Errorf("zscore.window must be greater than zero")
	}
	if c.ZScore.Threshold <= 0 {
		return fmt.Errorf("zscore.threshold must be greater than zero")
	}

	need := b.Window + b.Confirm + 5
	if c.Engine.Capacity < need || c.Engine.Capacity < c.ZScore.Window {
		return fmt.Errorf("engine.capacity %d must cover breakout history (%d) and zscore.window (%d)",
			c.Engine.Capacity, need, c.ZScore.Window)
	}

	if c.Alerting.BreakoutCooldown < time.Second || c.Alerting.SpreadCooldown < time.Second {
		return fmt.Errorf("alerting cooldowns must be at least one second")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

func (c *Config) validateSpreads() error {
	group, _ := c.Group(c.Engine.Group)
	seen := make(map[string]bool, len(c.Spreads))
	for _, sp := range c.Spreads {
		if sp.Name == "" {
			return fmt.Errorf("spreads: every spread needs a name")
		}
		if seen[sp.Name] {
			return fmt.Errorf("spreads: duplicate spread %q", sp.Name)
		}
		seen[sp.Name] = true
		if sp.LegA == sp.LegB {
			return fmt.Errorf("spreads: %q uses the same leg twice", sp.Name)
		}
		for _, leg := range []string{sp.LegA, sp.LegB} {
			if _, ok := group.Lookup(leg); !ok {
				return fmt.Errorf("spreads: %q references unknown instrument %q", sp.Name, leg)
			}
		}
	}
	return nil
}

// Group resolves a configured instrument group by name.
func (c *Config) Group(name string) (market.Group, error) {
	instruments, ok := c.Groups[name]
	if !ok || len(instruments) == 0 {
		return market.Group{}, fmt.Errorf("unknown instrument group %q", name)
	}
	return market.Group{Name: name, Instruments: instruments}, nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
