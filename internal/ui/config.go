package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/config"
	"github.com/javiermolinar/weekplan/internal/tui/theme"
)

// configSetters maps a dotted key to the field it updates.
var configSetters = map[string]func(*config.Config, string) error{
	"planner.days": func(c *config.Config, v string) error {
		c.Planner.Days = splitDays(v)
		return nil
	},
	"storage.local_path": func(c *config.Config, v string) error { c.Storage.LocalPath = v; return nil },
	"remote.base_url":    func(c *config.Config, v string) error { c.Remote.BaseURL = v; return nil },
	"remote.timeout":     func(c *config.Config, v string) error { c.Remote.Timeout = v; return nil },
	"remote.requests_per_second": func(c *config.Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.Remote.RequestsPerSecond = f
		return err
	},
	"server.addr":    func(c *config.Config, v string) error { c.Server.Addr = v; return nil },
	"server.db_path": func(c *config.Config, v string) error { c.Server.DBPath = v; return nil },
	"server.mode":    func(c *config.Config, v string) error { c.Server.Mode = v; return nil },
	"server.rate_per_minute": func(c *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Server.RatePerMinute = n
		return err
	},
	"log.level": func(c *config.Config, v string) error { c.Log.Level = v; return nil },
	"log.file":  func(c *config.Config, v string) error { c.Log.File = v; return nil },
	"ui.theme": func(c *config.Config, v string) error {
		v = strings.ToLower(v)
		if !theme.IsAvailable(v) {
			return fmt.Errorf("unknown theme %q (available: %s)", v, strings.Join(theme.Available(), ", "))
		}
		c.UI.Theme = v
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (a *App) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration file",
		Long: `Print the configuration file, writing one with default values if it does
not exist yet. Use "config set" to change a single value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(a.configPath, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Change one configuration value",
		Long:  "Keys: " + strings.Join(configKeys(), ", "),
		Example: `  weekplan config set remote.base_url https://plan.example.com
  weekplan config set planner.days monday,tuesday,wednesday,thursday,friday`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(a.configPath, args[0], args[1], cmd.OutOrStdout())
		},
	})
	return cmd
}

func showConfig(path string, out io.Writer) error {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(out, formatMuted("# created with default values"))
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Fprintln(out, formatMuted("# "+path))
	_, err = out.Write(data)
	return err
}

func setConfig(path, key, value string, out io.Writer) error {
	set, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("unknown key %q (keys: %s)", key, strings.Join(configKeys(), ", "))
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := set(cfg, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}

func splitDays(s string) []string {
	var days []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			days = append(days, p)
		}
	}
	return days
}
