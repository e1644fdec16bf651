// Package config loads the layered app configuration: struct defaults,
// then an optional YAML file, then FLICKBOX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "FLICKBOX_CONFIG"

var defaultPaths = []string{
	"flickbox.yaml",
	"flickbox.yml",
	"/etc/flickbox/flickbox.yaml",
}

type Config struct {
	Server  Server  `koanf:"server"`
	Catalog Catalog `koanf:"catalog"`
	Policy  Policy  `koanf:"policy"`
	Search  Search  `koanf:"search"`
	Library Library `koanf:"library"`
	Reviews Reviews `koanf:"reviews"`
}

type Server struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	// AllowedOrigins is honored in production; local runs allow any
	// origin.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type Catalog struct {
	APIKey        string `koanf:"api_key"`
	BaseURL       string `koanf:"base_url"`
	ImageBase     string `koanf:"image_base"`
	BackdropBase  string `koanf:"backdrop_base"`
	DetailWorkers int    `koanf:"detail_workers"`
}

// Policy is content-policy data, not logic: the denylist terms and the
// release-year floor are product decisions and stay injectable.
type Policy struct {
	YearFloor int      `koanf:"year_floor"`
	Denylist  []string `koanf:"denylist"`
}

type Search struct {
	DebounceWindow time.Duration `koanf:"debounce_window"`
}

type Library struct {
	Path string `koanf:"path"`
}

type Reviews struct {
	DBPath string `koanf:"db_path"`
}

func defaults() *Config {
	return &Config{
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Catalog: Catalog{
			APIKey:        "",
			BaseURL:       "https://api.themoviedb.org/3",
			ImageBase:     "https://image.tmdb.org/t/p/w500",
			BackdropBase:  "https://image.tmdb.org/t/p/original",
			DetailWorkers: 4,
		},
		Policy: Policy{
			YearFloor: 2000,
			Denylist:  DefaultDenylist(),
		},
		Search: Search{
			DebounceWindow: 500 * time.Millisecond,
		},
		Library: Library{Path: "data/library"},
		Reviews: Reviews{DBPath: "data/reviews.db"},
	}
}

// DefaultDenylist returns the built-in explicit-content terms. Matching
// is a case-insensitive substring check, so stems cover their longer
// forms.
func DefaultDenylist() []string {
	return []string{
		"sex", "sexual", "porn", "xxx", "nude", "naked", "erotic", "fetish", "bdsm",
		"orgasm", "masturbat", "genital", "intercourse", "blowjob", "handjob", "cunnilingus",
		"fellatio", "sodomy", "pedophil", "incest", "rape", "rapist", "molest", "prostitut",
		"whore", "slut", "fuck", "cock", "dick", "pussy", "cunt", "clit", "vagina", "penis",
		"anal", "boob", "tits", "asshole", "dildo", "vibrator", "orgy", "bisexual", "hardcore",
		"explicit", "pornography", "hentai", "ecchi", "sensual", "seduce", "lascivious",
		"lewd", "salacious", "obscene", "vulgar", "coitus", "copulation", "fornication",
		"playboy", "playmate",
	}
}

// Load builds the configuration with precedence env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// FLICKBOX_POLICY_YEAR_FLOOR -> policy.year_floor: the first
	// underscore separates the section, the rest is the key.
	envProvider := env.Provider("FLICKBOX_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "FLICKBOX_"))
		parts := strings.SplitN(s, "_", 2)
		if len(parts) == 2 {
			return parts[0] + "." + parts[1]
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// List values given through the environment arrive as one
	// comma-separated string.
	for _, key := range []string{"policy.denylist", "server.allowed_origins"} {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		items := []string{}
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if err := k.Set(key, items); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Catalog.APIKey) == "" {
		return errors.New("catalog.api_key is required (FLICKBOX_CATALOG_API_KEY)")
	}
	if c.Policy.YearFloor < 0 {
		return errors.New("policy.year_floor must not be negative")
	}
	if c.Search.DebounceWindow <= 0 {
		return errors.New("search.debounce_window must be positive")
	}
	if c.Catalog.DetailWorkers < 1 {
		c.Catalog.DetailWorkers = 1
	}
	return nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
