package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/yuuyuu661/suretto/internal/domain"
)

// Config is loaded once at startup and treated as immutable for the process
// lifetime. Everything is environment-sourced; ROUTES_FILE optionally replaces
// the two env-derived role rules with an arbitrary label->forums table.
type Config struct {
	Token string `validate:"required"`

	SourceChannels []domain.ChannelId
	Routing        domain.RoutingTable

	LinksFile   string
	DatabaseURL string

	LogLevel string
	LogJSON  bool
	OpsAddr  string
}

// Role ids the deployment shipped with; overridable via env.
const (
	defaultMaleRoleId   = 1399390214295785623
	defaultFemaleRoleId = 1399390384756363264
)

// Load reads the configuration from the environment. A missing DISCORD_TOKEN
// is the only fatal condition.
func Load() (*Config, error) {
	cfg := &Config{
		Token:          os.Getenv("DISCORD_TOKEN"),
		SourceChannels: parseIdList(os.Getenv("SOURCE_TEXT_CHANNEL_IDS")),
		LinksFile:      envOr("THREAD_LINKS_FILE", "data/thread_links.json"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogJSON:        parseBool(os.Getenv("LOG_JSON")),
		OpsAddr:        ":8080",
	}

	// An explicitly empty OPS_ADDR disables the ops server.
	if addr, set := os.LookupEnv("OPS_ADDR"); set {
		cfg.OpsAddr = addr
	}

	cfg.Routing = domain.RoutingTable{
		Rules: []domain.RouteRule{
			{
				Label:  "male",
				Role:   parseIdOr(os.Getenv("MALE_ROLE_ID"), defaultMaleRoleId),
				Forums: parseIdList(os.Getenv("MALE_FORUM_IDS")),
			},
			{
				Label:  "female",
				Role:   parseIdOr(os.Getenv("FEMALE_ROLE_ID"), defaultFemaleRoleId),
				Forums: parseIdList(os.Getenv("FEMALE_FORUM_IDS")),
			},
		},
		DefaultForums: parseIdList(os.Getenv("DEFAULT_FORUM_IDS")),
	}

	if path := os.Getenv("ROUTES_FILE"); path != "" {
		table, err := loadRoutesFile(path)
		if err != nil {
			return nil, fmt.Errorf("load routes file %s: %w", path, err)
		}
		cfg.Routing = table
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type routesFile struct {
	Routes []struct {
		Label  string  `yaml:"label"`
		Role   int64   `yaml:"role"`
		Forums []int64 `yaml:"forums"`
	} `yaml:"routes"`
	DefaultForums []int64 `yaml:"default_forums"`
}

func loadRoutesFile(path string) (domain.RoutingTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.RoutingTable{}, err
	}

	var rf routesFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return domain.RoutingTable{}, err
	}

	table := domain.RoutingTable{DefaultForums: rf.DefaultForums}
	for _, r := range rf.Routes {
		table.Rules = append(table.Rules, domain.RouteRule{
			Label:  r.Label,
			Role:   r.Role,
			Forums: r.Forums,
		})
	}
	return table, nil
}

// parseIdList splits a comma-separated id list. Non-numeric entries are
// silently dropped, so a stray value never takes the process down.
func parseIdList(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id < 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseIdOr(s string, fallback int64) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fallback
	}
	return id
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
