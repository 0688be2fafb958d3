package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/outageops/sobot/domain/entity"
	"github.com/spf13/viper"
)

func NewConfigRepository(path string) (*Config, error) {
	viper.SetConfigFile(path)

	viper.AutomaticEnv()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("http_port", 3000)
	viper.SetDefault("channel_prefix", "incident-")
	viper.SetDefault("jira.project", "SO")
	viper.SetDefault("jira.issue_type", "Service Outage")
	viper.SetDefault("opsgenie.url", "https://api.opsgenie.com")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	var c Config
	err = viper.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	valid := validator.New()
	if err = valid.Struct(c); err != nil {
		return nil, fmt.Errorf("validate config error: %w", err)
	}

	return &c, nil
}

type Config struct {
	HTTPPort              int                  `mapstructure:"http_port"`
	GeneralOutagesChannel string               `mapstructure:"general_outages_channel" validate:"required"`
	ChannelPrefix         string               `mapstructure:"channel_prefix"`
	ProductList           []entity.Option      `mapstructure:"products" validate:"required,dive"`
	SeverityList          []entity.Option      `mapstructure:"severities" validate:"required,dive"`
	TeamList              []entity.TeamChannel `mapstructure:"teams" validate:"required,dive"`
	ComponentList         []entity.Option      `mapstructure:"components"`
	Jira                  JiraConfig           `mapstructure:"jira"`
	Statuspage            StatuspageConfig     `mapstructure:"statuspage"`
	Opsgenie              OpsgenieConfig       `mapstructure:"opsgenie"`
}

type JiraConfig struct {
	Server    string `mapstructure:"server" validate:"required"`
	Email     string `mapstructure:"email" validate:"required"`
	Project   string `mapstructure:"project"`
	IssueType string `mapstructure:"issue_type"`
}

type StatuspageConfig struct {
	URL         string `mapstructure:"url"`
	PageID      string `mapstructure:"page_id"`
	ComponentID string `mapstructure:"component_id"`
}

type OpsgenieConfig struct {
	URL string `mapstructure:"url"`
}

func (c *Config) Products(_ context.Context) []entity.Option {
	return enabledOptions(c.ProductList)
}

func (c *Config) Severities(_ context.Context) []entity.Option {
	return enabledOptions(c.SeverityList)
}

func (c *Config) Components(_ context.Context) []entity.Option {
	return enabledOptions(c.ComponentList)
}

func (c *Config) Teams(_ context.Context) []entity.TeamChannel {
	var teams []entity.TeamChannel
	for _, team := range c.TeamList {
		if team.Disabled {
			continue
		}
		teams = append(teams, team)
	}
	return teams
}

// ChannelForTeam resolves a team name case-insensitively. The second
// return is false when the team is unknown or has no channel mapped.
func (c *Config) ChannelForTeam(_ context.Context, name string) (string, bool) {
	for _, team := range c.TeamList {
		if team.Disabled {
			continue
		}
		if strings.EqualFold(team.Name, name) && team.ChannelID != "" {
			return team.ChannelID, true
		}
	}
	return "", false
}

func enabledOptions(options []entity.Option) []entity.Option {
	var enabled []entity.Option
	for _, option := range options {
		if option.Disabled {
			continue
		}
		enabled = append(enabled, option)
	}
	return enabled
}
