package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outageops/sobot/domain/repository"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sobot.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
general_outages_channel = "CGENERAL"

[[products]]
name = "Checkout"

[[products]]
name = "Search"
disabled = true

[[severities]]
name = "SEV1"

[[severities]]
name = "SEV2"

[[teams]]
name = "Payments"
channel_id = "CTEAM"

[[teams]]
name = "Search"
disabled = true
channel_id = "CSEARCH"

[[teams]]
name = "Orphans"

[[components]]
name = "API"

[jira]
server = "https://jira.example.com"
email = "bot@example.com"
`

func TestConfigRepositoryDefaults(t *testing.T) {
	config, err := repository.NewConfigRepository(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 3000, config.HTTPPort)
	assert.Equal(t, "incident-", config.ChannelPrefix)
	assert.Equal(t, "SO", config.Jira.Project)
	assert.Equal(t, "Service Outage", config.Jira.IssueType)
	assert.Equal(t, "https://api.opsgenie.com", config.Opsgenie.URL)
	assert.Equal(t, "CGENERAL", config.GeneralOutagesChannel)
}

func TestConfigRepositoryDisabledOptionsFiltered(t *testing.T) {
	config, err := repository.NewConfigRepository(writeConfig(t, validConfig))
	require.NoError(t, err)

	ctx := context.Background()

	products := config.Products(ctx)
	require.Len(t, products, 1)
	assert.Equal(t, "Checkout", products[0].Name)

	assert.Len(t, config.Severities(ctx), 2)
	assert.Len(t, config.Components(ctx), 1)

	teams := config.Teams(ctx)
	require.Len(t, teams, 2)
	assert.Equal(t, "Payments", teams[0].Name)
	assert.Equal(t, "Orphans", teams[1].Name)
}

func TestConfigRepositoryChannelForTeam(t *testing.T) {
	config, err := repository.NewConfigRepository(writeConfig(t, validConfig))
	require.NoError(t, err)

	ctx := context.Background()

	channel, ok := config.ChannelForTeam(ctx, "Payments")
	assert.True(t, ok)
	assert.Equal(t, "CTEAM", channel)

	channel, ok = config.ChannelForTeam(ctx, "payments")
	assert.True(t, ok)
	assert.Equal(t, "CTEAM", channel)

	_, ok = config.ChannelForTeam(ctx, "Search")
	assert.False(t, ok, "disabled teams must not resolve")

	_, ok = config.ChannelForTeam(ctx, "Orphans")
	assert.False(t, ok, "teams without a channel must not resolve")

	_, ok = config.ChannelForTeam(ctx, "Unknown")
	assert.False(t, ok)
}

func TestConfigRepositoryMissingRequiredField(t *testing.T) {
	_, err := repository.NewConfigRepository(writeConfig(t, `
[[products]]
name = "Checkout"

[[severities]]
name = "SEV1"

[[teams]]
name = "Payments"
channel_id = "CTEAM"

[jira]
server = "https://jira.example.com"
email = "bot@example.com"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config error")
}

func TestConfigRepositoryMissingFile(t *testing.T) {
	_, err := repository.NewConfigRepository(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
