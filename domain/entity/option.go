package entity

// Option is a selectable choice in the creation modal.
type Option struct {
	Name     string `mapstructure:"name" validate:"required"`
	Disabled bool   `mapstructure:"disabled"`
}

// TeamChannel maps a team name to its Slack channel. Teams without a
// channel are valid, the team notification is skipped for them.
type TeamChannel struct {
	Name      string `mapstructure:"name" validate:"required"`
	ChannelID string `mapstructure:"channel_id"`
	Disabled  bool   `mapstructure:"disabled"`
}
