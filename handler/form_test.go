package handler_test

import (
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outageops/sobot/domain/entity"
	"github.com/outageops/sobot/handler"
)

func selectedOptions(values ...string) []slack.OptionBlockObject {
	options := make([]slack.OptionBlockObject, 0, len(values))
	for _, v := range values {
		options = append(options, slack.OptionBlockObject{Value: v})
	}
	return options
}

func creationValues() map[string]map[string]slack.BlockAction {
	return map[string]map[string]slack.BlockAction{
		"affected_products": {
			"affected_products_action": {SelectedOptions: selectedOptions("Checkout")},
		},
		"severity": {
			"severity_action": {SelectedOption: slack.OptionBlockObject{Value: "SEV1"}},
		},
		"suspected_owning_team": {
			"suspected_owning_team_action": {SelectedOptions: selectedOptions("Payments")},
		},
		"start_time": {
			"start_date_action": {SelectedDate: "2024-12-10"},
		},
		"start_time_picker": {
			"start_time_picker_action": {SelectedTime: "10:00"},
		},
		"end_time": {
			"end_date_action": {SelectedDate: "2024-12-10"},
		},
		"end_time_picker": {
			"end_time_picker_action": {SelectedTime: "11:00"},
		},
		"p1_customer_affected": {
			"p1_customer_affected_action": {SelectedOptions: selectedOptions("p1_customer_affected")},
		},
		"suspected_affected_components": {
			"suspected_affected_components_action": {},
		},
		"description": {
			"description_action": {Value: "checkout is down"},
		},
		"message_for_sp": {
			"message_for_sp_action": {Value: "we are on it"},
		},
		"flags_for_statuspage_notification": {
			"flags_for_statuspage_notification_action": {},
		},
	}
}

func TestExtractCreationForm(t *testing.T) {
	t.Run("happy path combines date and time", func(t *testing.T) {
		form, err := handler.ExtractCreationForm(creationValues())
		require.NoError(t, err)

		assert.Equal(t, []string{"Checkout"}, form.AffectedProducts)
		assert.Equal(t, []string{"SEV1"}, form.Severity)
		assert.Equal(t, []string{"Payments"}, form.SuspectedOwningTeam)
		assert.Equal(t, time.Date(2024, 12, 10, 10, 0, 0, 0, time.UTC), form.StartTime)
		assert.Equal(t, time.Date(2024, 12, 10, 11, 0, 0, 0, time.UTC), form.EndTime)
		assert.True(t, form.CustomerAffected)
		assert.Empty(t, form.AffectedComponents)
		assert.Equal(t, "checkout is down", form.Description)
		assert.Equal(t, "we are on it", form.Message)
		assert.False(t, form.NotifyStatuspage)
		assert.False(t, form.CreateSeparateChannel)
	})

	t.Run("missing start time names the field", func(t *testing.T) {
		values := creationValues()
		values["start_time_picker"] = map[string]slack.BlockAction{}
		_, err := handler.ExtractCreationForm(values)
		require.Error(t, err)
		var validation *entity.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "start_time", validation.Field)
	})

	t.Run("malformed date names the field", func(t *testing.T) {
		values := creationValues()
		values["end_time"] = map[string]slack.BlockAction{
			"end_date_action": {SelectedDate: "10-12-2024"},
		}
		_, err := handler.ExtractCreationForm(values)
		require.Error(t, err)
		var validation *entity.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "end_time", validation.Field)
	})

	t.Run("empty required multi-select is an error", func(t *testing.T) {
		values := creationValues()
		values["affected_products"] = map[string]slack.BlockAction{
			"affected_products_action": {},
		}
		_, err := handler.ExtractCreationForm(values)
		require.Error(t, err)
		var validation *entity.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "affected_products", validation.Field)
	})

	t.Run("empty optional multi-select is an empty list", func(t *testing.T) {
		form, err := handler.ExtractCreationForm(creationValues())
		require.NoError(t, err)
		assert.NotNil(t, form.AffectedComponents)
		assert.Len(t, form.AffectedComponents, 0)
	})

	t.Run("checkbox flags resolve by membership", func(t *testing.T) {
		values := creationValues()
		values["flags_for_statuspage_notification"] = map[string]slack.BlockAction{
			"flags_for_statuspage_notification_action": {
				SelectedOptions: selectedOptions("statuspage_notification"),
			},
		}
		form, err := handler.ExtractCreationForm(values)
		require.NoError(t, err)
		assert.True(t, form.NotifyStatuspage)
		assert.False(t, form.CreateSeparateChannel)
	})
}

func TestExtractLookupForm(t *testing.T) {
	t.Run("extracts the identifier", func(t *testing.T) {
		form, err := handler.ExtractLookupForm(map[string]map[string]slack.BlockAction{
			"so_number": {"so_number_action": {Value: "SO-0042"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "SO-0042", form.SONumber)
	})

	t.Run("missing identifier is a named error", func(t *testing.T) {
		_, err := handler.ExtractLookupForm(map[string]map[string]slack.BlockAction{})
		require.Error(t, err)
		var validation *entity.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "so_number", validation.Field)
	})
}

func TestExtractStatusUpdateForm(t *testing.T) {
	values := func(status string) map[string]map[string]slack.BlockAction {
		return map[string]map[string]slack.BlockAction{
			"so_number": {"so_number_action": {Value: "SO-0042"}},
			"status_update_block": {
				"status_action": {SelectedOption: slack.OptionBlockObject{Value: status}},
			},
			"additional_info_block": {
				"additional_info_action": {Value: "mitigation in progress"},
			},
		}
	}

	t.Run("valid status passes", func(t *testing.T) {
		form, err := handler.ExtractStatusUpdateForm(values("monitoring"))
		require.NoError(t, err)
		assert.Equal(t, "SO-0042", form.SONumber)
		assert.Equal(t, "monitoring", form.NewStatus)
		assert.Equal(t, "mitigation in progress", form.AdditionalInfo)
	})

	t.Run("status outside the allowed set is rejected naming the set", func(t *testing.T) {
		_, err := handler.ExtractStatusUpdateForm(values("archived"))
		require.Error(t, err)
		var validation *entity.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "status_update_block", validation.Field)
		for _, allowed := range entity.UpdatableStatusNames() {
			assert.Contains(t, validation.Reason, allowed)
		}
	})
}
