package autoprocess

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_InProcessingWindow(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	tests := []struct {
		name           string
		processingTime string
		now            time.Time
		expected       bool
	}{
		{"should pass at the start of the window", "09:00", time.Date(2024, 3, 4, 9, 0, 0, 0, warsaw), true},
		{"should pass inside the window", "09:00", time.Date(2024, 3, 4, 9, 59, 59, 0, warsaw), true},
		{"should not pass at the end of the window", "09:00", time.Date(2024, 3, 4, 10, 0, 0, 0, warsaw), false},
		{"should not pass before the window", "09:00", time.Date(2024, 3, 4, 8, 59, 0, 0, warsaw), false},
		{"should pass after midnight for a window started the day before", "23:30", time.Date(2024, 3, 5, 0, 15, 0, 0, warsaw), true},
		{"should always pass without processing time", "", time.Date(2024, 3, 4, 3, 0, 0, 0, warsaw), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.ProcessingTime = tt.processingTime

			ok, err := settings.InProcessingWindow(tt.now, time.Hour)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}

	t.Run("should fail closed on unparsable processing time", func(t *testing.T) {
		settings := DefaultSettings()
		settings.ProcessingTime = "25:00"

		ok, err := settings.InProcessingWindow(time.Date(2024, 3, 4, 9, 0, 0, 0, warsaw), time.Hour)

		assert.False(t, ok)
		var configErr *ConfigurationError
		assert.ErrorAs(t, err, &configErr)
		assert.Equal(t, "processingTime", configErr.Field)
	})
}

func TestSettings_IsExcluded(t *testing.T) {
	settings := DefaultSettings()
	settings.ExcludeCategories = []string{"Entertainment", "Travel"}

	assert.True(t, settings.IsExcluded("entertainment"))
	assert.True(t, settings.IsExcluded(" Travel "))
	assert.False(t, settings.IsExcluded("Rent"))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekend(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
	assert.False(t, IsWeekend(time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)))
}

func TestSettings_Validate(t *testing.T) {
	t.Run("should trim categories", func(t *testing.T) {
		settings := DefaultSettings()
		settings.ExcludeCategories = []string{" Fun "}

		validated, err := settings.Validate()

		require.NoError(t, err)
		assert.Equal(t, []string{"Fun"}, validated.ExcludeCategories)
	})

	t.Run("should reject negative max amount", func(t *testing.T) {
		settings := DefaultSettings()
		settings.MaxAmount = decimal.NewFromInt(-1)

		_, err := settings.Validate()

		var configErr *ConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "maxAmount", configErr.Field)
	})

	t.Run("should reject blank category", func(t *testing.T) {
		settings := DefaultSettings()
		settings.ExcludeCategories = []string{"  "}

		_, err := settings.Validate()

		var configErr *ConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "excludeCategories", configErr.Field)
	})

	t.Run("should accept empty processing time", func(t *testing.T) {
		settings := DefaultSettings()
		settings.ProcessingTime = ""

		_, err := settings.Validate()

		assert.NoError(t, err)
	})
}
