package notification

import (
	"testing"

	"github.com/klokku/finance/internal/event_bus"
	"github.com/klokku/finance/internal/test_utils"
	"github.com/klokku/finance/pkg/recurring"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeLogger(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	bus := event_bus.NewEventBus()
	SubscribeLogger(bus)
	notifier := NewBusNotifier(bus)
	ctx := test_utils.TestUserContext()

	notifier.NotifySummary(ctx, 2, decimal.NewFromInt(10))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Recurring transactions processed", entry.Message)
	assert.Equal(t, "10.00", entry.Data["total"])

	notifier.NotifyFailure(ctx, recurring.Definition{Id: "r1"}, "boom")
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, "r1", entry.Data["recurringId"])
}
