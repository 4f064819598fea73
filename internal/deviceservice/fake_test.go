package deviceservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthome-ai/diagnostic-core/internal/common/apperrors"
	"github.com/smarthome-ai/diagnostic-core/internal/deviceservice"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

func TestFakeDeviceService_GetDevice_NotFound(t *testing.T) {
	svc := deviceservice.NewFakeDeviceService()
	_, err := svc.GetDevice(context.Background(), domain.UniversalDeviceId("smartthings:missing"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestFakeDeviceService_GetDeviceEvents_LimitAndOrder(t *testing.T) {
	svc := deviceservice.NewFakeDeviceService()
	id := domain.UniversalDeviceId("smartthings:abc")
	d := domain.UnifiedDevice{ID: id, Name: "Light"}

	var events []domain.DeviceEvent
	for i := 0; i < 5; i++ {
		events = append(events, domain.DeviceEvent{DeviceID: id, EpochMillis: int64(i) * 1000})
	}
	svc.AddDevice(d, domain.HealthData{Online: true}, events)

	result, err := svc.GetDeviceEvents(context.Background(), id, domain.EventQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, int64(4000), result.Events[0].EpochMillis)
	assert.Equal(t, int64(3000), result.Events[1].EpochMillis)
	assert.True(t, result.Metadata.HasMore)
	assert.Equal(t, 5, result.Metadata.TotalCount)
}

func TestFakeDeviceService_GetBatteryLevel(t *testing.T) {
	svc := deviceservice.NewFakeDeviceService()
	id := domain.UniversalDeviceId("smartthings:abc")
	level := 15
	svc.AddDevice(domain.UnifiedDevice{ID: id}, domain.HealthData{Online: true, BatteryLevel: &level}, nil)

	got, ok, err := svc.GetBatteryLevel(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 15, got)
}

func TestFakeDeviceService_ErrPropagatesToEveryMethod(t *testing.T) {
	svc := deviceservice.NewFakeDeviceService()
	svc.Err = assert.AnError

	_, err := svc.ListDevices(context.Background())
	assert.ErrorIs(t, err, assert.AnError)

	_, _, err = svc.GetBatteryLevel(context.Background(), domain.UniversalDeviceId("x:y"))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFakeAutomationService_ReturnsEmptyNotError(t *testing.T) {
	svc := deviceservice.NewFakeAutomationService()
	rules, err := svc.FindRulesForDevice(context.Background(), domain.UniversalDeviceId("x:y"), "loc1")
	require.NoError(t, err)
	assert.Empty(t, rules)
}
