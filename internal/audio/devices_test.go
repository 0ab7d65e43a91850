package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func devicesFixture() []Device {
	return []Device{
		{ID: "alsa_input.usb-mic", Description: "USB Microphone", Available: true},
		{ID: "alsa_input.internal", Description: "Built-in Audio", Available: true, Default: true},
		{ID: "alsa_input.headset", Description: "Headset Mic", Available: true, Muted: true},
		{ID: "alsa_input.hdmi", Description: "HDMI Capture", Available: false},
	}
}

func TestSelectDeviceDefaultInput(t *testing.T) {
	selection, err := selectDeviceFromList(devicesFixture(), "default", "default")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.internal", selection.Device.ID)
	require.False(t, selection.Fallback)
	require.Empty(t, selection.Warning)
}

func TestSelectDeviceMatchesByDescription(t *testing.T) {
	selection, err := selectDeviceFromList(devicesFixture(), "usb micro", "default")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.usb-mic", selection.Device.ID)
}

func TestSelectDeviceNoMatchFails(t *testing.T) {
	_, err := selectDeviceFromList(devicesFixture(), "nonexistent", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match any device")
}

func TestSelectDeviceMutedPrimaryFallsBackToDefault(t *testing.T) {
	selection, err := selectDeviceFromList(devicesFixture(), "headset", "default")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.internal", selection.Device.ID)
	require.True(t, selection.Fallback)
	require.Contains(t, selection.Warning, "muted")
}

func TestSelectDeviceUnavailablePrimaryWithExplicitFallback(t *testing.T) {
	selection, err := selectDeviceFromList(devicesFixture(), "hdmi", "usb")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.usb-mic", selection.Device.ID)
	require.True(t, selection.Fallback)
}

func TestSelectDeviceUnusableFallbackFails(t *testing.T) {
	_, err := selectDeviceFromList(devicesFixture(), "hdmi", "headset")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestSelectDeviceEmptyListFails(t *testing.T) {
	_, err := selectDeviceFromList(nil, "default", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no audio input devices")
}
