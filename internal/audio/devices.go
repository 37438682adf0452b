// SPDX-License-Identifier: MIT
/*
Package audio wraps the PortAudio subsystem: lifecycle, device
enumeration, live capture streams, and loudness computation.

Hardware access points are exposed through package-level function
variables so tests can substitute them without a sound card.
*/
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Seams for tests. Production code never reassigns these.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
)

var paDevicesFunc = paDevices

// Initialize sets up the PortAudio subsystem. This must be called before
// any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem. This should be
// deferred immediately after Initialize().
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// HostDevices returns all devices known to the host, input-capable or not,
// with IDs matching their host index.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}
	return devices, nil
}

// InputDevices returns only the input-capable devices. IDs keep their
// host index so they remain valid stream identifiers.
func InputDevices() ([]Device, error) {
	devices, err := HostDevices()
	if err != nil {
		return nil, err
	}
	inputs := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

// InputDevice retrieves the PortAudio device info for the given device ID.
// A negative ID selects the system default input device. Returns an error
// if the ID is out of range or the device has no input channels.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID < 0 {
		device, err := paLibDefaultInputDeviceFunc()
		if err != nil {
			return nil, err
		}
		return device, nil
	}

	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if deviceID >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	info := infos[deviceID]
	if info.MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) does not support input", deviceID, info.Name)
	}
	return info, nil
}

// ListDevices prints information about all available audio devices:
// ID, name, direction, channel counts, default sample rate, and latency.
func ListDevices() error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Audio Devices\n\n")

	for _, device := range devices {
		deviceType := ""
		switch {
		case device.MaxInputChannels > 0 && device.MaxOutputChannels > 0:
			deviceType = "Input/Output"
		case device.MaxInputChannels > 0:
			deviceType = "Input"
		case device.MaxOutputChannels > 0:
			deviceType = "Output"
		}

		fmt.Printf("[%d] %s (%s)\n", device.ID, device.Name, deviceType)
		fmt.Printf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		fmt.Printf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		fmt.Println()
	}

	return nil
}

// paDevices returns all PortAudio devices, normalizing a nil result to an
// empty slice.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}
