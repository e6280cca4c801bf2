package device

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jgillich/go-opencl/cl"
)

// Information about a system's opencl platform and supported devices.
type PlatformInfo struct {
	Profile    string
	Version    string
	Name       string
	Vendor     string
	Extensions string
	Devices    []*Device
}

func (pl PlatformInfo) String() string {
	var buf bytes.Buffer

	buf.WriteString(
		fmt.Sprintf(
			"Version:    %s\nName:       %s\nVendor:     %s\nDevices:\n",
			pl.Version,
			pl.Name,
			pl.Vendor,
		),
	)

	for dIdx, d := range pl.Devices {
		buf.WriteString(fmt.Sprintf("  Device %02d:\n", dIdx))
		buf.WriteString(indentRegex.ReplaceAllString(d.String(), "    "))
		buf.WriteString("\n\n")
	}

	return buf.String()
}

// Get information about supported opencl platforms and devices. A system
// without an opencl ICD loader reports no platforms rather than an error.
func GetPlatformInfo() ([]PlatformInfo, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		if strings.Contains(err.Error(), "-1001") {
			return nil, nil
		}
		return nil, fmt.Errorf("opencl: could not query platforms: %v", err)
	}

	infoList := make([]PlatformInfo, len(platforms))
	for pIdx, p := range platforms {
		infoList[pIdx] = PlatformInfo{
			Profile:    p.Profile(),
			Version:    p.Version(),
			Name:       p.Name(),
			Vendor:     p.Vendor(),
			Extensions: p.Extensions(),
			Devices:    make([]*Device, 0),
		}

		for _, clType := range []cl.DeviceType{cl.DeviceTypeCPU, cl.DeviceTypeGPU, cl.DeviceTypeAccelerator} {
			devices, err := p.GetDevices(clType)
			if err != nil {
				if err == cl.ErrDeviceNotFound {
					continue
				}
				return nil, fmt.Errorf("opencl: could not enumerate devices for platform %s: %v", p.Name(), err)
			}

			for _, clDev := range devices {
				infoList[pIdx].Devices = append(infoList[pIdx].Devices, newDevice(clDev, deviceTypeFromCL(clType)))
			}
		}
	}

	return infoList, nil
}

// Scan all available opencl platforms and select devices that match the given
// query. Devices whose names contain any of the blacklisted values are skipped.
func SelectDevices(typeMask DeviceType, matchName string, blackList ...string) ([]*Device, error) {
	platforms, err := GetPlatformInfo()
	if err != nil {
		return nil, err
	}
	list := make([]*Device, 0)
	for _, p := range platforms {
	nextDevice:
		for _, d := range p.Devices {
			// Match type
			if d.Type&typeMask != d.Type {
				continue
			}

			// Match name
			if matchName != "" && !strings.Contains(d.Name, matchName) {
				continue
			}

			for _, text := range blackList {
				if text != "" && strings.Contains(d.Name, text) {
					continue nextDevice
				}
			}

			list = append(list, d)
		}
	}
	return list, nil
}
