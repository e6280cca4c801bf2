package cmd

import (
	"strings"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/cpu"
	"github.com/achilleasa/spheretrace/tracer/opencl"
	"github.com/pkg/errors"
)

const autoDevice = "auto"

// Open the compute device matching name. The special name "auto" picks the
// fastest opencl device and falls back to the cpu device if none is
// available; "opencl" picks the fastest opencl device; "cpu" always selects
// the reference implementation. Any other value is matched against opencl
// device names.
func openDevice(name string, blackList []string) (tracer.Device, error) {
	switch strings.ToLower(name) {
	case cpu.DeviceName:
		return openCPUDevice(), nil
	case autoDevice, "":
		dev, err := openCLDevice("", blackList)
		if err != nil {
			logger.Noticef("no usable opencl device (%v); falling back to the cpu device", err)
			return openCPUDevice(), nil
		}
		return dev, nil
	case "opencl":
		return openCLDevice("", blackList)
	}
	return openCLDevice(name, blackList)
}

func openCPUDevice() tracer.Device {
	dev := cpu.NewDevice(cpu.Options{})
	logger.Noticef("selected device: %s", dev.Name())
	return dev
}

func openCLDevice(matchName string, blackList []string) (tracer.Device, error) {
	clDev, err := opencl.Select(matchName, blackList)
	if err != nil {
		if matchName != "" {
			return nil, errors.Wrapf(err, "no opencl device matching %q", matchName)
		}
		return nil, err
	}

	dev, err := opencl.NewDevice(clDev)
	if err != nil {
		return nil, err
	}
	logger.Noticef("selected device: %s", dev.Name())
	return dev, nil
}
