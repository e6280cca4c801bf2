package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/achilleasa/spheretrace/tracer/cpu"
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List available compute devices.
func ListDevices(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	platforms, err := device.GetPlatformInfo()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Platform", "Device", "Type", "Speed (GFlops)"})
	table.Append([]string{"-", cpu.DeviceName, fmt.Sprintf("%d workers", runtime.NumCPU()), "-"})

	clDevices := 0
	for _, platformInfo := range platforms {
		for _, dev := range platformInfo.Devices {
			table.Append([]string{
				platformInfo.Name,
				dev.Name,
				dev.Type.String(),
				fmt.Sprintf("%d", dev.Speed),
			})
			clDevices++
		}
	}
	table.SetFooter([]string{"", "", "OPENCL DEVICES", fmt.Sprintf("%d", clDevices)})

	table.Render()
	logger.Noticef("system provides %d opencl platform(s)\n%s", len(platforms), buf.String())
	return nil
}
