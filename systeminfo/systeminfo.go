package systeminfo

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// HostInfo is the host context recorded in the report header so a
// finding can be traced back to the machine it was collected on.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelVersion   string `json:"kernel_version,omitempty"`
	Arch            string `json:"arch"`
}

// Collect gathers host context. When the platform probe fails the
// result still carries hostname and runtime identifiers.
func Collect() (*HostInfo, error) {
	h := &HostInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}

	info, err := host.Info()
	if err != nil {
		return h, err
	}
	if info.Hostname != "" {
		h.Hostname = info.Hostname
	}
	h.Platform = info.Platform
	h.PlatformVersion = info.PlatformVersion
	h.KernelVersion = info.KernelVersion
	return h, nil
}
