//go:build windows

package infra

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// peazipRegistryKeys are HKLM keys that may carry InstallLocation.
var peazipRegistryKeys = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\PeaZip`,
	`SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall\PeaZip`,
	`SOFTWARE\PeaZip`,
}

func registryInstallDirs() []string {
	var dirs []string
	for _, key := range peazipRegistryKeys {
		k, err := registry.OpenKey(registry.LOCAL_MACHINE, key, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		loc, _, err := k.GetStringValue("InstallLocation")
		k.Close()
		if err == nil && loc != "" {
			dirs = append(dirs, loc)
		}
	}
	return dirs
}

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
