//go:build !windows

package infra

import "os/exec"

// registryInstallDirs has nothing to read outside Windows.
func registryInstallDirs() []string { return nil }

func hideWindow(cmd *exec.Cmd) {}
