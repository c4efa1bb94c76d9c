//go:build windows

package infra

import "golang.org/x/sys/windows"

func isPrivileged() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
