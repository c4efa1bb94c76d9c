//go:build !windows

package infra

import "os"

func isPrivileged() bool {
	return os.Geteuid() == 0
}
