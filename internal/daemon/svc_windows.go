//go:build windows

package daemon

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

const acceptedControls = svc.AcceptStop | svc.AcceptShutdown | svc.AcceptPauseAndContinue

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool {
	ok, err := svc.IsWindowsService()
	return err == nil && ok
}

// RunWindowsService runs s under the SCM until it is stopped.
func RunWindowsService(name string, s *Service, logger *zap.Logger) error {
	return svc.Run(name, &scmHandler{service: s, logger: logger})
}

type scmHandler struct {
	service *Service
	logger  *zap.Logger
}

func (h *scmHandler) Execute(_ []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.service.Run(ctx) }()

	changes <- svc.Status{State: svc.Running, Accepts: acceptedControls}
	ctl := h.service.Controller()

	for {
		select {
		case err := <-done:
			if err != nil {
				h.logger.Error("service exited", zap.Error(err))
				return false, 1
			}
			return false, 0

		case req := <-requests:
			switch req.Cmd {
			case svc.Interrogate:
				state := svc.Running
				if ctl.Status().Paused {
					state = svc.Paused
				}
				changes <- svc.Status{State: state, Accepts: acceptedControls}
			case svc.Pause:
				ctl.Pause(ctx)
				changes <- svc.Status{State: svc.Paused, Accepts: acceptedControls}
			case svc.Continue:
				ctl.Resume(ctx)
				changes <- svc.Status{State: svc.Running, Accepts: acceptedControls}
			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				ctl.Shutdown()
				<-done
				return false, 0
			default:
				h.logger.Warn("unexpected service control", zap.Uint32("cmd", uint32(req.Cmd)))
			}
		}
	}
}
