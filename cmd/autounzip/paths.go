package main

import (
	"github.com/eliteGoblin/focusd/auto_unzip/internal/config"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/infra"
)

// runtimeEnv is the loaded config plus the directories derived from the
// execution mode.
type runtimeEnv struct {
	cfg     *config.Config
	cfgPath string
	mode    *infra.ExecModeConfig
	dataDir string
	logDir  string
}

func loadEnv() (*runtimeEnv, error) {
	cfg, cfgPath, exists, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		// Under sudo the invoking user's Downloads folder is watched.
		cfg.Paths.WatchDir = infra.DefaultDownloadsDir()
	}
	mode := infra.DetectExecMode()
	env := &runtimeEnv{
		cfg:     cfg,
		cfgPath: cfgPath,
		mode:    mode,
		dataDir: cfg.Paths.DataDir,
		logDir:  cfg.Paths.LogDir,
	}
	if env.dataDir == "" {
		env.dataDir = mode.DataDir
	}
	if env.logDir == "" {
		env.logDir = mode.LogDir
	}
	return env, nil
}
