// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
)

const LogFilename = "issuetracker.log"

const logQueueSize = 1000

// logLevels is ordered from the most to the least severe.
var logLevels = []mlog.Level{
	mlog.LvlPanic,
	mlog.LvlFatal,
	mlog.LvlError,
	mlog.LvlWarn,
	mlog.LvlInfo,
	mlog.LvlDebug,
	mlog.LvlTrace,
}

// levelsUpTo returns every level at least as severe as the named one.
// Unknown names fall back to INFO.
func levelsUpTo(name string) []mlog.Level {
	var target mlog.Level
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		target = mlog.LvlError
	case "WARN", "WARNING":
		target = mlog.LvlWarn
	case "DEBUG":
		target = mlog.LvlDebug
	case "TRACE":
		target = mlog.LvlTrace
	default:
		target = mlog.LvlInfo
	}

	var levels []mlog.Level
	for _, level := range logLevels {
		levels = append(levels, level)
		if level.ID == target.ID {
			break
		}
	}
	return append(levels, mlog.LvlStdLog)
}

func logFormat(json bool) string {
	if json {
		return "json"
	}
	return "plain"
}

func GetLogFileLocation(fileLocation string) string {
	if fileLocation == "" {
		fileLocation = "logs"
	}

	return filepath.Join(fileLocation, LogFilename)
}

func loggerConfiguration(settings LogSettings) (mlog.LoggerConfiguration, error) {
	cfg := make(mlog.LoggerConfiguration)

	if settings.EnableConsole {
		cfg["console"] = mlog.TargetCfg{
			Type:         "console",
			Format:       logFormat(settings.ConsoleJSON),
			Options:      json.RawMessage(`{"out": "stdout"}`),
			Levels:       levelsUpTo(settings.ConsoleLevel),
			MaxQueueSize: logQueueSize,
		}
	}

	if settings.EnableFile {
		options, err := json.Marshal(map[string]interface{}{
			"filename":    GetLogFileLocation(settings.FileLocation),
			"max_size":    100,
			"max_age":     30,
			"max_backups": 10,
			"compress":    true,
		})
		if err != nil {
			return nil, err
		}
		cfg["file"] = mlog.TargetCfg{
			Type:         "file",
			Format:       logFormat(settings.FileJSON),
			Options:      options,
			Levels:       levelsUpTo(settings.FileLevel),
			MaxQueueSize: logQueueSize,
		}
	}

	return cfg, nil
}

// SetupLogging replaces the global logger with one configured from the
// LogSettings and sends the standard library logger through it.
func SetupLogging(config *Config) error {
	logger, err := mlog.NewLogger()
	if err != nil {
		return err
	}

	cfg, err := loggerConfiguration(config.LogSettings)
	if err != nil {
		return err
	}
	if err = logger.ConfigureTargets(cfg, nil); err != nil {
		return err
	}

	logger.RedirectStdLog(mlog.LvlStdLog)
	mlog.InitGlobalLogger(logger)

	return nil
}
