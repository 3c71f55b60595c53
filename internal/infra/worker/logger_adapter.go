package worker

import (
	"fmt"

	waLog "go.mau.fi/whatsmeow/util/log"

	"botfleet/pkg/logger"
)

// LoggerAdapter adapts our logger to whatsmeow's waLog.Logger interface so
// whatsmeow's own internal client/device/noise logging flows through the
// same structured sink as the rest of the service.
type LoggerAdapter struct {
	logger logger.Logger
	module string
}

func NewLoggerAdapter(log logger.Logger, module string) waLog.Logger {
	return &LoggerAdapter{logger: log, module: module}
}

func (l *LoggerAdapter) Debugf(msg string, args ...interface{}) {
	l.logger.DebugWithFields(fmt.Sprintf(msg, args...), logger.Fields{"module": l.module})
}

func (l *LoggerAdapter) Infof(msg string, args ...interface{}) {
	l.logger.InfoWithFields(fmt.Sprintf(msg, args...), logger.Fields{"module": l.module})
}

func (l *LoggerAdapter) Warnf(msg string, args ...interface{}) {
	l.logger.WarnWithFields(fmt.Sprintf(msg, args...), logger.Fields{"module": l.module})
}

func (l *LoggerAdapter) Errorf(msg string, args ...interface{}) {
	l.logger.ErrorWithFields(fmt.Sprintf(msg, args...), logger.Fields{"module": l.module})
}

func (l *LoggerAdapter) Sub(module string) waLog.Logger {
	return NewLoggerAdapter(l.logger, fmt.Sprintf("%s/%s", l.module, module))
}
