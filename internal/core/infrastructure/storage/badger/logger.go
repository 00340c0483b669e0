package badger

import (
	"strings"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// badgerLogger 把Badger内部日志转发到系统日志
//
// Badger 的 INFO 级别非常嘈杂，统一降为 Debug。
type badgerLogger struct {
	logger log.Logger
}

func newBadgerLogger(logger log.Logger) *badgerLogger {
	return &badgerLogger{logger: logger}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Errorf("badger: "+strings.TrimSpace(format), args...)
	}
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Warnf("badger: "+strings.TrimSpace(format), args...)
	}
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debugf("badger: "+strings.TrimSpace(format), args...)
	}
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debugf("badger: "+strings.TrimSpace(format), args...)
	}
}
