package sql

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// loggerAdaptor routes GORM's logger interface onto logrus so store and
// application logs share one sink. Statement traces land at debug, slow
// statements at warn, failures at error.
type loggerAdaptor struct {
	log    *logrus.Logger
	config LoggerAdaptorConfig
}

type LoggerAdaptorConfig struct {
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

//nolint:ireturn
func NewLoggerAdaptor(l *logrus.Logger, cfg LoggerAdaptorConfig) logger.Interface {
	return &loggerAdaptor{log: l, config: cfg}
}

// LogMode is a no-op; the logrus level decides what gets emitted.
//
//nolint:ireturn
func (l *loggerAdaptor) LogMode(_ logger.LogLevel) logger.Interface {
	return l
}

func (l *loggerAdaptor) Info(ctx context.Context, format string, args ...interface{}) {
	l.log.WithContext(ctx).Infof(format, args...)
}

func (l *loggerAdaptor) Warn(ctx context.Context, format string, args ...interface{}) {
	l.log.WithContext(ctx).Warnf(format, args...)
}

func (l *loggerAdaptor) Error(ctx context.Context, format string, args ...interface{}) {
	l.log.WithContext(ctx).Errorf(format, args...)
}

func (l *loggerAdaptor) statementEntry(
	ctx context.Context, elapsed time.Duration, fc func() (string, int64),
) *logrus.Entry {
	entry := l.log.WithContext(ctx)
	if fc == nil {
		return entry
	}

	sql, rows := fc()
	fields := logrus.Fields{
		"elapsed": elapsed.String(),
		"sql":     sql,
	}
	if rows >= 0 {
		fields["rows"] = rows
	}

	return entry.WithFields(fields)
}

// Trace implements the gorm.io/gorm/logger.Interface trace hook.
func (l *loggerAdaptor) Trace(
	ctx context.Context, begin time.Time, fc func() (string, int64), err error,
) {
	elapsed := time.Since(begin)

	switch {
	case err != nil &&
		l.log.IsLevelEnabled(logrus.ErrorLevel) &&
		(!errors.Is(err, gorm.ErrRecordNotFound) || !l.config.IgnoreRecordNotFoundError):
		l.statementEntry(ctx, elapsed, fc).WithError(err).Error("SQL error")
	case l.config.SlowThreshold != 0 &&
		elapsed > l.config.SlowThreshold &&
		l.log.IsLevelEnabled(logrus.WarnLevel):
		l.statementEntry(ctx, elapsed, fc).Warnf("SLOW SQL >= %v", l.config.SlowThreshold)
	case l.log.IsLevelEnabled(logrus.DebugLevel):
		l.statementEntry(ctx, elapsed, fc).Debug("SQL trace")
	}
}
