package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// NewLogger 按类型输出到 <dir>/<logType>/<logType>.log，按天切割保留 7 天，同时输出到控制台
func NewLogger(dir, logType, level string) *logrus.Logger {
	log := logrus.New()
	logPath := filepath.Join(dir, logType)
	_ = os.MkdirAll(logPath, 0755)

	writer, err := rotatelogs.New(
		filepath.Join(logPath, logType+".log.%Y-%m-%d"),
		rotatelogs.WithLinkName(filepath.Join(logPath, logType+".log")),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
	if err != nil {
		log.SetOutput(os.Stdout)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, writer))
	}

	log.SetReportCaller(true)
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return f.Function, fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		},
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}

// Discard 丢弃所有输出，测试使用
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
