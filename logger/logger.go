package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir    string
	Level  string
	Format string
}

// Setup points the standard logrus logger at stdout and a rotating file in opts.Dir.
// The returned closer flushes and closes the log file.
func Setup(opts Options) (io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "creating log directory")
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "app.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	Configure(logrus.StandardLogger(), io.MultiWriter(os.Stdout, logFile), opts)
	return logFile, nil
}

// Configure applies level and format to l and directs it at out.
func Configure(l *logrus.Logger, out io.Writer, opts Options) {
	l.SetOutput(out)

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(opts.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
