package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"code.cloudfoundry.org/lager"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// Logger wraps a lager.Logger in the echo.Logger interface so echo's
// own output lands in the same structured stream as everything else.
type Logger struct {
	lvl    log.Lvl
	lager  lager.Logger
	action string
}

func NewLogger(logger lager.Logger) *Logger {
	return &Logger{
		lager:  logger,
		action: "request",
	}
}

func (l *Logger) Debug(i ...interface{}) {
	l.lager.Debug(l.action, lager.Data{"detail": fmt.Sprint(i...)})
}

func (l *Logger) Debugf(format string, i ...interface{}) {
	l.lager.Debug(l.action, lager.Data{"detail": fmt.Sprintf(format, i...)})
}

func (l *Logger) Debugj(j log.JSON) {
	l.lager.Debug(l.action, lager.Data(j))
}

func (l *Logger) Info(i ...interface{}) {
	l.lager.Info(l.action, lager.Data{"detail": fmt.Sprint(i...)})
}

func (l *Logger) Infof(format string, i ...interface{}) {
	l.lager.Info(l.action, lager.Data{"detail": fmt.Sprintf(format, i...)})
}

func (l *Logger) Infoj(j log.JSON) {
	l.lager.Info(l.action, lager.Data(j))
}

func (l *Logger) Warn(i ...interface{}) {
	l.lager.Info(l.action, lager.Data{"detail": fmt.Sprint(i...)})
}

func (l *Logger) Warnf(format string, i ...interface{}) {
	l.lager.Info(l.action, lager.Data{"detail": fmt.Sprintf(format, i...)})
}

func (l *Logger) Warnj(j log.JSON) {
	l.lager.Info(l.action, lager.Data(j))
}

func (l *Logger) Error(i ...interface{}) {
	l.lager.Error(l.action, errors.New(fmt.Sprint(i...)))
}

func (l *Logger) Errorf(format string, i ...interface{}) {
	l.lager.Error(l.action, fmt.Errorf(format, i...))
}

func (l *Logger) Errorj(j log.JSON) {
	l.lager.Error(l.action, errors.New("error"), lager.Data(j))
}

func (l *Logger) Fatal(i ...interface{}) {
	l.lager.Fatal(l.action, errors.New(fmt.Sprint(i...)))
}

func (l *Logger) Fatalf(format string, i ...interface{}) {
	l.lager.Fatal(l.action, fmt.Errorf(format, i...))
}

func (l *Logger) Fatalj(j log.JSON) {
	l.lager.Fatal(l.action, errors.New("fatal"), lager.Data(j))
}

func (l *Logger) Panic(i ...interface{}) {
	l.lager.Error(l.action, errors.New("panic"), lager.Data{"detail": fmt.Sprint(i...)})
	panic(fmt.Sprint(i...))
}

func (l *Logger) Panicf(format string, i ...interface{}) {
	l.lager.Error(l.action, errors.New("panic"), lager.Data{"detail": fmt.Sprintf(format, i...)})
	panic(fmt.Sprintf(format, i...))
}

func (l *Logger) Panicj(j log.JSON) {
	l.lager.Error(l.action, errors.New("panic"), lager.Data(j))
	panic(fmt.Sprintf("%v", j))
}

func (l *Logger) Print(i ...interface{}) {
	l.lager.Info(l.action, lager.Data{"detail": fmt.Sprint(i...)})
}

func (l *Logger) Printf(format string, i ...interface{}) {
	l.lager.Info(l.action, lager.Data{"detail": fmt.Sprintf(format, i...)})
}

func (l *Logger) Printj(j log.JSON) {
	l.lager.Info(l.action, lager.Data(j))
}

func (l *Logger) Level() log.Lvl {
	return l.lvl
}

func (l *Logger) SetLevel(newLvl log.Lvl) {
	l.lvl = newLvl
}

func (l *Logger) Prefix() string {
	return l.action
}

func (l *Logger) SetPrefix(p string) {
	l.action = p
}

func (l *Logger) Output() io.Writer {
	return os.Stdout
}

func (l *Logger) SetOutput(w io.Writer) {
	// output always goes through lager
}

func (l *Logger) SetHeader(_ string) {
	// lager formats its own headers
}

// Write feeds echo's logging middleware output through lager. The
// middleware emits JSON lines; anything unparsable is logged verbatim.
func (l *Logger) Write(p []byte) (int, error) {
	logMessage := map[string]interface{}{}
	if err := json.Unmarshal(p, &logMessage); err != nil {
		l.lager.Info("logger-middleware", lager.Data{"detail": string(p)})
		return len(p), nil
	}
	l.lager.Info("logger-middleware", logMessage)
	return len(p), nil
}

var (
	_ echo.Logger = &Logger{}
	_ io.Writer   = &Logger{}
)
