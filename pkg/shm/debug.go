package shm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

type logger struct {
	name      string
	out       io.Writer
	callDepth int
}

var (
	internalLogger = &logger{"", os.Stdout, 3}
	level          int

	green  = string([]byte{27, 91, 57, 50, 109}) // Debug
	blue   = string([]byte{27, 91, 57, 52, 109}) // Info
	yellow = string([]byte{27, 91, 57, 51, 109}) // Warn
	red    = string([]byte{27, 91, 57, 49, 109}) // Error
	reset  = string([]byte{27, 91, 48, 109})

	colors = []string{
		green,
		blue,
		yellow,
		red,
	}

	levelName = []string{
		"Debug",
		"Info",
		"Warn",
		"Error",
	}
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
	levelNoPrint
)

func init() {
	level = levelWarn
	if os.Getenv("APPSHM_LOG_LEVEL") != "" {
		if n, err := strconv.Atoi(os.Getenv("APPSHM_LOG_LEVEL")); err == nil {
			if n <= levelNoPrint {
				level = n
			}
		}
	}
}

// SetLogLevel changes the internal logger's level. The default is Warn;
// the process env `APPSHM_LOG_LEVEL` can also set it.
func SetLogLevel(l int) {
	if l <= levelNoPrint {
		level = l
	}
}

func (l *logger) errorf(format string, a ...interface{}) {
	if level > levelError {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelError)+format+reset+"\n", a...)
}

func (l *logger) warnf(format string, a ...interface{}) {
	if level > levelWarn {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelWarn)+format+reset+"\n", a...)
}

func (l *logger) infof(format string, a ...interface{}) {
	if level > levelInfo {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelInfo)+format+reset+"\n", a...)
}

func (l *logger) debugf(format string, a ...interface{}) {
	if level > levelDebug {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelDebug)+format+reset+"\n", a...)
}

func (l *logger) prefix(level int) string {
	var buffer [64]byte
	buf := bytes.NewBuffer(buffer[:0])
	_, _ = buf.WriteString(colors[level])
	_, _ = buf.WriteString(levelName[level])
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.location())
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.name)
	return buf.String()
}

func (l *logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}
