package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes colored category-tagged lines to the console and plain
// lines to an optional log file.
type Logger struct {
	mu    sync.Mutex
	file  *os.File
	debug bool
}

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	fatalColor = color.New(color.FgRed, color.Bold)
)

func NewLogger() *Logger {
	l := &Logger{
		debug: os.Getenv("LOG_DEBUG") == "true",
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			l.file = f
		}
	}

	return l
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

func (l *Logger) write(level string, c *color.Color, category, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	line := fmt.Sprintf("%s [%s] [%s] %s", ts, level, category, message)

	c.Fprintln(os.Stdout, line)
	if l.file != nil {
		fmt.Fprintln(l.file, line)
	}
}

func (l *Logger) Debug(category, message string) {
	if l.debug {
		l.write("DEBUG", debugColor, category, message)
	}
}

func (l *Logger) Info(category, message string)  { l.write("INFO", infoColor, category, message) }
func (l *Logger) Warn(category, message string)  { l.write("WARN", warnColor, category, message) }
func (l *Logger) Error(category, message string) { l.write("ERROR", errorColor, category, message) }

func (l *Logger) Fatal(category, message string) {
	l.write("FATAL", fatalColor, category, message)
	l.Close()
	os.Exit(1)
}

// Domain helpers keep call sites one-liners.

func (l *Logger) LogProcess(stage, message string) {
	l.write("INFO", infoColor, stage, message)
}

func (l *Logger) LogDatabase(op, table, message string) {
	l.Debug("DATABASE", fmt.Sprintf("[%s:%s] %s", op, table, message))
}

func (l *Logger) LogKafka(op, topic, message string) {
	l.write("INFO", infoColor, "KAFKA", fmt.Sprintf("[%s:%s] %s", op, topic, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.write("INFO", infoColor, "API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogSecurity(event, message string) {
	l.write("WARN", warnColor, "SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) LogBooking(op, bookingID, message string) {
	l.write("INFO", infoColor, "BOOKING", fmt.Sprintf("[%s:%s] %s", op, bookingID, message))
}

func (l *Logger) LogPayment(op, paymentID, message string) {
	l.write("INFO", infoColor, "PAYMENT", fmt.Sprintf("[%s:%s] %s", op, paymentID, message))
}

func (l *Logger) LogInventory(op, roomTypeID, message string) {
	l.write("INFO", infoColor, "INVENTORY", fmt.Sprintf("[%s:%s] %s", op, roomTypeID, message))
}

func (l *Logger) LogVoucher(op, code, message string) {
	l.write("INFO", infoColor, "VOUCHER", fmt.Sprintf("[%s:%s] %s", op, code, message))
}

func (l *Logger) LogCache(op, key, message string) {
	l.Debug("CACHE", fmt.Sprintf("[%s:%s] %s", op, key, message))
}
