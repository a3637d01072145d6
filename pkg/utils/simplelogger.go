// Package utils предоставляет простой файловый логгер для сервера и утилит.
//
// Логгер создаёт .log файл с timestamp в имени.
// Thread-safe через sync.Mutex. До вызова InitLogger все вызовы: no-op,
// поэтому пакеты могут логировать без проверки инициализации (в тестах тоже).
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// level: уровень сообщения в строке лога.
type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

var (
	logMutex     sync.Mutex
	logFile      *os.File
	debugEnabled bool
)

// InitLogger открывает лог-файл. Повторный вызов до Close ничего не делает.
//
// Параметры:
//   - dir: директория для лог-файла (пусто = текущая директория)
//   - prefix: префикс имени файла (пусто = "traffic")
//
// Имя файла: <prefix>-YYYY-MM-DD-HH-MM.log (например, traffic-2025-12-27-15-30.log)
func InitLogger(dir, prefix string) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		return nil
	}

	if prefix == "" {
		prefix = "traffic"
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log dir: %w", err)
		}
	}

	now := time.Now()
	filename := filepath.Join(dir, prefix+"-"+now.Format("2006-01-02-15-04")+".log")
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", filename, err)
	}

	logFile = f
	writeLocked(formatLine(now, levelInfo, "Logger initialized", "file", filename))
	return nil
}

// SetDebug включает или выключает запись DEBUG сообщений.
func SetDebug(enabled bool) {
	logMutex.Lock()
	defer logMutex.Unlock()
	debugEnabled = enabled
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	log(levelInfo, msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	log(levelError, msg, keyvals...)
}

// Debug - отладочное сообщение. Пишется только после SetDebug(true).
func Debug(msg string, keyvals ...any) {
	log(levelDebug, msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	log(levelWarn, msg, keyvals...)
}

// formatLine собирает строку лога.
//
// Формат: [YYYY-MM-DD HH:MM:SS] LEVEL: message key1=value1 key2=value2
// Непарный последний ключ выводится как key=<missing>.
func formatLine(ts time.Time, lvl level, msg string, keyvals ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", ts.Format("2006-01-02 15:04:05"), lvl, msg)

	for i := 0; i < len(keyvals); i += 2 {
		var value any = "<missing>"
		if i+1 < len(keyvals) {
			value = keyvals[i+1]
		}
		fmt.Fprintf(&b, " %v=%v", keyvals[i], value)
	}

	b.WriteByte('\n')
	return b.String()
}

func log(lvl level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil || (lvl == levelDebug && !debugEnabled) {
		return
	}
	writeLocked(formatLine(time.Now(), lvl, msg, keyvals...))
}

// writeLocked пишет строку в файл, при ошибке записи в stderr.
// Вызывается под logMutex.
func writeLocked(line string) {
	if _, err := logFile.WriteString(line); err != nil {
		fmt.Fprint(os.Stderr, line)
		fmt.Fprintf(os.Stderr, "[logger: write failed: %v]\n", err)
	}
}

// Close закрывает лог-файл. После Close логгер снова можно открыть через InitLogger.
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "[logger: close failed: %v]\n", err)
	}
	logFile = nil
}
