package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// shutdownSignals: сигналы, по которым сервер и TUI завершают работу.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupGracefulShutdownWithContext возвращает контекст, который отменяется
// по SIGINT или SIGTERM, и функцию освобождения.
//
// Функция освобождения снимает обработчик сигналов, отменяет контекст
// и закрывает лог. Повторный вызов ничего не делает.
//
//	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
//	defer shutdown()
func SetupGracefulShutdownWithContext() (context.Context, func()) {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	released := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-released:
				return // Отмена пришла из shutdown(), а не от сигнала
			default:
			}
			Info("Shutdown signal received, stopping")
		case <-released:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			close(released)
			stop()
			Close()
		})
	}
}
