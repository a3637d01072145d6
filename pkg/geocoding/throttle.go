package geocoding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Waiter ограничивает частоту исходящих запросов.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Throttle выдерживает минимальный интервал между запросами к провайдеру.
//
// Вызовы, пришедшие раньше интервала, ждут своей очереди и никогда не
// отбрасываются. Очередь строится резервированием в rate.Limiter,
// которое выполняется под его внутренним мьютексом, поэтому два
// конкурентных вызова не могут получить одно и то же окно.
//
// Часы и сон внедряются через WithClock, что делает тайминги в тестах
// детерминированными.
type Throttle struct {
	limiter  *rate.Limiter
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

var _ Waiter = (*Throttle)(nil)

// ThrottleOption настраивает Throttle.
type ThrottleOption func(*Throttle)

// WithClock подменяет источник времени и функцию ожидания.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) ThrottleOption {
	return func(t *Throttle) {
		t.now = now
		t.sleep = sleep
	}
}

// NewThrottle создаёт Throttle с минимальным интервалом между вызовами.
//
// interval <= 0 отключает ограничение.
func NewThrottle(interval time.Duration, opts ...ThrottleOption) *Throttle {
	t := &Throttle{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
	if interval > 0 {
		// burst = 1: после простоя проходит ровно один запрос без ожидания.
		t.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Interval возвращает настроенный интервал.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Wait блокирует вызывающего до наступления его окна.
//
// При отмене контекста резервирование возвращается лимитеру,
// чтобы не сдвигать очередь остальных вызовов.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t == nil || t.limiter == nil {
		return nil
	}

	// 1. Резервируем следующее окно
	now := t.now()
	reservation := t.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return fmt.Errorf("throttle: reservation refused")
	}

	// 2. Ждём, если окно ещё не наступило
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := t.sleep(ctx, delay); err != nil {
		reservation.CancelAt(t.now())
		return fmt.Errorf("throttle wait: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
