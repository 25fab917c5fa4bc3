// Package main реализует консольный клиент глобального поиска bizdesk. Каждая строка ввода считается
// новым содержимым поля поиска, строка ":q" скрывает выдачу.
package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ralfiz/bizdesk/internal/config"
	"github.com/ralfiz/bizdesk/internal/search"
)

const dismissCommand = ":q"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.ParseSearch()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := newRenderer(os.Stdout)
	c := search.NewCoordinator(
		search.NewClient(cfg.ServerAddress),
		out.render,
		search.WithDebounce(cfg.Debounce),
		search.WithTimeout(cfg.Timeout),
		search.WithLogger(logger),
	)
	defer c.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			sugar.Errorw("read input", "error", err.Error())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				waitSettled(ctx, c, cfg.Debounce+cfg.Timeout)
				return
			}
			if line == dismissCommand {
				c.Dismiss()
				continue
			}
			c.Input(line)
		}
	}
}

// waitSettled ждёт ответа на последний запрос, чтобы он попал в вывод до выхода.
func waitSettled(ctx context.Context, c *search.Coordinator, limit time.Duration) {
	deadline := time.NewTimer(limit)
	defer deadline.Stop()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for c.View().State == search.StatePending {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
		}
	}
}
