package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	checkExecInterval = 5 * time.Second
)

// MonitorExecutable signals once the running binary is replaced on disk, so a supervisor can restart us.
func MonitorExecutable(ctx context.Context) <-chan struct{} {
	exeFilename, err := os.Executable()
	if err != nil {
		log.WithError(err).Warn("cant resolve executable path for monitor")
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return MonitorFile(ctx, exeFilename, checkExecInterval)
}

// MonitorFile sends on the returned channel when the file modification time changes.
// The channel is closed when ctx is done or the file cannot be inspected.
func MonitorFile(ctx context.Context, filename string, interval time.Duration) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)

		stat, err := os.Stat(filename)
		if err != nil {
			log.WithError(err).WithField("file", filename).Warn("cant stat file for monitor")
			return
		}
		originalTime := stat.ModTime()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(filename)
				if err != nil {
					log.WithError(err).WithField("file", filename).Warn("cant stat file for monitor tick")
					continue
				}
				if !originalTime.Equal(stat.ModTime()) {
					ch <- struct{}{}
					return
				}
			}
		}
	}()
	return ch
}
