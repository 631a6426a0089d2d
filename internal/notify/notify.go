// Package notify delivers regeneration and export outcomes to observers: the
// log, and optionally a socket.io viewer.
package notify

import (
	"context"
	"errors"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
)

// Notifier receives pipeline and export outcomes.
type Notifier interface {
	Published(ctx context.Context, res orchestrator.Result) error
	Failed(ctx context.Context, err error) error
	Exported(ctx context.Context, res export.Result) error
	Close() error
}

// Multi fans every call out to all notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Published(ctx context.Context, res orchestrator.Result) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.Published(ctx, res))
	}
	return errors.Join(errs...)
}

func (m Multi) Failed(ctx context.Context, err error) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.Failed(ctx, err))
	}
	return errors.Join(errs...)
}

func (m Multi) Exported(ctx context.Context, res export.Result) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.Exported(ctx, res))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.Close())
	}
	return errors.Join(errs...)
}

// Forward drains results and errs into n until both channels are closed or
// ctx is done. It is meant to be the single consumer of an orchestrator.
func Forward(ctx context.Context, results <-chan orchestrator.Result, errs <-chan error, n Notifier) {
	logger := ctxlog.FromContext(ctx)
	for results != nil || errs != nil {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if err := n.Published(ctx, res); err != nil {
				logger.Warn("Notifier failed to deliver result.", "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if nErr := n.Failed(ctx, err); nErr != nil {
				logger.Warn("Notifier failed to deliver error.", "error", nErr)
			}
		}
	}
}
