package main

import (
	"context"
	"errors"
	"sync"
	"time"

	client "github.com/caarlos0/homekit-totalconnect"
	"github.com/cenkalti/backoff/v4"
)

// retryingRequester serializes calls to the service and retries status
// requests. Commands are never retried, as a retry could run an already
// accepted command twice.
type retryingRequester struct {
	lock       sync.Mutex
	req        client.Requester
	newBackOff func() backoff.BackOff
}

var _ client.Requester = (*retryingRequester)(nil)

func newRetryingRequester(req client.Requester) *retryingRequester {
	return &retryingRequester{
		req:        req,
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Second * 5
	bo.MaxElapsedTime = time.Minute
	return bo
}

func permanent(err error) bool {
	return errors.Is(err, client.ErrBadCredentials) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (r *retryingRequester) Status(ctx context.Context, locationID int) (client.DeviceStatus, error) {
	t := time.Now()
	r.lock.Lock()
	defer r.lock.Unlock()
	log.Debugf("got client lock after %s", time.Since(t))

	var status client.DeviceStatus
	err := backoff.RetryNotify(func() error {
		requestCounter.WithLabelValues("status").Inc()
		s, err := r.req.Status(ctx, locationID)
		if err != nil {
			requestErrorCounter.WithLabelValues("status").Inc()
			if permanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		status = s
		return nil
	}, backoff.WithContext(r.newBackOff(), ctx), func(err error, _ time.Duration) {
		log.Error("status request failed", "location", locationID, "err", err)
	})
	return status, err
}

func (r *retryingRequester) Command(
	ctx context.Context,
	action client.Action,
	locationID int,
	userCode string,
) (client.CommandOutcome, error) {
	t := time.Now()
	r.lock.Lock()
	defer r.lock.Unlock()
	log.Debugf("got client lock after %s", time.Since(t))

	requestCounter.WithLabelValues("command").Inc()
	outcome, err := r.req.Command(ctx, action, locationID, userCode)
	if err != nil {
		requestErrorCounter.WithLabelValues("command").Inc()
	}
	return outcome, err
}
