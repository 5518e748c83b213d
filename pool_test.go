package ilp

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/questline/ilp/errs"
)

func TestSenderPool_ReusesReleasedSender(t *testing.T) {
	cs := newCaptureServer(t, http.StatusNoContent)
	config := "http::addr=" + cs.addr() + ";auto_flush=off;"

	p := NewSenderPool(4, WithLogger(nopLogger{}))
	defer p.Close(context.Background())

	ctx := context.Background()
	s1, err := p.Acquire(ctx, config)
	require.NoError(t, err)
	require.NoError(t, p.Release(ctx, s1))

	s2, err := p.Acquire(ctx, config)
	require.NoError(t, err)
	require.Same(t, s1, s2)

	// a different configuration gets its own sender
	other, err := p.Acquire(ctx, config+"auto_flush_rows=5;")
	require.NoError(t, err)
	require.NotSame(t, s2, other)
}

func TestSenderPool_ReleaseFlushesPendingRows(t *testing.T) {
	cs := newCaptureServer(t, http.StatusNoContent)
	config := "http::addr=" + cs.addr() + ";auto_flush=off;"

	p := NewSenderPool(4, WithLogger(nopLogger{}))
	defer p.Close(context.Background())

	ctx := context.Background()
	s, err := p.Acquire(ctx, config)
	require.NoError(t, err)
	writeTradeRow(t, s)
	require.NoError(t, p.Release(ctx, s))

	require.Equal(t, int64(1), cs.requests.Load())
	require.Equal(t, tradeRowWire, cs.body(0))
}

func TestSenderPool_RejectsTCP(t *testing.T) {
	p := NewSenderPool(4, WithLogger(nopLogger{}))
	defer p.Close(context.Background())

	_, err := p.Acquire(context.Background(), "tcp::addr=localhost:9009;")
	require.ErrorIs(t, err, errs.ErrInvalidConf)
}

func TestSenderPool_FullPoolClosesExtras(t *testing.T) {
	cs := newCaptureServer(t, http.StatusNoContent)
	config := "http::addr=" + cs.addr() + ";auto_flush=off;"

	p := NewSenderPool(1, WithLogger(nopLogger{}))
	defer p.Close(context.Background())

	ctx := context.Background()
	s1, err := p.Acquire(ctx, config)
	require.NoError(t, err)
	s2, err := p.Acquire(ctx, config)
	require.NoError(t, err)

	require.NoError(t, p.Release(ctx, s1))
	require.NoError(t, p.Release(ctx, s2))

	// s2 did not fit and was closed
	require.True(t, s2.closed)
	require.False(t, s1.closed)
}

func TestSenderPool_AcquireAfterClose(t *testing.T) {
	p := NewSenderPool(4)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	_, err := p.Acquire(context.Background(), "http::addr=localhost:9000;")
	require.ErrorIs(t, err, errs.ErrInvalidConf)
}

func TestSenderPool_ReleaseAfterCloseClosesSender(t *testing.T) {
	cs := newCaptureServer(t, http.StatusNoContent)
	config := "http::addr=" + cs.addr() + ";auto_flush=off;"

	p := NewSenderPool(4, WithLogger(nopLogger{}))
	ctx := context.Background()
	s, err := p.Acquire(ctx, config)
	require.NoError(t, err)

	require.NoError(t, p.Close(ctx))
	require.NoError(t, p.Release(ctx, s))
	require.True(t, s.closed)
}

func TestSenderPool_ConcurrentProducers(t *testing.T) {
	cs := newCaptureServer(t, http.StatusNoContent)
	config := "http::addr=" + cs.addr() + ";auto_flush=off;"

	p := NewSenderPool(8, WithLogger(nopLogger{}))
	defer p.Close(context.Background())

	const workers = 8
	const rowsPerWorker = 50

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			s, err := p.Acquire(ctx, config)
			if err != nil {
				errCh <- err
				return
			}
			for j := 0; j < rowsPerWorker; j++ {
				if err := s.Table("trades"); err != nil {
					errCh <- err
					return
				}
				if err := s.Float64Column("price", 1.5); err != nil {
					errCh <- err
					return
				}
				if err := s.AtNanos(ctx, 1700000000000000000); err != nil {
					errCh <- err
					return
				}
			}
			errCh <- p.Release(ctx, s)
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	var total int
	cs.mu.Lock()
	for _, body := range cs.bodies {
		total += len(body)
	}
	cs.mu.Unlock()
	require.Equal(t, workers*rowsPerWorker*len("trades price=1.5 1700000000000000000\n"), total)
}
