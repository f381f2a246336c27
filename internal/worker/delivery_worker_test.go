package worker_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/provider"
	"github.com/streamhub/notifier/internal/retry"
	"github.com/streamhub/notifier/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recipient(phone, correo string) domain.Recipient {
	return domain.Recipient{
		Phone:      phone,
		Correo:     correo,
		NuevaClave: "secreta",
		Nombre:     "Ana Pérez",
		Items: []domain.ServiceLine{{
			Servicio:         domain.ServicioCuentaCompleta,
			PlataformaNombre: "Netflix",
			FechaVencimiento: "2099-01-01",
		}},
	}
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Backoff: retry.Constant(time.Millisecond)}
}

func TestDeliveryWorker_Outcomes(t *testing.T) {
	prov := provider.NewMockProvider()
	prov.Script["573000000002"] = []provider.MockStep{{Err: errors.New("nav timeout")}, {Confirmed: true}}
	prov.Script["573000000003"] = []provider.MockStep{{Confirmed: false}}
	prov.Script["573000000004"] = []provider.MockStep{{Err: errors.New("editor missing")}}

	var sent, unconfirmed, failed, retries int32
	hooks := worker.MetricHooks{
		OnSent:        func(domain.JobKind, time.Duration) { atomic.AddInt32(&sent, 1) },
		OnUnconfirmed: func(domain.JobKind, time.Duration) { atomic.AddInt32(&unconfirmed, 1) },
		OnFailed:      func(domain.JobKind) { atomic.AddInt32(&failed, 1) },
		OnRetry:       func(domain.JobKind) { atomic.AddInt32(&retries, 1) },
	}
	w := worker.NewDeliveryWorker(prov, fastPolicy(), time.Millisecond, hooks, zap.NewNop())

	report := w.Run(context.Background(), domain.JobPasswordChange, []domain.Recipient{
		recipient("573000000001", "a@x.com"),
		recipient("573000000002", "b@x.com"),
		recipient("573000000003", "c@x.com"),
		recipient("573000000004", "d@x.com"),
	})

	require.Equal(t, worker.Report{Attempted: 4, Sent: 2, Unconfirmed: 1, Failed: 1}, report)
	require.EqualValues(t, 2, sent)
	require.EqualValues(t, 1, unconfirmed)
	require.EqualValues(t, 1, failed)
	// one retry for ...002, two for ...004
	require.EqualValues(t, 3, retries)

	// unconfirmed sends are not retried
	count := 0
	for _, r := range prov.Requests() {
		if r.Phone == "573000000003" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestDeliveryWorker_KeepsOrderAndComposesText(t *testing.T) {
	prov := provider.NewMockProvider()
	w := worker.NewDeliveryWorker(prov, fastPolicy(), 0, worker.MetricHooks{}, zap.NewNop())

	w.Run(context.Background(), domain.JobPasswordChange, []domain.Recipient{
		recipient("573000000001", "a@x.com"),
		recipient("573000000002", "b@x.com"),
	})

	reqs := prov.Requests()
	require.Len(t, reqs, 2)
	require.Equal(t, "573000000001", reqs[0].Phone)
	require.Equal(t, "573000000002", reqs[1].Phone)
	require.True(t, strings.Contains(reqs[0].Text, "secreta"))
	require.True(t, strings.Contains(reqs[0].Text, "a@x.com"))
}

func TestDeliveryWorker_PacesAfterSuccessfulSends(t *testing.T) {
	prov := provider.NewMockProvider()
	prov.Script["573000000002"] = []provider.MockStep{{Err: errors.New("boom")}}
	policy := retry.Policy{MaxAttempts: 1}
	w := worker.NewDeliveryWorker(prov, policy, 60*time.Millisecond, worker.MetricHooks{}, zap.NewNop())

	start := time.Now()
	w.Run(context.Background(), domain.JobPasswordChange, []domain.Recipient{
		recipient("573000000001", "a@x.com"),
		recipient("573000000002", "b@x.com"),
	})
	elapsed := time.Since(start)

	// one pause for the confirmed send, none for the failed one
	require.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	require.Less(t, elapsed, 120*time.Millisecond+time.Second)
}

func TestDeliveryWorker_CancelledContextStopsLoop(t *testing.T) {
	prov := provider.NewMockProvider()
	w := worker.NewDeliveryWorker(prov, fastPolicy(), time.Hour, worker.MetricHooks{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	report := w.Run(ctx, domain.JobPasswordChange, []domain.Recipient{
		recipient("573000000001", "a@x.com"),
		recipient("573000000002", "b@x.com"),
	})

	require.Equal(t, 1, report.Attempted)
	require.Equal(t, 1, report.Sent)
}
