package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"todo/internal/service"
	fakes "todo/internal/testutil"
)

func TestWrapCountsOutcomes(t *testing.T) {
	fake := fakes.NewFakeService()
	task := fake.AddTask("A", "a", false)
	m := New()
	svc := m.Wrap(fake)
	ctx := context.Background()
	tok := &oauth2.Token{AccessToken: "t"}

	_, err := svc.ListTasks(ctx, tok)
	require.NoError(t, err)
	_, err = svc.ToggleTask(ctx, tok, task.ID, false)
	require.NoError(t, err)
	require.Error(t, svc.DeleteTask(ctx, tok, "99"))

	fake.CreateErr = service.FromStatus(502, "", nil)
	_, err = svc.CreateTask(ctx, tok, "B", "b")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("toggle", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("delete", "client_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("create", "server_error")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.Requests))
	assert.Equal(t, 4, testutil.CollectAndCount(m.Latency))
}

func TestWrapPassesResultsThrough(t *testing.T) {
	fake := fakes.NewFakeService()
	svc := New().Wrap(fake)

	got, err := svc.CreateTask(context.Background(), &oauth2.Token{AccessToken: "t"}, "A", "a")
	require.NoError(t, err)
	assert.Equal(t, fake.Tasks()[0], got)
	assert.Equal(t, 1, fake.Calls("create"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Requests.WithLabelValues("list", "ok").Inc()
	path := filepath.Join(t.TempDir(), "todo.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `todo_requests_total{op="list",outcome="ok"} 1`)
}
