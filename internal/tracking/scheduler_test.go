package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecwatch/pricewatch/internal/store"
)

func TestNewScheduler_RegistersCronEntry(t *testing.T) {
	t.Parallel()

	r := NewReconciler(store.NewMemoryStore(), quietLogger())

	sched, err := NewScheduler(r, 6*time.Hour, quietLogger())
	require.NoError(t, err)

	assert.Len(t, sched.Entries(), 1)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	r := NewReconciler(store.NewMemoryStore(), quietLogger())

	sched, err := NewScheduler(r, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()
}
