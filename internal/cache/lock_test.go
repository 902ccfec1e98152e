package cache

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireCreatesStagingDirectories(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	lock, err := store.Acquire("deadbeef", false)
	require.NoError(t, err)
	defer lock.Release()

	assert.DirExists(t, lock.FetchDir)
	assert.DirExists(t, lock.TmpDir)
	assert.DirExists(t, lock.StageDir)
}

func TestReleaseWithoutPromotePurgesStageAndTmp(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	lock, err := store.Acquire("deadbeef", false)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	assert.NoDirExists(t, lock.TmpDir)
	assert.NoDirExists(t, lock.StageDir)
	_, ok := store.InstallDir("deadbeef")
	assert.False(t, ok)
}

func TestEphemeralLockPurgesInstallDirEvenWhenPromoted(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	lock, err := store.Acquire("deadbeef", true)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(lock.InstallDir, 0o755))
	lock.Promote()
	require.NoError(t, lock.Release())

	assert.NoDirExists(t, lock.InstallDir)
}

func TestAcquireSerializesContendersOnSameHash(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	var active int32
	var sawOverlap int32

	run := func(done chan<- struct{}) {
		lock, err := store.Acquire("deadbeef", false)
		require.NoError(t, err)
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.StoreInt32(&sawOverlap, 1)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		lock.Release()
		close(done)
	}

	d1, d2 := make(chan struct{}), make(chan struct{})
	go run(d1)
	go run(d2)
	<-d1
	<-d2

	assert.Equal(t, int32(0), sawOverlap)
}
