package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateGetDelete(t *testing.T) {
	store := NewSessionStore(NewMockProvider(), SessionOptions{})

	sess := store.Create()
	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(sess.ID))
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(sess.ID), ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestSessionStore_DeleteCancelsInFlightCycle(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	provider := &fakeProvider{}
	provider.coWriter = func(context.Context, CoWriterRequest) (io.ReadCloser, error) {
		return pr, nil
	}
	store := NewSessionStore(provider, SessionOptions{})
	sess := store.Create()

	fragments := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- sess.Start(context.Background(), "Describe a challenge.", CycleCallbacks{
			OnFragment: func(f string) { fragments <- f },
		})
	}()
	_, err := pw.Write([]byte(EncodeSSEChunk("{")))
	require.NoError(t, err)
	<-fragments

	require.NoError(t, store.Delete(sess.ID))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("deleting the session did not stop its cycle")
	}
	assert.Equal(t, StateAwaitingUserInput, sess.State())
}
