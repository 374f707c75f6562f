package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_PutAndConsume(t *testing.T) {
	s := NewStore(time.Minute)

	s.Put(10, 20, "https://youtu.be/abc")

	url, ok := s.Consume(10, 20)
	require.True(t, ok)
	require.Equal(t, "https://youtu.be/abc", url)

	// Consume is one-shot
	_, ok = s.Consume(10, 20)
	require.False(t, ok)
}

func TestStore_UsersAreIsolated(t *testing.T) {
	s := NewStore(time.Minute)

	s.Put(10, 20, "https://youtu.be/first")
	s.Put(10, 21, "https://youtu.be/second")

	url, ok := s.Consume(10, 21)
	require.True(t, ok)
	require.Equal(t, "https://youtu.be/second", url)

	url, ok = s.Consume(10, 20)
	require.True(t, ok)
	require.Equal(t, "https://youtu.be/first", url)
}

func TestStore_ReplacesPreviousLink(t *testing.T) {
	s := NewStore(time.Minute)

	s.Put(10, 20, "https://youtu.be/old")
	s.Put(10, 20, "https://youtu.be/new")

	url, ok := s.Consume(10, 20)
	require.True(t, ok)
	require.Equal(t, "https://youtu.be/new", url)
}

func TestStore_EntriesExpire(t *testing.T) {
	s := NewStore(10 * time.Millisecond)

	s.Put(10, 20, "https://youtu.be/abc")
	time.Sleep(25 * time.Millisecond)

	_, ok := s.Consume(10, 20)
	require.False(t, ok, "expired entries must not be consumable")
}

func TestStore_PutSweepsExpiredEntries(t *testing.T) {
	s := NewStore(10 * time.Millisecond)

	s.Put(1, 1, "a")
	s.Put(2, 2, "b")
	time.Sleep(25 * time.Millisecond)

	s.Put(3, 3, "c")
	require.Equal(t, 1, s.Len())
}
