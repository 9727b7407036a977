package changes

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func dialFeed(t *testing.T, path string) net.Conn {
	t.Helper()
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", path)
		if err == nil {
			return conn
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("dial feed socket: %v", err)
	return nil
}

func waitPop(t *testing.T, s Source) Change {
	t.Helper()
	select {
	case <-s.Readiness():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for feed record")
	}
	c, ok := s.Pop()
	assert.Assert(t, ok)
	return c
}

func TestFeedPublishesRecords(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "feed.sock")
	broker := NewBroker()
	feed, err := NewFeed(sock, broker)
	assert.NilError(t, err)
	defer feed.Close()

	s, err := broker.Subscribe(Table{Store: "config", Name: "bgp_neighbor"})
	assert.NilError(t, err)

	conn := dialFeed(t, sock)
	defer conn.Close()
	_, err = conn.Write([]byte(`{"store":"config","table":"bgp_neighbor","key":"10.0.0.1","op":"SET","fields":{"asn":"65100"}}` + "\n"))
	assert.NilError(t, err)

	c := waitPop(t, s)
	assert.Equal(t, c.Key, "10.0.0.1")
	assert.Equal(t, c.Op, OpSet)
	assert.Equal(t, c.Fields["asn"], "65100")
}

func TestFeedSkipsMalformedLines(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "feed.sock")
	broker := NewBroker()
	feed, err := NewFeed(sock, broker)
	assert.NilError(t, err)
	defer feed.Close()

	s, err := broker.Subscribe(Table{Store: "config", Name: "device"})
	assert.NilError(t, err)

	conn := dialFeed(t, sock)
	defer conn.Close()
	_, err = conn.Write([]byte("this is not json\n" +
		`{"store":"config","table":"device","key":"localhost","op":"SET","fields":{"bgp_asn":"65000"}}` + "\n"))
	assert.NilError(t, err)

	c := waitPop(t, s)
	assert.Equal(t, c.Key, "localhost")
	_, ok := s.Pop()
	assert.Assert(t, !ok)
}
