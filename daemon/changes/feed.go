package changes

import (
	"bufio"
	"encoding/json"
	"net"

	"github.com/docker/go-connections/sockets"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// feedRecord is the wire form of one change record on the feed socket:
// newline-delimited JSON, one record per line.
type feedRecord struct {
	Store  string            `json:"store"`
	Table  string            `json:"table"`
	Key    string            `json:"key"`
	Op     string            `json:"op"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Feed accepts connections on a unix socket and publishes the NDJSON change
// records it receives into a broker. Malformed lines are logged and
// skipped; a record with an empty key or unknown store/table name is still
// published, since validation of operations belongs to the managers.
type Feed struct {
	broker   *Broker
	listener net.Listener
	log      *logrus.Entry
}

// NewFeed opens the unix socket at path and starts accepting producers.
func NewFeed(path string, broker *Broker) (*Feed, error) {
	l, err := sockets.NewUnixSocket(path, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on feed socket %s", path)
	}
	f := &Feed{
		broker:   broker,
		listener: l,
		log:      logrus.WithField("module", "feed"),
	}
	go f.accept()
	return f, nil
}

// Close stops the listener. In-flight connections finish their current
// line and then fail their next read.
func (f *Feed) Close() error {
	return f.listener.Close()
}

func (f *Feed) accept() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				f.log.WithError(err).Error("feed accept failed")
			}
			return
		}
		go f.serve(conn)
	}
}

func (f *Feed) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec feedRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			f.log.WithError(err).Warn("skipping malformed feed record")
			continue
		}
		f.broker.Publish(
			Table{Store: rec.Store, Name: rec.Table},
			Change{Key: rec.Key, Op: Op(rec.Op), Fields: rec.Fields},
		)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		f.log.WithError(err).Warn("feed connection read failed")
	}
}
