package input

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/codec"
	"github.com/nicwaller/mcastlog/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collector(events chan<- mcastlog.Event) mcastlog.BatchSender {
	return func(batch ...mcastlog.Event) mcastlog.BatchResult {
		for _, evt := range batch {
			events <- evt
		}
		return mcastlog.BatchResult{Total: len(batch), Success: len(batch), Ok: true}
	}
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

func startListener(t *testing.T, plugin mcastlog.InputPlugin) (chan mcastlog.Event, context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan mcastlog.Event, 10)
	done := make(chan error, 1)
	go func() {
		done <- plugin.Run(ctx, collector(events))
	}()
	// give the listener a moment to bind
	time.Sleep(100 * time.Millisecond)
	return events, cancel, done
}

func TestUdpListener(t *testing.T) {
	port := freeUDPPort(t)
	events, cancel, done := startListener(t, UdpListener(port, UdpListenerOptions{Address: "127.0.0.1"}))

	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte(`<log4j:event logger="app" timestamp="1700000000000" level="INFO" thread="main">` +
		`<log4j:message><![CDATA[hello]]></log4j:message></log4j:event>`))
	require.NoError(t, err)

	select {
	case evt := <-events:
		assert.Equal(t, "hello", evt.Field(mcastlog.PathMessage...).GetString())
		assert.Equal(t, "127.0.0.1", evt.Field("client", "ip").GetString())
		assert.Equal(t, "udp", evt.Field("network", "transport").GetString())
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestUdpListener_DropsGarbage(t *testing.T) {
	port := freeUDPPort(t)
	events, cancel, _ := startListener(t, UdpListener(port, UdpListenerOptions{Address: "127.0.0.1", Schema: mcastlog.SchemaNone}))
	defer cancel()

	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("definitely not xml"))
	require.NoError(t, err)
	_, err = conn.Write([]byte(`<log4j:event level="WARN"><log4j:message>ok</log4j:message></log4j:event>`))
	require.NoError(t, err)

	select {
	case evt := <-events:
		assert.Equal(t, "ok", evt.Field(mcastlog.PathMessage...).GetString())
		assert.False(t, evt.Field("client").Exists())
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestMulticastListener_RejectsUnicastGroup(t *testing.T) {
	err := MulticastListener("10.0.0.1", 9991, UdpListenerOptions{}).Run(context.Background(), collector(nil))
	assert.Error(t, err)
}

// output.Multicast and the listener agree on the wire format
func TestMulticastOutputToListener(t *testing.T) {
	port := freeUDPPort(t)
	events, cancel, _ := startListener(t, UdpListener(port, UdpListenerOptions{Address: "127.0.0.1"}))
	defer cancel()

	sender, err := output.NewMulticast(output.MulticastOptions{
		RemoteHost:  "127.0.0.1",
		Port:        port,
		TimeToLive:  1,
		Application: "billing",
		Logger:      slog.New(slog.NewTextHandler(&strings.Builder{}, nil)),
	})
	require.NoError(t, err)
	sender.Activate()
	defer sender.Close()

	evt := mcastlog.NewLogEvent("error", "payments", "card declined")
	sender.Send(&evt)

	select {
	case got := <-events:
		assert.Equal(t, "card declined", got.Field(mcastlog.PathMessage...).GetString())
		assert.Equal(t, "ERROR", got.Field(mcastlog.PathLevel...).GetString())
		assert.Equal(t, "payments", got.Field(mcastlog.PathLogger...).GetString())
		assert.True(t, strings.HasPrefix(got.Field("labels", "application").GetString(), "billing"))
		assert.Equal(t, sender.Hostname(), got.Field("labels", "hostname").GetString())
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestStdin(t *testing.T) {
	events := make(chan mcastlog.Event, 10)
	plugin := Stdin(StdinOptions{
		Reader: strings.NewReader("first line\n\nsecond line\n"),
		Level:  "warn",
		Logger: "cron",
	})
	require.NoError(t, plugin.Run(context.Background(), collector(events)))
	close(events)

	var got []mcastlog.Event
	for evt := range events {
		got = append(got, evt)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "first line", got[0].Field(mcastlog.PathMessage...).GetString())
	assert.Equal(t, "second line", got[1].Field(mcastlog.PathMessage...).GetString())
	assert.Equal(t, "WARN", got[0].Field(mcastlog.PathLevel...).GetString())
	assert.Equal(t, "cron", got[0].Field(mcastlog.PathLogger...).GetString())
	_, hasTimestamp := got[0].Timestamp()
	assert.True(t, hasTimestamp)
}

func TestStdin_KeepsDecodedLevel(t *testing.T) {
	events := make(chan mcastlog.Event, 10)
	plugin := Stdin(StdinOptions{
		Reader: strings.NewReader(`{"message":"from json","log":{"level":"ERROR"}}` + "\n"),
		Codec:  codec.Auto(),
	})
	require.NoError(t, plugin.Run(context.Background(), collector(events)))

	evt := <-events
	assert.Equal(t, "from json", evt.Field(mcastlog.PathMessage...).GetString())
	assert.Equal(t, "ERROR", evt.Field(mcastlog.PathLevel...).GetString())
}

func TestHeartbeat(t *testing.T) {
	events := make(chan mcastlog.Event, 10)
	plugin := Heartbeat(HeartbeatOptions{Count: 2, Interval: time.Second})
	require.NoError(t, plugin.Run(context.Background(), collector(events)))
	close(events)

	var sequence []int
	for evt := range events {
		assert.Equal(t, "heartbeat", evt.Field(mcastlog.PathMessage...).GetString())
		sequence = append(sequence, evt.Field("event", "sequence").GetInt())
	}
	assert.Equal(t, []int{0, 1}, sequence)
}

func TestHeartbeat_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan mcastlog.Event, 10)
	done := make(chan error, 1)
	go func() {
		done <- Heartbeat(HeartbeatOptions{Interval: time.Hour}).Run(ctx, collector(events))
	}()
	<-events
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("heartbeat did not stop")
	}
}

