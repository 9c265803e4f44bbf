package viper

import (
	"bytes"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/openviper/viperclient/viper/frame"
	"github.com/openviper/viperclient/viper/vipertest"
)

func TestExecuteRoundTrip(t *testing.T) {
	srv, err := vipertest.NewServer()
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()
	go srv.Echo()

	host, port := srv.Addr()
	tr, err := DialTransport(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Shutdown()

	payload := []byte(`{"message":"server-info"}`)
	resp, err := tr.Execute(frame.Encode(payload, [2]byte{1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(resp, payload) {
		t.Fatalf("payload: %q", resp)
	}
}

func TestReadFrameSplitWrites(t *testing.T) {
	srv, err := vipertest.NewServer()
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	go srv.Handle(func(conn net.Conn) {
		full := frame.Encode([]byte("ABCD"), [2]byte{0, 0})
		// dribble the frame out to force partial reads
		for _, b := range full {
			conn.Write([]byte{b})
			time.Sleep(time.Millisecond)
		}
	})

	host, port := srv.Addr()
	tr, err := DialTransport(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Shutdown()

	resp, err := tr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "ABCD" {
		t.Fatalf("payload: %q", resp)
	}
}

func TestReadFrameTimeout(t *testing.T) {
	srv, err := vipertest.NewServer()
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	go srv.Handle(func(conn net.Conn) {
		// hold the connection open, never answer
		time.Sleep(2 * time.Second)
	})

	host, port := srv.Addr()
	tr, err := DialTransport(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Shutdown()
	tr.SetReadTimeout(50 * time.Millisecond)

	_, err = tr.ReadFrame()
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error kind: %v", err)
	}
	if !te.Timeout() {
		t.Fatalf("not a timeout: %v", te)
	}
}

func TestDialFailure(t *testing.T) {
	_, err := DialTransport("127.0.0.1:1")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error kind: %v", err)
	}
	if te.Op != "connect" {
		t.Fatalf("op: %s", te.Op)
	}
}
