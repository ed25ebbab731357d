package publish

import (
	"image"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"
	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/detector"
)

func testResult() *detector.Result {
	return &detector.Result{
		Fingers: 4,
		Status:  detector.StatusOK,
		Region:  detector.Region{X: 100, Y: 50, W: 300, H: 300},
		Contour: &detector.Contour{
			Points: []image.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
			Area:   5000,
		},
		Defects: make([]detector.Defect, 6),
	}
}

func TestEncode(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	data, err := Encode(app.NewSummary(9, testResult(), ts))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Consumers decode into generic maps keyed by name
	var generic map[string]any
	if err := cbor.Unmarshal(data, &generic); err != nil {
		t.Fatalf("cbor.Unmarshal() error = %v", err)
	}
	if generic["type"] != MessageType {
		t.Errorf("type = %v, want %q", generic["type"], MessageType)
	}
	if generic["status"] != "ok" {
		t.Errorf("status = %v, want ok", generic["status"])
	}

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Frame != 9 || m.Fingers != 4 || m.Defects != 6 || m.Area != 5000 {
		t.Errorf("Decode() = %+v", m)
	}
	if m.Timestamp != 1700000000123 {
		t.Errorf("Timestamp = %d", m.Timestamp)
	}
	if len(m.Contour) != 2 || m.Contour[0] != [2]int{101, 52} {
		t.Errorf("Contour = %v, want frame coordinates", m.Contour)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping zmq test")
	}

	endpoint := "inproc://fingercount-test"
	pub, err := NewPublisher(endpoint)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	sub, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		t.Fatalf("NewSocket() error = %v", err)
	}
	defer sub.Close()

	if err := sub.Connect(endpoint); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	sub.SetSubscribe("")
	sub.SetRcvtimeo(50 * time.Millisecond)

	frame := gocv.NewMat()
	defer frame.Close()

	// Subscriptions propagate asynchronously, so keep publishing until one
	// message gets through.
	var got []byte
	for i := 0; i < 100 && got == nil; i++ {
		if err := pub.Consume(frame, testResult()); err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if msg, err := sub.RecvBytes(0); err == nil {
			got = msg
		}
	}
	if got == nil {
		t.Fatal("no message received")
	}

	m, err := Decode(got)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Fingers != 4 || m.Frame < 1 {
		t.Errorf("received %+v", m)
	}

	if err := pub.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := pub.Consume(frame, testResult()); err != nil {
		t.Errorf("Consume() after Close = %v, want nil", err)
	}
}

func TestPublisher_BadEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping zmq test")
	}

	if _, err := NewPublisher("nonsense://"); err == nil {
		t.Error("expected bind error")
	}
}

func TestPublisher_EndSessionRestartsFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping zmq test")
	}

	pub, err := NewPublisher("inproc://fingercount-restart")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < 3; i++ {
		if err := pub.Consume(frame, testResult()); err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
	}
	if pub.frames != 3 {
		t.Fatalf("frames = %d, want 3", pub.frames)
	}

	if err := pub.EndSession(); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if err := pub.Consume(frame, testResult()); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if pub.frames != 1 {
		t.Errorf("frames after restart = %d, want 1", pub.frames)
	}
}

func TestPublisher_IsSink(t *testing.T) {
	var _ app.Sink = (*Publisher)(nil)
	var _ app.SessionEnder = (*Publisher)(nil)
}
