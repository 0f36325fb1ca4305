package snapshot_test

import (
	"testing"

	"github.com/aurorastate/redux/snapshot"
)

type payload struct {
	Name  string
	Count int
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := snapshot.NewJSONCodec[payload]()

	data, err := codec.Encode(payload{Name: "widget", Count: 3})
	if err != nil {
		t.Fatal(err)
	}

	got, err := codec.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "widget" || got.Count != 3 {
		t.Errorf("got = %+v, want {widget 3}", got)
	}
}

func TestJSONCodecName(t *testing.T) {
	codec := snapshot.NewJSONCodec[payload]()
	if codec.Name() != "json" {
		t.Errorf("Name = %q, want json", codec.Name())
	}
}

func TestJSONCodecDecodeInvalidData(t *testing.T) {
	codec := snapshot.NewJSONCodec[payload]()
	if _, err := codec.Decode([]byte("not json")); err == nil {
		t.Error("Decode = nil error, want a parse error")
	}
}
