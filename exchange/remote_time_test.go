// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRemoteTimeJSON(t *testing.T) {
	type JSONType struct {
		Timepoint RemoteTime
	}

	// Zero timepoint is encoded as null and decoded back as zero.
	js, err := json.Marshal(&JSONType{})
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"Timepoint":null}`; string(js) != want {
		t.Fatalf("want %s, got %s", want, js)
	}
	zero := new(JSONType)
	if err := json.Unmarshal(js, zero); err != nil {
		t.Fatal(err)
	}
	if !zero.Timepoint.IsZero() {
		t.Fatalf("IsZero: want true, got false")
	}

	// Exchange timestamps have no zone suffix and are in UTC.
	v := new(JSONType)
	if err := json.Unmarshal([]byte(`{"Timepoint":"2017-11-01T04:28:26.973"}`), v); err != nil {
		t.Fatal(err)
	}
	want := time.Date(2017, 11, 1, 4, 28, 26, 973000000, time.UTC)
	if !v.Timepoint.Equal(want) {
		t.Fatalf("want %s, got %s", want, v.Timepoint.Time)
	}

	js, err = json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	recovered := new(JSONType)
	if err := json.Unmarshal(js, recovered); err != nil {
		t.Fatal(err)
	}
	if !recovered.Timepoint.Equal(want) {
		t.Fatalf("Equal: want true, got false (%s)", js)
	}

	if err := json.Unmarshal([]byte(`{"Timepoint":"yesterday"}`), v); err == nil {
		t.Fatalf("want error for an invalid timestamp, got nil")
	}
}
