package meta

import (
	"bytes"
	"testing"
)

func TestSeekTableEncodeDecode(t *testing.T) {
	want := &SeekTable{
		Points: []SeekPoint{
			{SampleNum: 0, Offset: 0, NSamples: 4096},
			{SampleNum: 4096, Offset: 8000, NSamples: 4096},
			{SampleNum: 8192, Offset: 16000, NSamples: 4096},
			{SampleNum: PlaceholderPoint, Offset: 0, NSamples: 0},
		},
	}
	buf := &bytes.Buffer{}
	if err := want.Encode(buf); err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	got, err := decodeSeekTable(buf, int64(len(want.Points))*seekPointLen)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	if len(got.Points) != len(want.Points) {
		t.Fatalf("point count mismatch; expected %d, got %d", len(want.Points), len(got.Points))
	}
	for i, p := range want.Points {
		if got.Points[i] != p {
			t.Errorf("point %d mismatch; expected %+v, got %+v", i, p, got.Points[i])
		}
	}
}

func TestSeekTableSort(t *testing.T) {
	st := &SeekTable{
		Points: []SeekPoint{
			{SampleNum: PlaceholderPoint},
			{SampleNum: 8192, Offset: 2},
			{SampleNum: 0, Offset: 0},
			{SampleNum: 4096, Offset: 1},
		},
	}
	st.Sort()
	want := []uint64{0, 4096, 8192, PlaceholderPoint}
	if len(st.Points) != len(want) {
		t.Fatalf("expected %d points after sort, got %d", len(want), len(st.Points))
	}
	for i, sampleNum := range want {
		if st.Points[i].SampleNum != sampleNum {
			t.Errorf("index %d: expected sample number %d, got %d", i, sampleNum, st.Points[i].SampleNum)
		}
	}
}

func TestDecodeSeekTableRejectsNonMonotonic(t *testing.T) {
	st := &SeekTable{
		Points: []SeekPoint{
			{SampleNum: 100},
			{SampleNum: 50},
		},
	}
	buf := &bytes.Buffer{}
	if err := st.Encode(buf); err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if _, err := decodeSeekTable(buf, int64(len(st.Points))*seekPointLen); err == nil {
		t.Fatal("expected error for non-increasing sample numbers, got nil")
	}
}
