package log

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFrameRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewFrameRecorder(dir)
	frames := []string{
		`{"type":"welcome","data":{"id":"p1"}}`,
		`{not json`,
		`{"type":"game_state","data":{"players":[]}}`,
	}
	for _, f := range frames {
		if err := r.WriteFrame([]byte(f)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []Frame
	if err := ReadFrames(dir, func(f Frame) error { got = append(got, f); return nil }); err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("read %d frames, want %d", len(got), len(frames))
	}
	for i, f := range got {
		if string(f.Raw()) != frames[i] {
			t.Fatalf("frame %d = %q, want %q", i, f.Raw(), frames[i])
		}
		if f.Seq != uint64(i+1) {
			t.Fatalf("frame %d seq = %d", i, f.Seq)
		}
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, FramePrefix)
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(Frame{Seq: 1, Data: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(Frame{Seq: 2, Data: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, FramePrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
	if filepath.Base(files[0]) != "frames-2026-03-01-10.jsonl.zst" || filepath.Base(files[1]) != "frames-2026-03-01-11.jsonl.zst" {
		t.Fatalf("files = %v", files)
	}

	var seqs []uint64
	_ = ReadFrames(dir, func(f Frame) error { seqs = append(seqs, f.Seq); return nil })
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("seqs = %v", seqs)
	}
}

func TestJSONLZstdWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		r := NewFrameRecorder(dir)
		clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		r.w.now = func() time.Time { return clock }
		if err := r.WriteFrame([]byte(`{"type":"ship_damage","data":{"hull":1}}`)); err != nil {
			t.Fatal(err)
		}
		_ = r.Close()
	}
	n := 0
	if err := ReadFrames(dir, func(Frame) error { n++; return nil }); err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if n != 2 {
		t.Fatalf("frames = %d, want 2 (concatenated zstd frames)", n)
	}
}
