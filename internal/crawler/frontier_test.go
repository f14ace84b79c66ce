package crawler

import "testing"

func TestFrontierFIFO(t *testing.T) {
	f := NewFrontier()
	f.Push("https://ex.test/a", 0)
	f.Push("https://ex.test/b", 1)
	f.Push("https://ex.test/c", 1)

	want := []string{"https://ex.test/a", "https://ex.test/b", "https://ex.test/c"}
	for i, w := range want {
		item, ok := f.Pop()
		if !ok {
			t.Fatalf("Pop() empty at index %d", i)
		}
		if item.URL != w {
			t.Errorf("Pop()[%d] = %q, want %q", i, item.URL, w)
		}
	}

	if _, ok := f.Pop(); ok {
		t.Error("expected empty frontier after draining")
	}
}

func TestFrontierSuppressesDuplicatePush(t *testing.T) {
	f := NewFrontier()

	if !f.Push("https://ex.test/a", 0) {
		t.Error("first push should succeed")
	}
	if f.Push("https://ex.test/a", 2) {
		t.Error("second push of same URL should be suppressed")
	}
	if f.Len() != 1 {
		t.Errorf("expected 1 pending item, got %d", f.Len())
	}
}

func TestFrontierLen(t *testing.T) {
	f := NewFrontier()
	if f.Len() != 0 {
		t.Errorf("new frontier Len() = %d", f.Len())
	}
	f.Push("https://ex.test/a", 0)
	f.Push("https://ex.test/b", 0)
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
	f.Pop()
	if f.Len() != 1 {
		t.Errorf("Len() after Pop = %d, want 1", f.Len())
	}
}
