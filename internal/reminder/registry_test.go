package reminder

import (
	"slices"
	"testing"
)

func TestRegistryAddRemove(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if !r.Add("a") || !r.Add("b") || !r.Add("c") {
		t.Fatalf("add failed")
	}
	if r.Add("a") || r.Add("  ") {
		t.Fatalf("duplicate or empty id accepted")
	}
	if !r.Remove("b") || r.Remove("b") {
		t.Fatalf("remove semantics")
	}
	if got := slices.Collect(r.List()); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("List = %v", got)
	}
	if r.Len() != 2 || !r.Has(" c ") {
		t.Fatalf("Len/Has wrong")
	}
}

func TestRegistryDoneFlags(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Add("a")
	r.Add("b")

	if r.MarkDone("zzz") {
		t.Fatalf("unknown id marked done")
	}
	if !r.MarkDone("a") {
		t.Fatalf("MarkDone(a) = false")
	}
	if done, ok := r.Done("a"); !done || !ok {
		t.Fatalf("Done(a) = %v, %v", done, ok)
	}
	if _, ok := r.Done("zzz"); ok {
		t.Fatalf("Done(unknown) ok")
	}

	r.ResetAll()
	once := r.Snapshot()
	for _, c := range once {
		if c.Done {
			t.Fatalf("%s still done after reset", c.ID)
		}
	}
	r.ResetAll()
	if twice := r.Snapshot(); !slices.Equal(once, twice) {
		t.Fatalf("second ResetAll changed state: %v -> %v", once, twice)
	}
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Add("a")
	snap := r.Snapshot()
	snap[0].Done = true
	if done, _ := r.Done("a"); done {
		t.Fatalf("snapshot aliases registry state")
	}

	seq := r.List()
	r.Add("b")
	if got := slices.Collect(seq); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("restarted sequence = %v", got)
	}
}

func TestRegistryLoad(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Add("old")
	r.Load([]Channel{{ID: "x", Done: true}, {ID: ""}, {ID: "y"}, {ID: "x"}})

	want := []Channel{{ID: "x", Done: true}, {ID: "y"}}
	if got := r.Snapshot(); !slices.Equal(got, want) {
		t.Fatalf("Snapshot = %v, want %v", got, want)
	}
}
