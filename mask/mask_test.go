package mask_test

import (
	"reflect"
	"testing"

	"cellseq/life"
	"cellseq/mask"
)

func TestHitsSorted(t *testing.T) {
	m := mask.New()
	for _, c := range []life.Cell{{I: 3, J: 1}, {I: -2, J: 5}, {I: 0, J: 0}, {I: 0, J: -7}, {I: 9, J: 9}} {
		m.Check(c)
	}
	l := life.New(life.Cell{I: 3, J: 1}, life.Cell{I: 0, J: 0}, life.Cell{I: 0, J: -7}, life.Cell{I: -2, J: 5}, life.Cell{I: 4, J: 4})

	want := []life.Cell{{I: -2, J: 5}, {I: 0, J: -7}, {I: 0, J: 0}, {I: 3, J: 1}}
	for i := 0; i < 10; i++ {
		if got := m.Hits(l); !reflect.DeepEqual(got, want) {
			t.Fatalf("Hits() = %v, want %v", got, want)
		}
	}
}

func TestHitsSmallerSide(t *testing.T) {
	m := mask.New()
	m.Check(life.Cell{I: 1, J: 1})
	l := life.Parse("OOO\nOOO\nOOO", 0, 0)
	if got := m.Hits(l); !reflect.DeepEqual(got, []life.Cell{{I: 1, J: 1}}) {
		t.Fatalf("mask smaller than life: %v", got)
	}

	for i := -5; i < 5; i++ {
		m.Check(life.Cell{I: i, J: i})
	}
	if got := m.Hits(life.New(life.Cell{I: 2, J: 2})); !reflect.DeepEqual(got, []life.Cell{{I: 2, J: 2}}) {
		t.Fatalf("life smaller than mask: %v", got)
	}
}

func TestHitsEmpty(t *testing.T) {
	m := mask.New()
	if got := m.Hits(life.Parse("OO", 0, 0)); len(got) != 0 {
		t.Fatalf("empty mask hit %v", got)
	}
	m.Check(life.Cell{})
	if got := m.Hits(life.Life{}); len(got) != 0 {
		t.Fatalf("empty life hit %v", got)
	}
}

func TestCheckIdempotent(t *testing.T) {
	m := mask.New()
	c := life.Cell{I: 2, J: 3}
	m.SetNote(c, mask.Note{Value: 4, Velocity: 90, On: true})
	m.Check(c)
	n, ok := m.Note(c)
	if !ok || n != (mask.Note{Value: 4, Velocity: 90, On: true}) {
		t.Fatalf("Check overwrote an existing note: %+v", n)
	}
	m.Uncheck(c)
	m.Uncheck(c)
	if m.Contains(c) || m.Len() != 0 {
		t.Fatalf("uncheck left %d entries", m.Len())
	}
}

func TestSetNoteRange(t *testing.T) {
	m := mask.New()
	c := life.Cell{}
	m.SetNote(c, mask.Note{Value: 14, Velocity: 200, On: true})
	n, _ := m.Note(c)
	if n.Value != 2 || n.Velocity != 127 {
		t.Fatalf("SetNote kept out of range values: %+v", n)
	}
}

func TestEditsApplyToNextIntersection(t *testing.T) {
	m := mask.New()
	l := life.Parse("OO", 0, 0)
	m.Check(life.Cell{I: 0, J: 0})
	before := m.Hits(l)

	m.Check(life.Cell{I: 0, J: 1})
	if len(before) != 1 {
		t.Fatalf("earlier intersection changed after edit: %v", before)
	}
	if got := m.Hits(l); len(got) != 2 {
		t.Fatalf("edit not visible in next intersection: %v", got)
	}

	clone := m.Clone()
	m.Clear()
	if m.Len() != 0 || clone.Len() != 2 {
		t.Fatalf("clear: mask=%d clone=%d", m.Len(), clone.Len())
	}
}
