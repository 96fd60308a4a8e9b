package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("b")

	first := gen.Next()
	second := gen.Next()

	if first != "b-001" || second != "b-002" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestIDGeneratorCanReset(t *testing.T) {
	gen := NewIDGenerator("")
	_ = gen.Next()
	gen.Reset()

	if next := gen.NextFunc()(); next != "id-001" {
		t.Fatalf("expected id-001 after reset, got %q", next)
	}
}
