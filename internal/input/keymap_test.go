package input

import "testing"

func TestEVKeyToKeyIndexKnownAndUnknown(t *testing.T) {
	if idx, ok := EVKeyToKeyIndex(16); !ok || idx != 16 {
		t.Fatalf("expected known mapping for code 16, got idx=%d ok=%v", idx, ok)
	}
	if _, ok := EVKeyToKeyIndex(9999); ok {
		t.Fatal("expected unknown code to report ok=false")
	}
}

func TestHIDCodeToKeyIndex(t *testing.T) {
	if idx, ok := HIDCodeToKeyIndex(0xf1); !ok || idx != 41 {
		t.Fatalf("expected mapped HID code, got idx=%d ok=%v", idx, ok)
	}
	if _, ok := HIDCodeToKeyIndex(0x00); ok {
		t.Fatal("expected unmapped HID code to report ok=false")
	}
}

func TestEVKeyToButtonIndex(t *testing.T) {
	if idx, ok := EVKeyToButtonIndex(0x110); !ok || idx != 0 {
		t.Fatalf("expected BTN_LEFT mapped to index 0, got idx=%d ok=%v", idx, ok)
	}
}
