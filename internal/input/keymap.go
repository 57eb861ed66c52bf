package input

// The tables below translate raw device codes into the stable key/button
// indices scripts are written against. original_source/ only retained
// main.rs, not the util.rs module that held the original lookup tables,
// so these are invented rather than carried over: a small, deliberately
// conservative QWERTY subset sufficient to exercise the dispatch and
// worker-fanout paths, rather than a claim of completeness against any
// particular keyboard layout.
var evKeyToIndex = map[uint16]int{
	1:  41, // Esc
	2:  2,  // 1
	3:  3,  // 2
	4:  4,  // 3
	16: 16, // Q
	17: 17, // W
	18: 18, // E
	30: 30, // A
	31: 31, // S
	32: 32, // D
	44: 44, // Z
	45: 45, // X
	57: 57, // Space
}

var hidCodeToIndex = map[uint16]int{
	0xf1: 41, // vendor "Fn" macro key mapped onto Esc's index
	0xf2: 57,
}

var evKeyToButtonIndex = map[uint16]int{
	0x110: 0, // BTN_LEFT
	0x111: 1, // BTN_RIGHT
	0x112: 2, // BTN_MIDDLE
	0x113: 3, // BTN_SIDE
	0x114: 4, // BTN_EXTRA
}

// EVKeyToKeyIndex maps a raw keyboard scan code to a script-stable key
// index, reporting false for codes with no known mapping (the event is
// then dropped rather than forwarded with a meaningless index).
func EVKeyToKeyIndex(code uint16) (int, bool) {
	idx, ok := evKeyToIndex[code]
	return idx, ok
}

// HIDCodeToKeyIndex maps a vendor HID report code onto the same key-index
// space as EVKeyToKeyIndex, used to synthesize the extra KeyDown/KeyUp
// cycle spec.md §4.4 describes for HID codes that double as normal keys.
func HIDCodeToKeyIndex(code uint16) (int, bool) {
	idx, ok := hidCodeToIndex[code]
	return idx, ok
}

// EVKeyToButtonIndex maps a raw mouse button code to a script-stable
// button index.
func EVKeyToButtonIndex(code uint16) (int, bool) {
	idx, ok := evKeyToButtonIndex[code]
	return idx, ok
}
