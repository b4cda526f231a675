// Package barcolor derives the background colors behind a display's status
// bar and navigation bar from one captured frame.
//
// Sample points are requested as logical offsets from the displayed edges,
// mapped onto the physical frame for the active rotation, decoded from the
// frame's pixel format and collapsed into one color per bar plus a flag
// telling whether two probes near the bar's corner matched.
package barcolor
