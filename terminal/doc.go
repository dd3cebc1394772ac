// Package terminal owns the terminal device mode for the lifetime of the process.
//
// A Session moves the device from normal (cooked) mode into raw mode with the
// alternate screen buffer, mouse capture and a hidden cursor, and moves it back
// exactly once. The device itself is a tcell.Screen; the package never touches
// device mode outside Acquire and Release.
//
// EmergencyReset is the fallback for crash paths that have no Session to release.
package terminal
