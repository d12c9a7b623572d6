package formula

//go:generate go tool go-enum

// Direction of cursor movement.
// ENUM(none, left, right, up, down, home, end)
type Direction int
