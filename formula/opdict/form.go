package opdict

//go:generate go tool go-enum --marshal --names

// Form is the position of operator inside its row.
// ENUM(prefix, infix, postfix)
type Form int
