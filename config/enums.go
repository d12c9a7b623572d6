package config

//go:generate go tool go-enum --marshal --names

// Specification of what to do when output file already exists.
// ENUM(fail, overwrite, skip)
type ExistingMode int
