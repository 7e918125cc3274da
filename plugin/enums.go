package plugin

// Form of the module generated for imported stylesheet.
// ENUM(string, native, inject)
type OutputShape int
