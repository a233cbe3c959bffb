package lattice

// Version is the library version. Override at build time with
// -ldflags "-X github.com/aretw0/lattice.Version=v1.2.3".
var Version = "0.1.0"
