//go:build !darwin

package runtime

const libSuffix = ".so"
