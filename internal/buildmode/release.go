//go:build !debug

package buildmode

const current = Release
