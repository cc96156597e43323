//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildLookForGainDrift)
	fmt.Println("Compilation finished")
	return nil
}

func BuildLookForGainDrift() error {
	fmt.Println("Building lookForGainDrift executable...")
	return goCmd("build", "-o", "./bin/lookForGainDrift", "./lookForGainDrift").Run()
}

// Test runs the unit tests of every package.
func Test() error {
	fmt.Println("Running tests...")
	return goCmd("test", "./...").Run()
}

// hdf5 bindings need cgo, so every go invocation carries the cgo flags of the
// environment.
func goCmd(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
