//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Research builds the CLI and produces the report for one rsID.
func Research(rsid string) error {
	mg.Deps(Init, Build)
	return sh.RunV("bin/variant-research", "research", rsid, "--log-format", "console")
}

// Render rebuilds the report for one rsID from its saved snapshots.
func Render(rsid string) error {
	mg.Deps(Build)
	return sh.RunV("bin/variant-research", "render", rsid, "--log-format", "console")
}

// Resume reruns research for one rsID, reusing valid snapshots.
func Resume(rsid string) error {
	mg.Deps(Init, Build)
	return sh.RunV("bin/variant-research", "research", rsid, "--resume", "--log-format", "console")
}
