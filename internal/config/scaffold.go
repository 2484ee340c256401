package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScaffoldProject creates the luciole project structure in the given
// directory: luciole.toml, a scenarios/ directory with an example timeline,
// and a .gitignore entry for the session journals. Files that already exist
// are left untouched. Returns the list of created paths.
func ScaffoldProject(dir string) ([]string, error) {
	var created []string

	// luciole.toml
	tomlPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		if _, initErr := InitFile(dir); initErr != nil {
			return created, initErr
		}
		created = append(created, tomlPath)
	}

	// scenarios/
	scenariosDir := filepath.Join(dir, "scenarios")
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(scenariosDir, 0755); mkErr != nil {
			return created, fmt.Errorf("scaffold: create %s: %w", scenariosDir, mkErr)
		}
		created = append(created, scenariosDir)
	}

	examplePath := filepath.Join(scenariosDir, "scatter.yaml")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if writeErr := os.WriteFile(examplePath, []byte(ExampleScenario), 0644); writeErr != nil {
			return created, fmt.Errorf("scaffold: write %s: %w", examplePath, writeErr)
		}
		created = append(created, examplePath)
	}

	// .gitignore keeps session journals out of version control
	const gitignoreEntry = ".luciole/"
	gitignorePath := filepath.Join(dir, ".gitignore")
	existing, err := os.ReadFile(gitignorePath)
	if os.IsNotExist(err) {
		if writeErr := os.WriteFile(gitignorePath, []byte(gitignoreEntry+"\n"), 0644); writeErr != nil {
			return created, fmt.Errorf("scaffold: write %s: %w", gitignorePath, writeErr)
		}
		created = append(created, gitignorePath)
	} else if err != nil {
		return created, fmt.Errorf("scaffold: read %s: %w", gitignorePath, err)
	} else if !strings.Contains(string(existing), gitignoreEntry) {
		content := string(existing)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			content += "\n"
		}
		content += gitignoreEntry + "\n"
		if writeErr := os.WriteFile(gitignorePath, []byte(content), 0644); writeErr != nil {
			return created, fmt.Errorf("scaffold: write %s: %w", gitignorePath, writeErr)
		}
		created = append(created, gitignorePath)
	}

	return created, nil
}

// ExampleScenario lets the swarm converge, scatters it with the remote's
// button B, then calls it back with button A.
const ExampleScenario = `name: scatter
description: converge, scatter with button B, regroup with button A
duration: 3m
steps:
  - at: 60s
    button: b
    note: every node stops listening and picks a random phase
  - at: 75s
    button: a
    note: listening again; watch the order parameter climb
  - at: 150s
    command: sync
`
