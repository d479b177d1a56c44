package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/venturetk/VenturePortfolio/config"
)

func TestExtensionMechanism(t *testing.T) {
	tempDir := t.TempDir()

	// vpm-hello prints the settings it receives.
	helloSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("args=%%v\n", os.Args[1:])
}
`, config.EnvPortfolio, config.EnvPortfolio, config.EnvQuote, config.EnvQuote, config.EnvInternalTransfers, config.EnvInternalTransfers)

	helloPath := filepath.Join(tempDir, "vpm-hello")
	srcFile := helloPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloSource), 0o644); err != nil {
		t.Fatalf("Failed to write vpm-hello source: %v", err)
	}
	build := exec.Command("go", "build", "-o", helloPath, srcFile)
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile vpm-hello: %v", err)
	}

	vpmPath := filepath.Join(tempDir, "vpm")
	build = exec.Command("go", "build", "-o", vpmPath, "../vpm")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile vpm: %v", err)
	}

	portfolioFile := filepath.Join(tempDir, "mine.jsonl")
	cfg := filepath.Join(tempDir, "vpm.yaml")
	content := "portfolio: " + portfolioFile + "\nquote: EUR\ninternal_transfers: move\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write configuration: %v", err)
	}

	vpm := exec.Command(vpmPath, "-config", cfg, "hello", "-x", "world")
	vpm.Dir = tempDir
	vpm.Env = []string{"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH")}
	var stdout, stderr bytes.Buffer
	vpm.Stdout = &stdout
	vpm.Stderr = &stderr
	if err := vpm.Run(); err != nil {
		t.Fatalf("vpm hello failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	output := stdout.String()
	for _, expected := range []string{
		config.EnvPortfolio + "=" + portfolioFile,
		config.EnvQuote + "=EUR",
		config.EnvInternalTransfers + "=move",
		"args=[-x world]",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q, but got:\n%s", expected, output)
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	found, code := RunExtension("nope", nil)
	if found || code != 0 {
		t.Errorf("RunExtension(nope) = %v, %d, want false, 0", found, code)
	}
}
