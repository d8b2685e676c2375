package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	want := map[string]bool{
		"version":   false,
		"browse":    false,
		"list":      false,
		"search":    false,
		"movie":     false,
		"genres":    false,
		"genre":     false,
		"bot":       false,
		"mcp-serve": false,
		"config":    false,
	}

	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	root := newRootCmd()
	flag := root.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("--config flag not registered")
	}
	if flag.DefValue != "" {
		t.Errorf("--config default = %q, want empty", flag.DefValue)
	}
	if flag.Shorthand != "c" {
		t.Errorf("--config shorthand = %q, want %q", flag.Shorthand, "c")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	if !strings.Contains(out.String(), "MovieDeck v"+version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name    string
		cmd     func() error
		wantErr bool
	}{
		{name: "search needs a query", cmd: func() error { c := newSearchCmd(); return c.Args(c, nil) }, wantErr: true},
		{name: "search accepts words", cmd: func() error { c := newSearchCmd(); return c.Args(c, []string{"blade", "runner"}) }},
		{name: "movie needs one id", cmd: func() error { c := newMovieCmd(); return c.Args(c, nil) }, wantErr: true},
		{name: "movie rejects two", cmd: func() error { c := newMovieCmd(); return c.Args(c, []string{"1", "2"}) }, wantErr: true},
		{name: "list defaults category", cmd: func() error { c := newListCmd(); return c.Args(c, nil) }},
		{name: "list takes one category", cmd: func() error { c := newListCmd(); return c.Args(c, []string{"a", "b"}) }, wantErr: true},
		{name: "genres takes nothing", cmd: func() error { c := newGenresCmd(); return c.Args(c, []string{"x"}) }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageFlags(t *testing.T) {
	for _, cmd := range []func() *cobra.Command{newListCmd, newSearchCmd, newGenreCmd} {
		c := cmd()
		f := c.Flags().Lookup("page")
		if f == nil {
			t.Errorf("%s: missing --page", c.Name())
			continue
		}
		if f.DefValue != "1" {
			t.Errorf("%s: --page default = %q", c.Name(), f.DefValue)
		}
	}
}

func TestConfigCommand_HasValidateSubcommand(t *testing.T) {
	cmd := newConfigCmd()
	found := false
	for _, sub := range cmd.Commands() {
		if sub.Name() == "validate" {
			found = true
			break
		}
	}
	if !found {
		t.Error("config command missing 'validate' subcommand")
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moviedeck.yaml")
	yaml := "tmdb:\n  api_key: \"\"\napp:\n  url: https://deck.example\n  data_dir: " + dir + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"MOVIEDECK_TMDB_API_KEY", "TMDB_API_KEY", "MOVIEDECK_APP_URL", "MOVIEDECK_DATA_DIR"} {
		t.Setenv(k, "")
	}

	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })

	cmd := newConfigValidateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Configuration is valid") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "tmdb.api_key is not set") {
		t.Errorf("expected missing key warning, got %q", got)
	}
	if !strings.Contains(got, filepath.Join(dir, "moviedeck.log")) {
		t.Errorf("expected default log file under data dir, got %q", got)
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("app:\n  url: ftp://nope\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MOVIEDECK_APP_URL", "")

	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })

	cmd := newConfigValidateCmd()
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.RunE(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "app.url") {
		t.Errorf("err = %v, want app.url error", err)
	}
}
