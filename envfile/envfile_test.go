// Copyright (c) 2025 BVK Chaitanya

package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestUpdateEnv(t *testing.T) {
	dir := t.TempDir()
	data := `
# exchange credentials
export API_KEY="abc\tdef"
API_SECRET = 'xyz'
CONCURRENT_TASKS=4
`
	if err := os.WriteFile(filepath.Join(dir, ".test.env"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENVTEST_CONCURRENT_TASKS", "8")
	t.Setenv("ENVTEST_API_KEY", "")
	t.Setenv("ENVTEST_API_SECRET", "")

	fpath, err := UpdateEnv(".test.env", SearchDir(t.TempDir()), SearchDir(dir), VariableNamePrefix("ENVTEST_"))
	if err != nil {
		t.Fatal(err)
	}
	if fpath != filepath.Join(dir, ".test.env") {
		t.Fatalf("unexpected env file %q", fpath)
	}
	if v := os.Getenv("ENVTEST_API_KEY"); v != "abc\tdef" {
		t.Fatalf("unexpected api key %q", v)
	}
	if v := os.Getenv("ENVTEST_API_SECRET"); v != "xyz" {
		t.Fatalf("unexpected api secret %q", v)
	}
	if v := os.Getenv("ENVTEST_CONCURRENT_TASKS"); v != "8" {
		t.Fatalf("existing values must not be overwritten, got %q", v)
	}

	if _, err := UpdateEnv(".test.env", SearchDir(dir), VariableNamePrefix("ENVTEST_"), OverwriteIfExists(true)); err != nil {
		t.Fatal(err)
	}
	if v := os.Getenv("ENVTEST_CONCURRENT_TASKS"); v != "4" {
		t.Fatalf("want overwritten value 4, got %q", v)
	}
}

func TestUpdateEnvMissing(t *testing.T) {
	fpath, err := UpdateEnv(".missing.env", SearchDir(t.TempDir()))
	if err != nil || fpath != "" {
		t.Fatalf("missing file must be ignored, got %q, %v", fpath, err)
	}
	if _, err := UpdateEnv("a/b.env"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestUpdateEnvInvalid(t *testing.T) {
	dir := t.TempDir()
	for _, data := range []string{"NOVALUE\n", "1BAD=x\n"} {
		if err := os.WriteFile(filepath.Join(dir, ".bad.env"), []byte(data), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := UpdateEnv(".bad.env", SearchDir(dir)); !errors.Is(err, os.ErrInvalid) {
			t.Errorf("%q: want ErrInvalid, got %v", data, err)
		}
	}
}
