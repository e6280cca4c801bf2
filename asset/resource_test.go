package asset

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := Open(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected a local file resource")
	}
	if res.Path() != filepath.ToSlash(thisFile) {
		t.Fatalf("expected path %q; got %q", filepath.ToSlash(thisFile), res.Path())
	}

	if _, err = Open(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	data, res, err := ReadAll(server.URL+"/"+filepath.Base(thisFile), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsRemote() {
		t.Fatal("expected a remote resource")
	}
	if !strings.HasPrefix(string(data), "package asset") {
		t.Fatalf("expected to fetch the contents of %s", filepath.Base(thisFile))
	}

	fetchURL := server.URL + "/file-not-found.foo"
	_, err = Open(fetchURL, nil)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected a 404 error for %s; got %v", fetchURL, err)
	}
}

func TestRelativeResources(t *testing.T) {
	var served []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = append(served, r.URL.Path)
		switch r.URL.Path {
		case "/scenes/config.yaml", "/scenes/sky/env.png":
			w.Write([]byte("OK"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	res1, err := Open(server.URL+"/scenes/config.yaml?rev=2", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()

	res2, err := Open("sky/env.png", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if len(served) != 2 || served[1] != "/scenes/sky/env.png" {
		t.Fatalf("expected the relative resource to be fetched from /scenes/sky/env.png; got %v", served)
	}

	// Local resources resolve against the directory of the parent file.
	dir := t.TempDir()
	if err = os.WriteFile(filepath.Join(dir, "scene.yaml"), []byte("spheres: []"), 0644); err != nil {
		t.Fatal(err)
	}
	if err = os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("scene: {}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, local, err := ReadAll(filepath.Join(dir, "config.yaml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	data, _, err := ReadAll("scene.yaml", local)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "spheres: []" {
		t.Fatalf("expected to read the sibling scene file; got %q", string(data))
	}
}

func TestResolve(t *testing.T) {
	local, err := Open(os.Args[0], nil)
	if err != nil {
		t.Fatal(err)
	}
	local.Close()
	localDir := filepath.Dir(os.Args[0])

	type spec struct {
		target string
		exp    string
	}
	specs := []spec{
		{"", ""},
		{"sky.png", filepath.Join(localDir, "sky.png")},
		{"../sky.png", filepath.Join(localDir, "..", "sky.png")},
		{"http://example.com/sky.png", "http://example.com/sky.png"},
	}
	if abs, _ := filepath.Abs("sky.png"); abs != "" {
		specs = append(specs, spec{abs, abs})
	}

	for specIndex, s := range specs {
		if got := local.Resolve(s.target); got != s.exp {
			t.Fatalf("[spec %d] expected %q to resolve to %q; got %q", specIndex, s.target, s.exp, got)
		}
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	_, err := Open("gopher://digging.go", nil)
	if errors.Cause(err) != ErrUnsupportedScheme {
		t.Fatalf("expected ErrUnsupportedScheme; got %v", err)
	}
}
