package scene

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"pgregory.net/rand"
)

func TestSceneFileRoundTrip(t *testing.T) {
	opts := smallSceneOptions()
	opts.AnimationProbability = 0.5
	sc, stats, err := NewBuilder(rand.New(11)).Build(opts)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "scene.yaml")
	meta := Metadata{Seed: 11, Options: opts, Stats: stats}
	if err = WriteSceneFile(path, sc, meta); err != nil {
		t.Fatal(err)
	}

	loaded, loadedMeta, err := ReadSceneFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sc, loaded); diff != "" {
		t.Fatalf("scene mismatch after reload (-exp +got):\n%s", diff)
	}
	if diff := cmp.Diff(meta, loadedMeta); diff != "" {
		t.Fatalf("metadata mismatch after reload (-exp +got):\n%s", diff)
	}
}

func TestReadSceneValidation(t *testing.T) {
	type spec struct {
		doc    string
		expErr error
	}

	specs := []spec{
		{"spheres:\n  - {position: [0, 1, 0], radius: 1}\n", nil},
		{"", nil},
		{"spheres:\n  - {position: [0, 1, 0], radius: 0}\n", ErrInvalidScene},
		{"spheres:\n  - {position: [0, 1, 0], radius: 1, speed: -1}\n", ErrInvalidScene},
	}

	for index, s := range specs {
		_, _, err := ReadScene(strings.NewReader(s.doc))
		if errors.Cause(err) != s.expErr {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.expErr, err)
		}
	}

	if _, _, err := ReadScene(strings.NewReader("spheres: [[[")); err == nil {
		t.Fatal("expected malformed yaml to be rejected")
	}
}

func TestWriteSceneIncludesSeed(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScene(&buf, &Scene{}, Metadata{Seed: 1234}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "seed: 1234") {
		t.Fatalf("expected seed in output; got:\n%s", buf.String())
	}
}
