package scene

import (
	"io"
	"os"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScene is returned when a scene file contains unusable spheres.
var ErrInvalidScene = errors.New("scene: invalid scene")

// The on-disk scene representation.
type document struct {
	Seed    uint64       `yaml:"seed,omitempty"`
	Options BuildOptions `yaml:"options"`
	Stats   BuildStats   `yaml:"stats"`
	Scene   `yaml:",inline"`
}

// Metadata recorded alongside a generated scene.
type Metadata struct {
	Seed    uint64
	Options BuildOptions
	Stats   BuildStats
}

// WriteScene serializes a scene and its generation metadata as YAML.
func WriteScene(w io.Writer, sc *Scene, meta Metadata) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := document{
		Seed:    meta.Seed,
		Options: meta.Options,
		Stats:   meta.Stats,
		Scene:   *sc,
	}
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrap(err, "scene: could not encode scene")
	}
	return enc.Close()
}

// ReadScene parses a YAML scene. Spheres are validated but not checked for overlap.
func ReadScene(r io.Reader) (*Scene, Metadata, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, Metadata{}, errors.Wrap(err, "scene: could not decode scene")
	}

	for index := range doc.Spheres {
		s := &doc.Spheres[index]
		if !(s.Radius > 0) {
			return nil, Metadata{}, errors.Wrapf(ErrInvalidScene, "sphere %d has non-positive radius %f", index, s.Radius)
		}
		if s.Speed < 0 || s.Amplitude < 0 {
			return nil, Metadata{}, errors.Wrapf(ErrInvalidScene, "sphere %d has negative animation parameters", index)
		}
	}

	sc := doc.Scene
	return &sc, Metadata{Seed: doc.Seed, Options: doc.Options, Stats: doc.Stats}, nil
}

// WriteSceneFile writes a scene to the given path.
func WriteSceneFile(path string, sc *Scene, meta Metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "scene: could not create scene file")
	}
	defer f.Close()

	return WriteScene(f, sc, meta)
}

// ReadSceneFile loads a scene from the given path or http(s) URL.
func ReadSceneFile(path string) (*Scene, Metadata, error) {
	res, err := asset.Open(path, nil)
	if err != nil {
		return nil, Metadata{}, errors.Wrap(err, "scene: could not open scene file")
	}
	defer res.Close()

	return ReadScene(res)
}
