package metadata

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest bundles the metadata with its derived host buffer layout. It is the document
// written for web hosts and inspected by developers.
type Manifest struct {
	Metadata   `yaml:",inline"`
	HostLayout HostLayout `json:"host_layout" yaml:"host_layout"`
}

// NewManifest derives the manifest for a metadata record.
func NewManifest(m Metadata) Manifest {
	return Manifest{Metadata: m, HostLayout: m.HostLayout()}
}

// WriteJSON writes the manifest as indented JSON.
//
// Parameters:
//   - w: the destination writer
//
// Returns:
//   - error: an error if encoding or writing fails
func (m Manifest) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(m), "encode manifest json")
}

// WriteYAML writes the manifest as YAML.
//
// Parameters:
//   - w: the destination writer
//
// Returns:
//   - error: an error if encoding or writing fails
func (m Manifest) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return errors.Wrap(err, "encode manifest yaml")
	}
	return errors.Wrap(enc.Close(), "flush manifest yaml")
}

// ReadManifestJSON decodes a manifest previously written with WriteJSON.
func ReadManifestJSON(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Manifest{}, errors.Wrap(err, "decode manifest json")
	}
	return m, nil
}
