package resolver

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// projectTOML mirrors the [toolchain] table schema from spec.md §4.7: channel
// (mutually exclusive with path), path, profile, components, targets.
// Unknown keys are an error, enforced by checking toml.MetaData.Undecoded.
type projectTOML struct {
	Toolchain struct {
		Channel    string   `toml:"channel"`
		Path       string   `toml:"path"`
		Profile    string   `toml:"profile" validate:"omitempty,oneof=minimal default complete"`
		Components []string `toml:"components"`
		Targets    []string `toml:"targets"`
	} `toml:"toolchain"`
}

var validate = validator.New()

func parseProjectTOML(data []byte) (*ProjectFile, error) {
	var doc projectTOML
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("resolver: parsing rust-toolchain.toml: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("resolver: unknown key %q in rust-toolchain.toml", undecoded[0].String())
	}
	if doc.Toolchain.Channel != "" && doc.Toolchain.Path != "" {
		return nil, fmt.Errorf("resolver: rust-toolchain.toml: channel and path are mutually exclusive")
	}
	if err := validate.Struct(&doc.Toolchain); err != nil {
		return nil, fmt.Errorf("resolver: rust-toolchain.toml: %w", err)
	}

	return &ProjectFile{
		Channel:    doc.Toolchain.Channel,
		Path:       doc.Toolchain.Path,
		Profile:    doc.Toolchain.Profile,
		Components: doc.Toolchain.Components,
		Targets:    doc.Toolchain.Targets,
	}, nil
}
