package gen

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/sysabi/pkg/abi"
)

func renderManifest(table *abi.Table, name string) ([]Artifact, error) {
	data, err := json.MarshalIndent(table.Manifest(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return []Artifact{{
		Path:    name,
		Backend: BackendManifest,
		Side:    SideShared,
		Content: append(data, '\n'),
	}}, nil
}
