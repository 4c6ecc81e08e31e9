package output

import "encoding/json"

// ValidateOutput is the JSON result of the validate command.
type ValidateOutput struct {
	Valid       bool   `json:"valid"`
	Source      string `json:"source"`
	Count       int    `json:"count"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// CheckOutput is the JSON result of the check command.
type CheckOutput struct {
	Compatible      bool     `json:"compatible"`
	Lock            string   `json:"lock"`
	LockCount       int      `json:"lock_count"`
	Count           int      `json:"count"`
	LockFingerprint string   `json:"lock_fingerprint"`
	Fingerprint     string   `json:"fingerprint"`
	Added           []string `json:"added"`
	Error           string   `json:"error,omitempty"`
}

// GenerateOutput is the JSON result of one generate run.
type GenerateOutput struct {
	Fingerprint string       `json:"fingerprint"`
	Count       int          `json:"count"`
	OutputDir   string       `json:"output_dir"`
	Files       []FileOutput `json:"files"`
	Lock        string       `json:"lock,omitempty"`
}

// FileOutput describes one written artifact.
type FileOutput struct {
	Path    string `json:"path"`
	Side    string `json:"side"`
	Changed bool   `json:"changed"`
}

// JSON writes v to standard output as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
