package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/order"
	"gopkg.in/yaml.v3"
)

type planStep struct {
	Step       int    `json:"step" yaml:"step"`
	Op         string `json:"op" yaml:"op"`
	Package    string `json:"package" yaml:"package"`
	ReplacedBy string `json:"replaced_by,omitempty" yaml:"replaced_by,omitempty"`
}

type planReport struct {
	Transaction string     `json:"transaction" yaml:"transaction"`
	Steps       []planStep `json:"steps" yaml:"steps"`
	Cycles      int        `json:"cycles" yaml:"cycles"`
	SoftBroken  int        `json:"soft_broken" yaml:"soft_broken"`
	HardZapped  int        `json:"hard_zapped" yaml:"hard_zapped"`
}

type renderer struct {
	format string
}

func newRenderer(format string) (*renderer, error) {
	switch format {
	case "text", "json", "yaml":
		return &renderer{format: format}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
}

func (r *renderer) render(w io.Writer, txnID string, ops []models.Operation, stats order.Stats) error {
	report := planReport{
		Transaction: txnID,
		Steps:       make([]planStep, 0, len(ops)),
		Cycles:      stats.Cycles,
		SoftBroken:  stats.SoftBroken,
		HardZapped:  stats.HardZapped,
	}
	for i, op := range ops {
		step := planStep{Step: i + 1, Op: op.Kind.String(), Package: op.Package.NEVRA()}
		if op.ReplacedBy != nil {
			step.ReplacedBy = op.ReplacedBy.NEVRA()
		}
		report.Steps = append(report.Steps, step)
	}

	switch r.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, step := range report.Steps {
		line := fmt.Sprintf("%3d  %-7s %s", step.Step, step.Op, step.Package)
		if step.ReplacedBy != "" {
			line += " (replaced by " + step.ReplacedBy + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
