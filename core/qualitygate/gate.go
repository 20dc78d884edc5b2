// Package qualitygate evaluates the quality gate of a project against its measures.
package qualitygate

import (
	"bytes"
	"fmt"
	"os"

	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a quality gate from a YAML file.
func LoadFile(path string) (*schema.QualityGate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quality gate %s: %w", path, err)
	}
	gate, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid quality gate %s: %w", path, err)
	}
	return gate, nil
}

// Parse decodes a YAML quality gate.
func Parse(data []byte) (*schema.QualityGate, error) {
	var gate schema.QualityGate
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&gate); err != nil {
		return nil, err
	}
	return &gate, nil
}

// Validate checks that every condition references a known metric with a supported operator.
func Validate(gate *schema.QualityGate, metrics *measure.MetricRepository) error {
	for _, c := range gate.Conditions {
		if _, ok := schema.ValidOperators[c.Operator]; !ok {
			return contract.NewMessageError("Quality gate %q: unsupported operator '%s' on %s", gate.Name, c.Operator, c.MetricKey)
		}
		def, ok := metrics.Lookup(c.MetricKey)
		if !ok {
			return contract.NewMessageError("Quality gate %q: unknown metric '%s'", gate.Name, c.MetricKey)
		}
		if _, err := parseThreshold(def, c); err != nil {
			return contract.NewMessageError("Quality gate %q: %s", gate.Name, err.Error())
		}
	}
	return nil
}
