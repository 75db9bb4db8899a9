// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron"
	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		_ = validate.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
			_, err := regexp.Compile("(?i)" + fl.Field().String())

			return err == nil
		})

		_ = validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
			_, err := cron.ParseStandard(fl.Field().String())

			return err == nil
		})
	})

	return validate
}

// Load reads, decodes and validates the policy file at the given path
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading policy file %s: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}

	return p, nil
}

// Parse decodes a YAML or JSON policy, fills in its defaults and validates it.
// Unknown fields and unknown action kinds are rejected.
func Parse(data []byte) (*Policy, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("error converting policy to json: %w", err)
	}

	p := &Policy{}

	if err := strictUnmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("error decoding policy: %w", err)
	}

	p.SetDefaults()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults fills in the declared defaults of the run strategy, exit strategy and dayTime filters
func (p *Policy) SetDefaults() {
	rs := &p.Config.RunStrategy

	if rs.Strategy == "" {
		rs.Strategy = StrategySequential
	}

	if rs.MinSecondsBetweenRuns == nil {
		rs.MinSecondsBetweenRuns = Int(DefaultMinSecondsBetweenRuns)
	}

	if rs.MaxSecondsBetweenRuns == nil {
		rs.MaxSecondsBetweenRuns = Int(DefaultMaxSecondsBetweenRuns)
	}

	if p.Config.ExitStrategy.Strategy == "" {
		p.Config.ExitStrategy.Strategy = ExitStrategyFailFast
	}

	for i := range p.Scenarios {
		for j := range p.Scenarios[i].Steps {
			step := &p.Scenarios[i].Steps[j]

			switch {
			case step.NodeAction != nil:
				setFilterDefaults(step.NodeAction.Filters)
			case step.PodAction != nil:
				setFilterDefaults(step.PodAction.Filters)
			}
		}
	}
}

func setFilterDefaults(filters []Filter) {
	for i := range filters {
		if dt := filters[i].DayTime; dt != nil {
			if dt.StartTime == nil {
				start := DefaultDayTimeStart
				dt.StartTime = &start
			}

			if dt.EndTime == nil {
				end := DefaultDayTimeEnd
				dt.EndTime = &end
			}
		}

		if pr := filters[i].Probability; pr != nil && pr.ProbabilityPassAll == nil {
			pr.ProbabilityPassAll = Float(DefaultProbabilityPassAll)
		}
	}
}

// Validate returns every problem found in the policy
func (p *Policy) Validate() error {
	var errs *multierror.Error

	if err := getValidator().Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("error validating policy: %w", err)
		}

		for _, fieldErr := range fieldErrs {
			errs = multierror.Append(errs, fmt.Errorf("%s: invalid value %v (%s)", fieldErr.Namespace(), fieldErr.Value(), fieldErr.Tag()))
		}
	}

	rs := p.Config.RunStrategy
	if rs.MinSleep() > rs.MaxSleep() {
		errs = multierror.Append(errs, fmt.Errorf("config.runStrategy: minSecondsBetweenRuns (%d) is greater than maxSecondsBetweenRuns (%d)",
			intOr(rs.MinSecondsBetweenRuns, DefaultMinSecondsBetweenRuns), intOr(rs.MaxSecondsBetweenRuns, DefaultMaxSecondsBetweenRuns)))
	}

	names := map[string]struct{}{}

	for i, scenario := range p.Scenarios {
		if _, found := names[scenario.Name]; found && scenario.Name != "" {
			errs = multierror.Append(errs, fmt.Errorf("scenarios[%d]: duplicated scenario name %q", i, scenario.Name))
		}

		names[scenario.Name] = struct{}{}

		for j, step := range scenario.Steps {
			if err := step.validate(); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("scenarios[%d].steps[%d]: %w", i, j, err))
			}
		}
	}

	return errs.ErrorOrNil()
}

// validate applies the rules struct tags can't express
func (s Step) validate() error {
	var errs *multierror.Error

	if s.Kind() == "" {
		errs = multierror.Append(errs, fmt.Errorf("%w: the step has no action", ErrUnknownAction))
	}

	if s.Retries != nil && (s.Retries.Count == nil) == (s.Retries.Timeout == nil) {
		errs = multierror.Append(errs, errors.New("retries must have exactly one of retriesCount and retriesTimeout"))
	}

	if s.ProbeHTTP != nil && (s.ProbeHTTP.Target.Service == nil) == (s.ProbeHTTP.Target.URL == "") {
		errs = multierror.Append(errs, errors.New("probeHTTP.target must have exactly one of service and url"))
	}

	if s.Clone != nil {
		for i, label := range s.Clone.Labels {
			if (label.Service == nil) == (label.Label == nil) {
				errs = multierror.Append(errs, fmt.Errorf("clone.labels[%d] must have exactly one of service and label", i))
			}
		}
	}

	filters := []Filter{}

	switch {
	case s.NodeAction != nil:
		filters = s.NodeAction.Filters
	case s.PodAction != nil:
		filters = s.PodAction.Filters
	}

	for i, filter := range filters {
		if filter.Kind() == "" {
			errs = multierror.Append(errs, fmt.Errorf("filters[%d]: %w: empty filter", i, ErrUnknownFilter))
		}
	}

	return errs.ErrorOrNil()
}

// Marshal renders the policy as YAML, keeping the declaration order of fields
func Marshal(p *Policy) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("error encoding policy: %w", err)
	}

	node := yamlv3.Node{}
	if err := yamlv3.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("error converting policy to yaml: %w", err)
	}

	// json strings are parsed as double quoted yaml scalars, let the encoder pick the style back
	clearStyle(&node)

	out := bytes.Buffer{}
	encoder := yamlv3.NewEncoder(&out)
	encoder.SetIndent(2)

	if err := encoder.Encode(&node); err != nil {
		return nil, fmt.Errorf("error encoding policy as yaml: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

func clearStyle(node *yamlv3.Node) {
	node.Style = 0

	for _, child := range node.Content {
		clearStyle(child)
	}
}

// Source gives the policy to run, it is read again before every pass
type Source interface {
	Read() (*Policy, error)
}

// FileSource reads the policy from a file
type FileSource struct {
	Path string
}

//nolint:golint
func (f FileSource) Read() (*Policy, error) {
	return Load(f.Path)
}

// StaticSource always returns the same policy
type StaticSource struct {
	Policy *Policy
}

//nolint:golint
func (s StaticSource) Read() (*Policy, error) {
	if s.Policy == nil {
		return nil, errors.New("no policy")
	}

	return s.Policy, nil
}
