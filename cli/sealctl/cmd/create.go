// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/DataDog/chaos-seal/policy"
)

const (
	targetPods  = "pods"
	targetNodes = "nodes"

	nodeActionStop    = "stop"
	nodeActionExecute = "execute"
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "create a policy.",
	Long:  `creates a single scenario policy given input from the user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), intro)

		p, err := newPolicy(promptAnswers())
		if err != nil {
			return fmt.Errorf("there were some problems when validating your policy: %w", err)
		}

		y, err := policy.Marshal(p)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("path")
		if err := os.WriteFile(path, y, 0644); err != nil { // #nosec
			return fmt.Errorf("writeFile err: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "We wrote your policy to %s, run it with: sealctl run --path %s\n", path, path)

		return nil
	},
}

const intro = `Hello! This tool will walk you through creating a policy. Please reply to the prompts, and use Ctrl+C to end.
The generated policy holds a single scenario, edit it to add more steps.`

func init() {
	createCmd.Flags().String("path", "policy.yaml", "The file to write the new policy to.")

	if err := createCmd.MarkFlagRequired("path"); err != nil {
		return
	}
}

// answers are the replies given to the create prompts
type answers struct {
	Name        string
	Description string
	Target      string
	// pods
	MatchKind  policy.MatchKind
	Namespace  string
	Selector   string
	Deployment string
	// nodes
	Group       string
	NodeAction  string
	Command     string
	AutoRestart bool
	// common
	Probability float64
	Force       bool
	OfficeHours bool
	SampleSize  int
	WaitSeconds float64
	Runs        int
}

// newPolicy builds and validates a policy from the answers
func newPolicy(a answers) (*policy.Policy, error) {
	filters := []policy.Filter{}

	if a.OfficeHours {
		filters = append(filters, policy.Filter{DayTime: &policy.DayTime{OnlyDays: append([]string{}, weekdays...)}})
	}

	if a.SampleSize > 0 {
		filters = append(filters, policy.Filter{RandomSample: &policy.RandomSample{Size: policy.Int(a.SampleSize)}})
	}

	step := policy.Step{}

	switch a.Target {
	case targetPods:
		match, err := podMatch(a)
		if err != nil {
			return nil, err
		}

		actions := []policy.PodActionSpec{{Kill: &policy.Kill{Probability: policy.Float(a.Probability), Force: policy.Bool(a.Force)}}}
		if a.WaitSeconds > 0 {
			actions = append(actions, policy.PodActionSpec{Wait: &policy.Wait{Seconds: a.WaitSeconds}})
		}

		step.PodAction = &policy.PodAction{Matches: []policy.PodMatch{match}, Filters: filters, Actions: actions}
	case targetNodes:
		if a.Probability < 1 {
			filters = append(filters, policy.Filter{Probability: &policy.Probability{ProbabilityPassAll: policy.Float(a.Probability)}})
		}

		actions := []policy.NodeActionSpec{}

		switch a.NodeAction {
		case nodeActionStop:
			actions = append(actions, policy.NodeActionSpec{Stop: &policy.Stop{AutoRestart: policy.Bool(a.AutoRestart), Force: a.Force}})
		case nodeActionExecute:
			actions = append(actions, policy.NodeActionSpec{Execute: &policy.Execute{Cmd: a.Command}})
		default:
			return nil, fmt.Errorf("%w %q", policy.ErrUnknownAction, a.NodeAction)
		}

		if a.WaitSeconds > 0 {
			actions = append(actions, policy.NodeActionSpec{Wait: &policy.Wait{Seconds: a.WaitSeconds}})
		}

		step.NodeAction = &policy.NodeAction{
			Matches: []policy.NodeMatch{{Property: &policy.MatchCriterion{Name: "group", Value: a.Group}}},
			Filters: filters,
			Actions: actions,
		}
	default:
		return nil, fmt.Errorf("unknown target %q", a.Target)
	}

	p := &policy.Policy{
		Scenarios: []policy.Scenario{{Name: a.Name, Description: a.Description, Steps: []policy.Step{step}}},
	}

	if a.Runs > 0 {
		p.Config.RunStrategy.Runs = policy.Int(a.Runs)
	}

	p.SetDefaults()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

func podMatch(a answers) (policy.PodMatch, error) {
	switch a.MatchKind {
	case policy.MatchKindNamespace:
		namespace := a.Namespace
		return policy.PodMatch{Namespace: &namespace}, nil
	case policy.MatchKindLabels:
		return policy.PodMatch{Labels: &policy.LabelsMatch{Namespace: a.Namespace, Selector: a.Selector}}, nil
	case policy.MatchKindDeployment:
		return policy.PodMatch{Deployment: &policy.DeploymentRef{Name: a.Deployment, Namespace: a.Namespace}}, nil
	default:
		return policy.PodMatch{}, fmt.Errorf("%w %q", policy.ErrUnknownMatch, a.MatchKind)
	}
}

func promptAnswers() answers {
	a := answers{}

	a.Name = getInput("What is the name of this scenario?", "It identifies the scenario in logs, metrics and the run history.", survey.WithValidator(survey.Required))
	a.Description = getInput("Describe what this scenario checks (or leave blank).", "")
	a.Target, _ = selectInput("Would you like to disrupt pods or nodes?", []string{targetPods, targetNodes},
		"Pods are killed through the executor, nodes are stopped through the cloud driver or run a command.")

	if a.Target == targetPods {
		kind, _ := selectInput("How should the pods be selected?",
			[]string{string(policy.MatchKindNamespace), string(policy.MatchKindLabels), string(policy.MatchKindDeployment)},
			"namespace selects every pod of a namespace, labels uses a label selector, deployment the pods of a deployment.")
		a.MatchKind = policy.MatchKind(kind)
		a.Namespace = getInput("Which namespace are the pods in?", "* selects every namespace", survey.WithValidator(survey.Required))

		switch a.MatchKind {
		case policy.MatchKindLabels:
			a.Selector = getInput("What label selector should the pods match?", "e.g. app=nginx,tier!=db",
				survey.WithValidator(survey.Required), survey.WithValidator(selectorValidator))
		case policy.MatchKindDeployment:
			a.Deployment = getInput("What is the name of the deployment?", "", survey.WithValidator(survey.Required))
		}

		a.Probability = getFloat("With what probability should each pod be killed?", "between 0 and 1")
		a.Force = confirmOption("Should the pods be killed forcefully (SIGKILL)?", "Otherwise they receive a SIGTERM.")
	} else {
		a.Group = getInput("Which node group should be targeted?", "A regular expression matched against the group names.", survey.WithValidator(survey.Required))
		a.NodeAction, _ = selectInput("What should be done to the nodes?", []string{nodeActionStop, nodeActionExecute}, "")

		if a.NodeAction == nodeActionStop {
			a.AutoRestart = confirmOption("Should the nodes be restarted once the scenario is done?", "")
			a.Force = confirmOption("Should the nodes be stopped forcefully?", "")
		} else {
			a.Command = getInput("What command should be run?", "defaults to "+policy.DefaultExecuteCommand)
		}

		a.Probability = getFloat("With what probability should the nodes be disrupted?", "between 0 and 1, all of them or none")
	}

	a.OfficeHours = confirmOption("Should the scenario only disrupt during office hours?", "Monday to Friday, during the default time window.")
	a.SampleSize, _ = strconv.Atoi(getInput("How many items should be disrupted at most? (or leave blank for all)", "", survey.WithValidator(integerValidator)))
	a.WaitSeconds, _ = strconv.ParseFloat(getInput("How many seconds should be waited after the disruption? (or leave blank)", "", survey.WithValidator(floatValidator)), 64)
	a.Runs, _ = strconv.Atoi(getInput("How many scenarios should a run execute? (or leave blank for no limit)", "", survey.WithValidator(integerValidator)))

	return a
}

func confirmOption(query string, helpText string) bool {
	var result bool

	prompt := &survey.Confirm{
		Message: query,
		Help:    helpText,
	}

	err := survey.AskOne(prompt, &result)

	if errors.Is(err, terminal.InterruptErr) {
		os.Exit(1)
	} else if err != nil {
		fmt.Printf("confirmOption failed: %v", err)
	}

	return result
}

func getInput(query string, helpText string, opts ...survey.AskOpt) string {
	var result string

	prompt := &survey.Input{
		Message: query,
		Help:    helpText,
	}
	err := survey.AskOne(prompt, &result, opts...)

	if errors.Is(err, terminal.InterruptErr) {
		os.Exit(1)
	} else if err != nil {
		fmt.Printf("getInput failed: %v", err)
	}

	return result
}

func getFloat(query string, helpText string) float64 {
	value, _ := strconv.ParseFloat(getInput(query, helpText, survey.WithValidator(survey.Required), survey.WithValidator(probabilityValidator)), 64)

	return value
}

func selectInput(query string, inputs []string, helpText string) (string, error) {
	var result string

	prompt := &survey.Select{
		Message: query,
		Options: inputs,
		Help:    helpText,
	}

	err := survey.AskOne(prompt, &result)

	if errors.Is(err, terminal.InterruptErr) {
		os.Exit(1)
	}

	return result, err
}

func stringAnswer(val interface{}) (string, error) {
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("expected a string response, rather than type %v", reflect.TypeOf(val).Name())
	}

	return str, nil
}

func probabilityValidator(val interface{}) error {
	str, err := stringAnswer(val)
	if err != nil {
		return err
	}

	value, err := strconv.ParseFloat(str, 64)
	if err != nil || value < 0 || value > 1 {
		return fmt.Errorf("input must be a probability, between 0 and 1: got %s", str)
	}

	return nil
}

func floatValidator(val interface{}) error {
	str, err := stringAnswer(val)
	if err != nil || str == "" {
		return err
	}

	if value, err := strconv.ParseFloat(str, 64); err != nil || value < 0 {
		return fmt.Errorf("this value must be a positive number: got %s", str)
	}

	return nil
}

func integerValidator(val interface{}) error {
	str, err := stringAnswer(val)
	if err != nil || str == "" {
		return err
	}

	if value, err := strconv.Atoi(str); err != nil || value < 0 {
		return fmt.Errorf("this value must be a positive integer: got %s", str)
	}

	return nil
}

func selectorValidator(val interface{}) error {
	str, err := stringAnswer(val)
	if err != nil {
		return err
	}

	if _, err := labels.Parse(str); err != nil {
		return fmt.Errorf("invalid label selector: %w", err)
	}

	return nil
}
