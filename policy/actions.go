// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package policy

import (
	"encoding/json"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/intstr"
)

const (
	// DefaultExecuteCommand is run by execute actions without a command
	DefaultExecuteCommand = "hostname"
	// DefaultProbabilityPassAll is the probability filter pass rate when none is given
	DefaultProbabilityPassAll = 0.5
)

// NodeAction acts on the nodes selected by its matches and filters
type NodeAction struct {
	Matches []NodeMatch      `json:"matches" validate:"required,min=1,dive"`
	Filters []Filter         `json:"filters,omitempty" validate:"dive"`
	Actions []NodeActionSpec `json:"actions" validate:"required,min=1,dive"`
}

// PodAction acts on the pods selected by its matches and filters
type PodAction struct {
	Matches []PodMatch      `json:"matches" validate:"required,min=1,dive"`
	Filters []Filter        `json:"filters,omitempty" validate:"dive"`
	Actions []PodActionSpec `json:"actions" validate:"required,min=1,dive"`
}

// MatchCriterion matches items whose property matches a case-insensitive regular expression anchored at its start
type MatchCriterion struct {
	Name     string `json:"name" validate:"required"`
	Value    string `json:"value" validate:"required,regexp"`
	Negative bool   `json:"negative,omitempty"`
}

// NodeMatch selects nodes
type NodeMatch struct {
	Property *MatchCriterion `json:"property,omitempty"`
}

//nolint:golint
func (m *NodeMatch) UnmarshalJSON(data []byte) error {
	_, raw, err := decodeOneOf(data, "node match", ErrUnknownMatch, string(MatchKindProperty))
	if err != nil {
		return err
	}

	m.Property = &MatchCriterion{}

	return strictUnmarshal(raw, m.Property)
}

// DeploymentRef names a deployment
type DeploymentRef struct {
	Name      string `json:"name" validate:"required"`
	Namespace string `json:"namespace,omitempty"`
}

// LabelsMatch selects the pods of a namespace matching a label selector
type LabelsMatch struct {
	Namespace string `json:"namespace,omitempty"`
	Selector  string `json:"selector" validate:"required"`
}

// PodMatch selects pods
type PodMatch struct {
	Property   *MatchCriterion `json:"property,omitempty"`
	Namespace  *string         `json:"namespace,omitempty"`
	Deployment *DeploymentRef  `json:"deployment,omitempty"`
	Labels     *LabelsMatch    `json:"labels,omitempty"`
}

// Kind returns the kind of the criterion
func (m PodMatch) Kind() MatchKind {
	switch {
	case m.Property != nil:
		return MatchKindProperty
	case m.Namespace != nil:
		return MatchKindNamespace
	case m.Deployment != nil:
		return MatchKindDeployment
	case m.Labels != nil:
		return MatchKindLabels
	}

	return ""
}

//nolint:golint
func (m *PodMatch) UnmarshalJSON(data []byte) error {
	key, raw, err := decodeOneOf(data, "pod match", ErrUnknownMatch,
		string(MatchKindProperty), string(MatchKindNamespace), string(MatchKindDeployment), string(MatchKindLabels))
	if err != nil {
		return err
	}

	*m = PodMatch{}

	switch MatchKind(key) {
	case MatchKindProperty:
		m.Property = &MatchCriterion{}
		return strictUnmarshal(raw, m.Property)
	case MatchKindNamespace:
		m.Namespace = new(string)
		return strictUnmarshal(raw, m.Namespace)
	case MatchKindDeployment:
		m.Deployment = &DeploymentRef{}
		return strictUnmarshal(raw, m.Deployment)
	default:
		m.Labels = &LabelsMatch{}
		return strictUnmarshal(raw, m.Labels)
	}
}

// Filter narrows a set of items
type Filter struct {
	Property     *MatchCriterion `json:"property,omitempty"`
	DayTime      *DayTime        `json:"dayTime,omitempty"`
	RandomSample *RandomSample   `json:"randomSample,omitempty"`
	Probability  *Probability    `json:"probability,omitempty"`
}

// Kind returns the kind of the filter
func (f Filter) Kind() FilterKind {
	switch {
	case f.Property != nil:
		return FilterKindProperty
	case f.DayTime != nil:
		return FilterKindDayTime
	case f.RandomSample != nil:
		return FilterKindRandomSample
	case f.Probability != nil:
		return FilterKindProbability
	}

	return ""
}

//nolint:golint
func (f *Filter) UnmarshalJSON(data []byte) error {
	key, raw, err := decodeOneOf(data, "filter", ErrUnknownFilter,
		string(FilterKindProperty), string(FilterKindDayTime), string(FilterKindRandomSample), string(FilterKindProbability))
	if err != nil {
		return err
	}

	*f = Filter{}

	switch FilterKind(key) {
	case FilterKindProperty:
		f.Property = &MatchCriterion{}
		return strictUnmarshal(raw, f.Property)
	case FilterKindDayTime:
		f.DayTime = &DayTime{}
		return strictUnmarshal(raw, f.DayTime)
	case FilterKindRandomSample:
		f.RandomSample = &RandomSample{}
		return strictUnmarshal(raw, f.RandomSample)
	default:
		f.Probability = &Probability{}
		return strictUnmarshal(raw, f.Probability)
	}
}

// TimeOfDay is a wall clock time
type TimeOfDay struct {
	Hour   int `json:"hour" validate:"gte=0,lte=23"`
	Minute int `json:"minute" validate:"gte=0,lte=59"`
	Second int `json:"second" validate:"gte=0,lte=59"`
}

// On returns the time of day on the date of t, in t's location
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, t.Second, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Default dayTime window, filled in by the loader when omitted
var (
	DefaultDayTimeStart = TimeOfDay{Hour: 10}
	DefaultDayTimeEnd   = TimeOfDay{Hour: 15, Minute: 59, Second: 59}
)

// DayTime lets items through on the given days, within [StartTime, EndTime).
// An empty OnlyDays allows every day.
type DayTime struct {
	OnlyDays  []string   `json:"onlyDays,omitempty" validate:"dive,oneofci=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime *TimeOfDay `json:"startTime,omitempty"`
	EndTime   *TimeOfDay `json:"endTime,omitempty"`
}

// UnmarshalJSON fills the fields missing from startTime and endTime with the default window,
// so that {hour: 17} ends at 17:59:59
func (d *DayTime) UnmarshalJSON(data []byte) error {
	type plain DayTime

	var raw struct {
		plain
		StartTime json.RawMessage `json:"startTime,omitempty"`
		EndTime   json.RawMessage `json:"endTime,omitempty"`
	}

	if err := strictUnmarshal(data, &raw); err != nil {
		return err
	}

	*d = DayTime{OnlyDays: raw.OnlyDays}

	if raw.StartTime != nil {
		start := DefaultDayTimeStart
		if err := strictUnmarshal(raw.StartTime, &start); err != nil {
			return fmt.Errorf("startTime: %w", err)
		}

		d.StartTime = &start
	}

	if raw.EndTime != nil {
		end := DefaultDayTimeEnd
		if err := strictUnmarshal(raw.EndTime, &end); err != nil {
			return fmt.Errorf("endTime: %w", err)
		}

		d.EndTime = &end
	}

	return nil
}

// RandomSample keeps a uniform sample of Size items, or of Ratio times the number of items
type RandomSample struct {
	Size  *int     `json:"size,omitempty" validate:"omitempty,gte=0"`
	Ratio *float64 `json:"ratio,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Probability lets all items through with the given probability, none otherwise
type Probability struct {
	ProbabilityPassAll *float64 `json:"probabilityPassAll,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// PassAll returns the configured probability, or its default
func (p Probability) PassAll() float64 {
	return floatOr(p.ProbabilityPassAll, DefaultProbabilityPassAll)
}

// Start starts nodes
type Start struct{}

// Stop stops nodes, restarting them on cleanup unless AutoRestart is false
type Stop struct {
	AutoRestart *bool `json:"autoRestart,omitempty"`
	Force       bool  `json:"force,omitempty"`
}

// ShouldAutoRestart defaults to true
func (s Stop) ShouldAutoRestart() bool {
	return boolOr(s.AutoRestart, true)
}

// Wait sleeps once
type Wait struct {
	Seconds float64 `json:"seconds" validate:"gte=0"`
}

// Duration returns the time to wait
func (w Wait) Duration() time.Duration {
	return Seconds(w.Seconds)
}

// Execute runs a command on nodes
type Execute struct {
	Cmd string `json:"cmd,omitempty"`
}

// Command defaults to hostname
func (e Execute) Command() string {
	if e.Cmd == "" {
		return DefaultExecuteCommand
	}

	return e.Cmd
}

// NodeActionSpec is one of the node actions
type NodeActionSpec struct {
	Start   *Start   `json:"start,omitempty"`
	Stop    *Stop    `json:"stop,omitempty"`
	Wait    *Wait    `json:"wait,omitempty"`
	Execute *Execute `json:"execute,omitempty"`
}

// Kind returns the kind of the action
func (a NodeActionSpec) Kind() ActionKind {
	switch {
	case a.Start != nil:
		return ActionKindStart
	case a.Stop != nil:
		return ActionKindStop
	case a.Wait != nil:
		return ActionKindWait
	case a.Execute != nil:
		return ActionKindExecute
	}

	return ""
}

//nolint:golint
func (a *NodeActionSpec) UnmarshalJSON(data []byte) error {
	key, raw, err := decodeOneOf(data, "node action", ErrUnknownAction, actionKindNames(NodeActionKinds)...)
	if err != nil {
		return err
	}

	*a = NodeActionSpec{}

	switch ActionKind(key) {
	case ActionKindStart:
		a.Start = &Start{}
		return strictUnmarshal(raw, a.Start)
	case ActionKindStop:
		a.Stop = &Stop{}
		return strictUnmarshal(raw, a.Stop)
	case ActionKindWait:
		a.Wait = &Wait{}
		return strictUnmarshal(raw, a.Wait)
	default:
		a.Execute = &Execute{}
		return strictUnmarshal(raw, a.Execute)
	}
}

// Kill kills pods, each one with the given probability
type Kill struct {
	Probability *float64 `json:"probability,omitempty" validate:"omitempty,gte=0,lte=1"`
	Force       *bool    `json:"force,omitempty"`
}

// KillProbability defaults to 1
func (k Kill) KillProbability() float64 {
	return floatOr(k.Probability, 1)
}

// IsForced defaults to true
func (k Kill) IsForced() bool {
	return boolOr(k.Force, true)
}

// CheckPodCount passes when exactly Count pods are selected
type CheckPodCount struct {
	Count int `json:"count" validate:"gte=0"`
}

// CheckPodState passes when the state of every selected pod matches State
type CheckPodState struct {
	State string `json:"state" validate:"required,regexp"`
}

// StopHost stops the nodes hosting the selected pods
type StopHost struct {
	AutoRestart *bool `json:"autoRestart,omitempty"`
}

// ShouldAutoRestart defaults to true
func (s StopHost) ShouldAutoRestart() bool {
	return boolOr(s.AutoRestart, true)
}

// PodActionSpec is one of the pod actions
type PodActionSpec struct {
	Kill          *Kill          `json:"kill,omitempty"`
	Wait          *Wait          `json:"wait,omitempty"`
	CheckPodCount *CheckPodCount `json:"checkPodCount,omitempty"`
	CheckPodState *CheckPodState `json:"checkPodState,omitempty"`
	StopHost      *StopHost      `json:"stopHost,omitempty"`
}

// Kind returns the kind of the action
func (a PodActionSpec) Kind() ActionKind {
	switch {
	case a.Kill != nil:
		return ActionKindKill
	case a.Wait != nil:
		return ActionKindWait
	case a.CheckPodCount != nil:
		return ActionKindCheckPodCount
	case a.CheckPodState != nil:
		return ActionKindCheckPodState
	case a.StopHost != nil:
		return ActionKindStopHost
	}

	return ""
}

//nolint:golint
func (a *PodActionSpec) UnmarshalJSON(data []byte) error {
	key, raw, err := decodeOneOf(data, "pod action", ErrUnknownAction, actionKindNames(PodActionKinds)...)
	if err != nil {
		return err
	}

	*a = PodActionSpec{}

	switch ActionKind(key) {
	case ActionKindKill:
		a.Kill = &Kill{}
		return strictUnmarshal(raw, a.Kill)
	case ActionKindWait:
		a.Wait = &Wait{}
		return strictUnmarshal(raw, a.Wait)
	case ActionKindCheckPodCount:
		a.CheckPodCount = &CheckPodCount{}
		return strictUnmarshal(raw, a.CheckPodCount)
	case ActionKindCheckPodState:
		a.CheckPodState = &CheckPodState{}
		return strictUnmarshal(raw, a.CheckPodState)
	default:
		a.StopHost = &StopHost{}
		return strictUnmarshal(raw, a.StopHost)
	}
}

// KubectlAction is the kubectl verb applied to a payload
type KubectlAction string

const (
	KubectlApply  KubectlAction = "apply"
	KubectlDelete KubectlAction = "delete"
)

// Kubectl applies or deletes a manifest.
// An applied manifest is deleted on cleanup unless AutoDelete is false.
type Kubectl struct {
	Action     KubectlAction `json:"action" validate:"required,oneof=apply delete"`
	Payload    string        `json:"payload" validate:"required"`
	AutoDelete *bool         `json:"autoDelete,omitempty"`
}

// ShouldAutoDelete defaults to true
func (k Kubectl) ShouldAutoDelete() bool {
	return boolOr(k.AutoDelete, true)
}

// Header is an HTTP header sent by a probe
type Header struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// ProbeService is a service probed through its cluster IP
type ProbeService struct {
	Name      string `json:"name" validate:"required"`
	Namespace string `json:"namespace,omitempty"`
	Port      int    `json:"port,omitempty" validate:"omitempty,gte=1,lte=65535"`
	Protocol  string `json:"protocol,omitempty" validate:"omitempty,oneof=http https"`
}

// ProbeTarget is one of a service or a url
type ProbeTarget struct {
	Service *ProbeService `json:"service,omitempty"`
	URL     string        `json:"url,omitempty" validate:"omitempty,url"`
}

// ProbeHTTP sends Count requests to a target, each of them being allowed Retries attempts.
// Timeout and Delay are in milliseconds.
type ProbeHTTP struct {
	Target   ProbeTarget `json:"target"`
	Endpoint string      `json:"endpoint,omitempty"`
	Headers  []Header    `json:"headers,omitempty" validate:"dive"`
	Method   string      `json:"method,omitempty" validate:"omitempty,oneofci=get post put patch delete head options"`
	Body     string      `json:"body,omitempty"`
	Timeout  *int        `json:"timeout,omitempty" validate:"omitempty,gte=1"`
	Code     int         `json:"code,omitempty" validate:"omitempty,gte=100,lte=599"`
	Proxy    string      `json:"proxy,omitempty" validate:"omitempty,url"`
	Insecure bool        `json:"insecure,omitempty"`
	Count    *int        `json:"count,omitempty" validate:"omitempty,gte=1"`
	Retries  *int        `json:"retries,omitempty" validate:"omitempty,gte=1"`
	Delay    *int        `json:"delay,omitempty" validate:"omitempty,gte=0"`
}

// Defaults of the probe settings
const (
	DefaultProbePort     = 80
	DefaultProbeProtocol = "http"
	DefaultProbeMethod   = "get"
	DefaultProbeTimeout  = 1000
	DefaultProbeCode     = 200
	DefaultProbeDelay    = 100
)

// RequestTimeout returns the timeout of a single request
func (p ProbeHTTP) RequestTimeout() time.Duration {
	return time.Duration(intOr(p.Timeout, DefaultProbeTimeout)) * time.Millisecond
}

// RetryDelay returns the time between two attempts
func (p ProbeHTTP) RetryDelay() time.Duration {
	return time.Duration(intOr(p.Delay, DefaultProbeDelay)) * time.Millisecond
}

// Attempts returns the number of attempts allowed per request
func (p ProbeHTTP) Attempts() int {
	return intOr(p.Retries, 1)
}

// Requests returns the number of requests to send
func (p ProbeHTTP) Requests() int {
	return intOr(p.Count, 1)
}

// ExpectedCode defaults to 200
func (p ProbeHTTP) ExpectedCode() int {
	if p.Code == 0 {
		return DefaultProbeCode
	}

	return p.Code
}

// HTTPMethod defaults to get
func (p ProbeHTTP) HTTPMethod() string {
	if p.Method == "" {
		return DefaultProbeMethod
	}

	return p.Method
}

// ServiceRef names a service
type ServiceRef struct {
	Name      string `json:"name" validate:"required"`
	Namespace string `json:"namespace,omitempty"`
}

// CloneSource is the object a clone is made from, only deployments being supported
type CloneSource struct {
	Deployment *DeploymentRef `json:"deployment" validate:"required"`
}

// LabelKV is a static label
type LabelKV struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// CloneLabel alters the labels of the clone: a service replaces them with its selector, a label adds one
type CloneLabel struct {
	Service *ServiceRef `json:"service,omitempty"`
	Label   *LabelKV    `json:"label,omitempty"`
}

// EnvVar is added to every container of the clone
type EnvVar struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// TrafficControl runs a NET_ADMIN container altering the clone networking.
// A zero Delay makes it an init container, a sidecar otherwise.
type TrafficControl struct {
	Command []string `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Image   string   `json:"image,omitempty"`
	User    *int64   `json:"user,omitempty"`
	Delay   int      `json:"delay,omitempty"`
}

// ToxiProxy is a proxy declared in a toxiproxy sidecar
type ToxiProxy struct {
	Name     string `json:"name" validate:"required"`
	Listen   string `json:"listen" validate:"required"`
	Upstream string `json:"upstream" validate:"required"`
}

// ToxicAttribute is a toxic setting
type ToxicAttribute struct {
	Name  string             `json:"name" validate:"required"`
	Value intstr.IntOrString `json:"value"`
}

// Toxic alters the traffic going through a proxy. A numeric TargetProxy names the proxy generated for that port.
type Toxic struct {
	TargetProxy     intstr.IntOrString `json:"targetProxy"`
	ToxicType       string             `json:"toxicType" validate:"required"`
	ToxicAttributes []ToxicAttribute   `json:"toxicAttributes,omitempty" validate:"dive"`
}

// Toxiproxy puts a toxiproxy sidecar in front of the clone ports
type Toxiproxy struct {
	Proxies        []ToxiProxy `json:"proxies,omitempty" validate:"dive"`
	Toxics         []Toxic     `json:"toxics,omitempty" validate:"dive"`
	ToxiproxyCli   string      `json:"toxiproxyCli,omitempty"`
	ImageToxiproxy string      `json:"imageToxiproxy,omitempty"`
	ImageIptables  string      `json:"imageIptables,omitempty"`
	User           *int64      `json:"user,omitempty"`
}

// Mutation alters the pod template of the clone
type Mutation struct {
	Environment *EnvVar         `json:"environment,omitempty"`
	TC          *TrafficControl `json:"tc,omitempty"`
	Toxiproxy   *Toxiproxy      `json:"toxiproxy,omitempty"`
}

// RetargetService makes a service route to the clone
type RetargetService struct {
	Service *ServiceRef `json:"service" validate:"required"`
}

// Clone creates a mutated copy of a deployment, deleted on cleanup
type Clone struct {
	Source             CloneSource       `json:"source"`
	Replicas           *int32            `json:"replicas,omitempty" validate:"omitempty,gte=0"`
	Labels             []CloneLabel      `json:"labels,omitempty" validate:"dive"`
	Mutations          []Mutation        `json:"mutations,omitempty" validate:"dive"`
	ServicesToRetarget []RetargetService `json:"servicesToRetarget,omitempty" validate:"dive"`
}

// ReplicaCount defaults to 1
func (c Clone) ReplicaCount() int32 {
	if c.Replicas == nil {
		return 1
	}

	return *c.Replicas
}

// AlertmanagerTarget is an alertmanager API base url
type AlertmanagerTarget struct {
	URL string `json:"url" validate:"required,url"`
}

// Proxies used to reach alertmanager
type Proxies struct {
	HTTP  string `json:"http,omitempty"`
	HTTPS string `json:"https,omitempty"`
}

// Mute silences every alert, unmuting them on cleanup unless AutoUnmute is false
type Mute struct {
	AutoUnmute *bool `json:"autoUnmute,omitempty"`
}

// ShouldAutoUnmute defaults to true
func (m Mute) ShouldAutoUnmute() bool {
	return boolOr(m.AutoUnmute, true)
}

// AlertmanagerActionSpec is one of the alertmanager actions
type AlertmanagerActionSpec struct {
	Mute *Mute `json:"mute,omitempty"`
}

//nolint:golint
func (a *AlertmanagerActionSpec) UnmarshalJSON(data []byte) error {
	_, raw, err := decodeOneOf(data, "alertmanager action", ErrUnknownAction, string(ActionKindMute))
	if err != nil {
		return err
	}

	a.Mute = &Mute{}

	return strictUnmarshal(raw, a.Mute)
}

// Alertmanager silences alerts while a scenario runs
type Alertmanager struct {
	Targets []AlertmanagerTarget     `json:"targets" validate:"required,min=1,dive"`
	Proxies Proxies                  `json:"proxies,omitempty"`
	Actions []AlertmanagerActionSpec `json:"actions" validate:"required,min=1,dive"`
}
