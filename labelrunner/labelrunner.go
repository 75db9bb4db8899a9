// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package labelrunner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/scenario"
	"github.com/DataDog/chaos-seal/types"
)

// Labels read on pods
const (
	EnabledLabel         = "seal/enabled"
	DaysLabel            = "seal/days"
	StartTimeLabel       = "seal/start-time"
	EndTimeLabel         = "seal/end-time"
	KillProbabilityLabel = "seal/kill-probability"
	ForceKillLabel       = "seal/force-kill"
)

const (
	DefaultDays      = "mon,tue,wed,thu,fri"
	DefaultStartTime = "10-00-00"
	DefaultEndTime   = "17-30-00"
)

var days = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// Config is the label mode configuration
type Config struct {
	Namespace string
	MinSleep  time.Duration
	MaxSleep  time.Duration
}

// Runner kills the pods of a namespace which opted in through their labels
type Runner struct {
	cfg   Config
	deps  scenario.Deps
	sleep scenario.Sleeper
}

// New returns a label mode runner, sleeping between loops with the given sleeper
func New(cfg Config, deps scenario.Deps, sleep scenario.Sleeper) *Runner {
	if sleep == nil {
		sleep = scenario.Sleep
	}

	return &Runner{cfg: cfg, deps: deps.WithDefaults(), sleep: sleep}
}

// Run kills the eligible pods, sleeps and syncs the node inventory, until the context is done
func (r *Runner) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := r.RunOnce(ctx); err != nil {
			r.deps.Log.Errorw("error running label mode", tags.ErrorKey, err)
		}

		sleep := r.cfg.MinSleep
		if spread := r.cfg.MaxSleep - r.cfg.MinSleep; spread > 0 {
			sleep += time.Duration(r.deps.Rand.Float64() * float64(spread))
		}

		r.deps.Log.Infow("sleeping", tags.SleepKey, sleep.String())

		if err := r.sleep(ctx, sleep); err != nil {
			return nil
		}

		if err := r.deps.Nodes.Sync(ctx); err != nil {
			r.deps.Log.Warnw("error syncing the node inventory", tags.ErrorKey, err)
		}
	}

	return nil
}

// RunOnce kills the eligible pods of the namespace
func (r *Runner) RunOnce(ctx context.Context) error {
	pods, err := r.deps.Pods.FindPods(ctx, r.cfg.Namespace, "", "")
	if err != nil {
		return fmt.Errorf("error finding pods in %s: %w", r.cfg.Namespace, err)
	}

	r.deps.Log.Infow("pods found", tags.NamespaceKey, r.cfg.Namespace, tags.CountKey, len(pods))

	pods = r.Filter(pods)
	r.deps.Log.Infow("pods filtered", tags.CountKey, len(pods))

	for _, pod := range pods {
		r.kill(ctx, pod)
	}

	return nil
}

// Filter keeps the enabled pods, within their time window, passing their kill probability
func (r *Runner) Filter(pods []types.Pod) []types.Pod {
	now := r.deps.Now()
	out := []types.Pod{}

	for _, pod := range pods {
		if pod.Labels[EnabledLabel] != "true" {
			continue
		}

		if !r.inWindow(pod, now) {
			continue
		}

		probability, err := strconv.ParseFloat(labelOr(pod, KillProbabilityLabel, "1"), 64)
		if err != nil || probability < 0 || probability > 1 {
			r.deps.Log.Warnw("invalid kill probability, skipping pod", tags.PodKey, pod.String())
			continue
		}

		if probability < r.deps.Rand.Float64() {
			continue
		}

		out = append(out, pod)
	}

	return out
}

// inWindow tells whether now is one of the pod days, within [start, end)
func (r *Runner) inWindow(pod types.Pod, now time.Time) bool {
	if !r.allowedDays(labelOr(pod, DaysLabel, DefaultDays))[now.Weekday()] {
		return false
	}

	start, err := parseTime(labelOr(pod, StartTimeLabel, DefaultStartTime), now)
	if err != nil {
		r.deps.Log.Warnw("invalid start time, skipping pod", tags.PodKey, pod.String(), tags.ErrorKey, err)
		return false
	}

	end, err := parseTime(labelOr(pod, EndTimeLabel, DefaultEndTime), now)
	if err != nil {
		r.deps.Log.Warnw("invalid end time, skipping pod", tags.PodKey, pod.String(), tags.ErrorKey, err)
		return false
	}

	return !now.Before(start) && now.Before(end)
}

func (r *Runner) allowedDays(label string) map[time.Weekday]bool {
	allowed := map[time.Weekday]bool{}

	for _, name := range strings.Split(label, ",") {
		day, ok := days[name]
		if !ok {
			r.deps.Log.Warnw("invalid day label", "day", name)
			continue
		}

		allowed[day] = true
	}

	return allowed
}

func (r *Runner) kill(ctx context.Context, pod types.Pod) {
	if _, found := r.deps.Nodes.GetNodeByIP(pod.HostIP); !found {
		r.deps.Log.Infow("node not found for pod", tags.PodKey, pod.String(), tags.HostKey, pod.HostIP)
		return
	}

	signal := types.SignalFromForce(pod.Labels[ForceKillLabel] == "true")

	r.deps.Log.Infow("killing pod", tags.PodKey, pod.String(), tags.SignalKey, signal)

	if err := r.deps.Executor.KillPod(ctx, pod, r.deps.Nodes, signal); err != nil {
		r.deps.Log.Errorw("error killing pod", tags.PodKey, pod.String(), tags.ErrorKey, err)

		if err := r.deps.Metrics.MetricPodKillFailed(pod); err != nil {
			r.deps.Log.Errorw("error sending pod kill failed metric", tags.ErrorKey, err)
		}

		return
	}

	if err := r.deps.Metrics.MetricPodKilled(pod); err != nil {
		r.deps.Log.Errorw("error sending pod killed metric", tags.ErrorKey, err)
	}
}

func labelOr(pod types.Pod, key, def string) string {
	if v, ok := pod.Labels[key]; ok {
		return v
	}

	return def
}

// parseTime parses a HH-MM-SS label into that time on the day of now
func parseTime(label string, now time.Time) (time.Time, error) {
	tokens := strings.Split(label, "-")
	if len(label) != 8 || len(tokens) != 3 {
		return time.Time{}, fmt.Errorf("%q is not in the HH-MM-SS format", label)
	}

	values := [3]int{}
	limits := [3]int{23, 59, 59}

	for i, token := range tokens {
		v, err := strconv.Atoi(token)
		if len(token) != 2 || err != nil || v < 0 || v > limits[i] {
			return time.Time{}, fmt.Errorf("%q is not in the HH-MM-SS format", label)
		}

		values[i] = v
	}

	return time.Date(now.Year(), now.Month(), now.Day(), values[0], values[1], values[2], 0, now.Location()), nil
}
