// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"strings"
	"time"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/types"
)

// FilterItems removes the engine's own node or pod from the items, then applies the filters in order.
// It stops as soon as no item is left.
func FilterItems[T types.Target](deps Deps, filters []policy.Filter, items []T) []T {
	deps = deps.WithDefaults()
	items = dontSelfDestruct(deps, items)

	for _, filter := range filters {
		before := len(items)

		switch filter.Kind() {
		case policy.FilterKindProperty:
			items = keepMatching(items, filter.Property)
		case policy.FilterKindDayTime:
			items = filterDayTime(deps, filter.DayTime, items)
		case policy.FilterKindRandomSample:
			items = filterRandomSample(deps, filter.RandomSample, items)
		case policy.FilterKindProbability:
			items = filterProbability(deps, filter.Probability, items)
		default:
			deps.Log.Warnw("skipping empty filter")
		}

		deps.Log.Debugw("filter applied", tags.FilterKey, filter.Kind(), "before", before, "after", len(items))

		if len(items) == 0 {
			deps.Log.Infow("no item left after filter", tags.FilterKey, filter.Kind())

			break
		}
	}

	if len(items) == 0 {
		if err := deps.Metrics.MetricEmptyFilter(); err != nil {
			deps.Log.Errorw("error sending empty filter metric", tags.ErrorKey, err)
		}
	}

	return items
}

// dontSelfDestruct drops the items whose ip or external ip is the engine host IP, or whose name is the engine pod name
func dontSelfDestruct[T types.Target](deps Deps, items []T) []T {
	hostIP := deps.Getenv(types.HostIPEnv)

	podName := deps.Getenv(types.PodNameEnv)
	if podName == "" {
		podName = deps.Getenv(types.HostnameEnv)
	}

	identity := map[string]string{
		"ip":    hostIP,
		"extIp": hostIP,
		"name":  podName,
	}

	out := make([]T, 0, len(items))

	for _, item := range items {
		if isSelf(item, identity) {
			deps.Log.Warnw("self-destruction prevention, filtering out item", tags.TargetKey, item)
			continue
		}

		out = append(out, item)
	}

	return out
}

func isSelf(item types.Target, identity map[string]string) bool {
	for property, expected := range identity {
		if expected == "" {
			continue
		}

		values, ok := item.Property(property)
		if !ok {
			continue
		}

		for _, v := range values {
			if v == expected {
				return true
			}
		}
	}

	return false
}

// filterDayTime keeps every item when now is an allowed day within [start, end), none otherwise
func filterDayTime[T types.Target](deps Deps, criterion *policy.DayTime, items []T) []T {
	now := deps.Now()

	if len(criterion.OnlyDays) > 0 {
		today := strings.ToLower(now.Weekday().String())
		allowed := false

		for _, day := range criterion.OnlyDays {
			if strings.EqualFold(day, today) {
				allowed = true
				break
			}
		}

		if !allowed {
			deps.Log.Infow("not allowed today", "day", today)
			return []T{}
		}
	}

	start, end := policy.DefaultDayTimeStart, policy.DefaultDayTimeEnd
	if criterion.StartTime != nil {
		start = *criterion.StartTime
	}

	if criterion.EndTime != nil {
		end = *criterion.EndTime
	}

	if now.Before(start.On(now)) {
		deps.Log.Infow("too early", "start", start.String(), "now", now.Format(time.TimeOnly))
		return []T{}
	}

	if !now.Before(end.On(now)) {
		deps.Log.Infow("too late", "end", end.String(), "now", now.Format(time.TimeOnly))
		return []T{}
	}

	return items
}

// filterRandomSample keeps a uniform sample of the items, without replacement
func filterRandomSample[T types.Target](deps Deps, criterion *policy.RandomSample, items []T) []T {
	if criterion == nil || (criterion.Size == nil && criterion.Ratio == nil) {
		return []T{}
	}

	var size int

	if criterion.Size != nil {
		size = *criterion.Size
	} else {
		size = int(float64(len(items)) * *criterion.Ratio)
	}

	if size <= 0 {
		return []T{}
	}

	if size >= len(items) {
		return items
	}

	out := make([]T, 0, size)
	for _, i := range deps.Rand.Perm(len(items))[:size] {
		out = append(out, items[i])
	}

	return out
}

// filterProbability keeps every item with the given probability, none otherwise
func filterProbability[T types.Target](deps Deps, criterion *policy.Probability, items []T) []T {
	if deps.Rand.Float64() > criterion.PassAll() {
		if err := deps.Metrics.MetricProbabilityFilterNoPass(); err != nil {
			deps.Log.Errorw("error sending probability filter metric", tags.ErrorKey, err)
		}

		return []T{}
	}

	return items
}
