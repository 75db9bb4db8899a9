// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-multierror"

	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/types"
)

// MatchProperty tells whether the target's property matches the criterion.
// The value is a case-insensitive regular expression anchored at the start of the property.
// A list property matches when any element does, or when none does for a negative criterion.
// A missing criterion or property never matches.
func MatchProperty(target types.Target, criterion *policy.MatchCriterion) bool {
	if criterion == nil {
		return false
	}

	values, ok := target.Property(criterion.Name)
	if !ok {
		return false
	}

	expr, err := regexp.Compile("^(?i:" + criterion.Value + ")")
	if err != nil {
		return false
	}

	for _, v := range values {
		if expr.MatchString(v) {
			return !criterion.Negative
		}
	}

	return criterion.Negative
}

// union concatenates the given sets, dropping the items already seen
func union[T types.Target](sets ...[]T) []T {
	seen := map[string]struct{}{}
	out := []T{}

	for _, set := range sets {
		for _, item := range set {
			if _, found := seen[item.Key()]; found {
				continue
			}

			seen[item.Key()] = struct{}{}
			out = append(out, item)
		}
	}

	return out
}

// MatchNodes syncs the node inventory and returns the union of the nodes matching any criterion
func MatchNodes(ctx context.Context, deps Deps, criteria []policy.NodeMatch) []types.Node {
	deps = deps.WithDefaults()

	if err := deps.Nodes.Sync(ctx); err != nil {
		deps.Log.Warnw("error syncing the node inventory, matching on the last known nodes", tags.ErrorKey, err)
	}

	nodes := deps.Nodes.FindNodes("all")
	sets := make([][]types.Node, 0, len(criteria))

	for _, criterion := range criteria {
		matched := []types.Node{}

		for _, node := range nodes {
			if MatchProperty(node, criterion.Property) {
				matched = append(matched, node)
			}
		}

		deps.Log.Debugw("matched nodes", tags.CriterionKey, criterion.Property, tags.CountKey, len(matched))

		sets = append(sets, matched)
	}

	out := union(sets...)
	if len(out) == 0 {
		emptyMatch(deps, types.ResourceKindNodes)
	}

	return out
}

// MatchPods returns the union of the pods matching any criterion.
// A property criterion applies to the pods of every namespace.
func MatchPods(ctx context.Context, deps Deps, criteria []policy.PodMatch) ([]types.Pod, error) {
	deps = deps.WithDefaults()

	var errs *multierror.Error

	sets := make([][]types.Pod, 0, len(criteria))

	for _, criterion := range criteria {
		var (
			pods []types.Pod
			err  error
		)

		switch criterion.Kind() {
		case policy.MatchKindProperty:
			pods, err = deps.Pods.FindPods(ctx, inventory.AllNamespaces, "", "")
			pods = keepMatching(pods, criterion.Property)
		case policy.MatchKindNamespace:
			pods, err = deps.Pods.FindPods(ctx, *criterion.Namespace, "", "")
		case policy.MatchKindDeployment:
			pods, err = deps.Pods.FindPods(ctx, criterion.Deployment.Namespace, "", criterion.Deployment.Name)
		case policy.MatchKindLabels:
			pods, err = deps.Pods.FindPods(ctx, criterion.Labels.Namespace, criterion.Labels.Selector, "")
		default:
			err = fmt.Errorf("%w: empty pod match", policy.ErrUnknownMatch)
		}

		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("error matching pods by %s: %w", criterion.Kind(), err))
			continue
		}

		deps.Log.Debugw("matched pods", tags.CriterionKey, criterion.Kind(), tags.CountKey, len(pods))

		sets = append(sets, pods)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	out := union(sets...)
	if len(out) == 0 {
		emptyMatch(deps, types.ResourceKindPods)
	}

	return out, nil
}

func keepMatching[T types.Target](items []T, criterion *policy.MatchCriterion) []T {
	out := []T{}

	for _, item := range items {
		if MatchProperty(item, criterion) {
			out = append(out, item)
		}
	}

	return out
}

func emptyMatch(deps Deps, source types.ResourceKind) {
	deps.Log.Infow("no item matched", tags.SourceKey, source)

	if err := deps.Metrics.MetricEmptyMatch(source); err != nil {
		deps.Log.Errorw("error sending empty match metric", tags.ErrorKey, err)
	}
}
