// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
	"k8s.io/client-go/kubernetes"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/types"
)

// DefaultNamespaceCacheTTL is how long listed namespaces are reused
const DefaultNamespaceCacheTTL = 10 * time.Second

// K8sInventory reads workloads from the cluster API
type K8sInventory struct {
	client     kubernetes.Interface
	groupLabel string
	cacheTTL   time.Duration
	log        *zap.SugaredLogger
	now        func() time.Time

	mu              sync.Mutex
	namespaces      []string
	namespacesSince time.Time
}

// NewK8sInventory returns an inventory backed by the given client.
// Node groups are built from the values of groupLabel, or of every node label when empty.
func NewK8sInventory(client kubernetes.Interface, groupLabel string, cacheTTL time.Duration, log *zap.SugaredLogger) *K8sInventory {
	if cacheTTL <= 0 {
		cacheTTL = DefaultNamespaceCacheTTL
	}

	return &K8sInventory{
		client:     client,
		groupLabel: groupLabel,
		cacheTTL:   cacheTTL,
		log:        log,
		now:        time.Now,
	}
}

// Client returns the underlying client
func (k *K8sInventory) Client() kubernetes.Interface {
	return k.client
}

// MakeSelector builds a selector out of a label map, a value prefixed with "!" meaning "not equal"
func MakeSelector(set map[string]string) (labels.Selector, error) {
	selector := labels.NewSelector()

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, key := range keys {
		op, value := selection.Equals, set[key]

		if strings.HasPrefix(value, "!") {
			op, value = selection.NotEquals, strings.TrimPrefix(value, "!")
		}

		req, err := labels.NewRequirement(key, op, []string{value})
		if err != nil {
			return nil, fmt.Errorf("invalid selector %s=%s: %w", key, set[key], err)
		}

		selector = selector.Add(*req)
	}

	return selector, nil
}

func resolveNamespace(namespace string) string {
	switch namespace {
	case "":
		return DefaultNamespace
	case AllNamespaces:
		return metav1.NamespaceAll
	default:
		return namespace
	}
}

// FindPods implements Pods. When a deployment is given, the selector is replaced by the deployment's matchLabels
func (k *K8sInventory) FindPods(ctx context.Context, namespace, selector, deployment string) ([]types.Pod, error) {
	ns := resolveNamespace(namespace)

	if selector != "" {
		if _, err := labels.Parse(selector); err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
		}
	}

	if deployment != "" {
		d, err := k.client.AppsV1().Deployments(ns).Get(ctx, deployment, metav1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("unable to get deployment %s/%s: %w", ns, deployment, err)
		}

		if d.Spec.Selector == nil {
			return nil, fmt.Errorf("deployment %s/%s has no selector", ns, deployment)
		}

		sel, err := MakeSelector(d.Spec.Selector.MatchLabels)
		if err != nil {
			return nil, err
		}

		selector = sel.String()
	}

	list, err := k.client.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("unable to list pods in namespace %q: %w", ns, err)
	}

	pods := make([]types.Pod, 0, len(list.Items))
	for idx, item := range list.Items {
		pods = append(pods, toPod(idx, item))
	}

	k.log.Debugw("pods listed", tags.NamespaceKey, ns, "selector", selector, tags.CountKey, len(pods))

	return pods, nil
}

func toPod(num int, item corev1.Pod) types.Pod {
	pod := types.Pod{
		Name:        item.Name,
		Namespace:   item.Namespace,
		Num:         num,
		UID:         string(item.UID),
		HostIP:      item.Status.HostIP,
		IP:          item.Status.PodIP,
		State:       string(item.Status.Phase),
		Labels:      item.Labels,
		Annotations: item.Annotations,
	}

	if item.Status.Reason != "" {
		pod.State = item.Status.Reason
	}

	for _, status := range item.Status.ContainerStatuses {
		if status.ContainerID != "" {
			pod.ContainerIDs = append(pod.ContainerIDs, status.ContainerID)
		}

		pod.ContainerNames = append(pod.ContainerNames, status.Name)
		pod.RestartCount += int(status.RestartCount)
	}

	return pod
}

// FindNamespaces implements Pods, results being cached for the configured TTL
func (k *K8sInventory) FindNamespaces(ctx context.Context) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.namespaces != nil && k.now().Sub(k.namespacesSince) <= k.cacheTTL {
		return append([]string{}, k.namespaces...), nil
	}

	list, err := k.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("unable to list namespaces: %w", err)
	}

	namespaces := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		namespaces = append(namespaces, ns.Name)
	}

	k.namespaces = namespaces
	k.namespacesSince = k.now()

	return append([]string{}, namespaces...), nil
}

// FindDeployments implements Pods
func (k *K8sInventory) FindDeployments(ctx context.Context, namespace, selector string) ([]string, error) {
	list, err := k.client.AppsV1().Deployments(resolveNamespace(namespace)).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("unable to list deployments: %w", err)
	}

	names := make([]string, 0, len(list.Items))
	for _, d := range list.Items {
		names = append(names, d.Name)
	}

	return names, nil
}

// GetService implements Pods
func (k *K8sInventory) GetService(ctx context.Context, namespace, name string) (types.Service, error) {
	svc, err := k.client.CoreV1().Services(resolveNamespace(namespace)).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return types.Service{}, fmt.Errorf("unable to get service %s/%s: %w", namespace, name, err)
	}

	out := types.Service{
		Name:      svc.Name,
		Namespace: svc.Namespace,
		ClusterIP: svc.Spec.ClusterIP,
		Selector:  svc.Spec.Selector,
	}

	for _, port := range svc.Spec.Ports {
		out.Ports = append(out.Ports, port.Port)
	}

	return out, nil
}

// DeletePods implements Pods, every pod being attempted
func (k *K8sInventory) DeletePods(ctx context.Context, pods []types.Pod, gracePeriodSeconds int64) error {
	var errs *multierror.Error

	for _, pod := range pods {
		grace := gracePeriodSeconds

		err := k.client.CoreV1().Pods(pod.Namespace).Delete(ctx, pod.Name, metav1.DeleteOptions{GracePeriodSeconds: &grace})
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("unable to delete pod %s/%s: %w", pod.Namespace, pod.Name, err))
		}
	}

	return errs.ErrorOrNil()
}

// NodeGroups implements GroupSource, grouping node addresses by label value
func (k *K8sInventory) NodeGroups(ctx context.Context) (map[string][]string, error) {
	list, err := k.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("unable to list nodes: %w", err)
	}

	groups := map[string][]string{}

	for _, node := range list.Items {
		for key, value := range node.Labels {
			if k.groupLabel != "" && key != k.groupLabel {
				continue
			}

			for _, addr := range node.Status.Addresses {
				if !contains(groups[value], addr.Address) {
					groups[value] = append(groups[value], addr.Address)
				}
			}
		}
	}

	return groups, nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}

	return false
}
