// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8stypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/types"
)

const (
	DefaultToxiproxyImage = "docker.io/shopify/toxiproxy:2.1.4"
	DefaultIptablesImage  = "gaiadocker/iproute2:latest"
	DefaultToxiproxyCli   = "/go/bin/toxiproxy-cli"

	// cloneSuffix is appended to the name of the cloned deployment
	cloneSuffix = "-chaos"
	// firstProxyPort is the first port toxiproxy listens on for generated proxies
	firstProxyPort = 10000
)

var errNoClient = errors.New("no kubernetes client configured")

// cloneStep creates a mutated copy of a deployment
type cloneStep struct {
	spec     policy.Clone
	scenario string
	deps     Deps
}

func (s *cloneStep) Name() string {
	return string(policy.StepKindClone)
}

func (s *cloneStep) Execute(ctx context.Context) (Result, error) {
	if s.deps.Client == nil {
		return Failed(), errNoClient
	}

	source := s.spec.Source.Deployment
	namespace := namespaceOrDefault(source.Namespace)

	original, err := s.deps.Client.AppsV1().Deployments(namespace).Get(ctx, source.Name, metav1.GetOptions{})
	if err != nil {
		return Failed(), fmt.Errorf("error getting deployment %s/%s: %w", namespace, source.Name, err)
	}

	clone, err := s.Build(ctx, original)
	if err != nil {
		return Failed(), err
	}

	created, err := s.deps.Client.AppsV1().Deployments(namespace).Create(ctx, clone, metav1.CreateOptions{})
	if err != nil {
		return Failed(), fmt.Errorf("error creating clone %s/%s: %w", namespace, clone.Name, err)
	}

	s.deps.Log.Infow("clone created", tags.NameKey, created.Name, tags.NamespaceKey, created.Namespace)

	// services are pointed back at the original before the clone is deleted
	result := Succeeded()

	for _, retarget := range s.spec.ServicesToRetarget {
		patch, err := s.retarget(ctx, retarget.Service)
		if err != nil {
			s.deps.Log.Errorw("error retargeting service", tags.NameKey, retarget.Service.Name, tags.ErrorKey, err)

			result.Success = false

			break
		}

		result.Cleanup = append(result.Cleanup, patch)
	}

	result.Cleanup = append(result.Cleanup, &deleteDeployment{name: created.Name, namespace: created.Namespace, deps: s.deps})

	return result, nil
}

// Build returns the clone of the given deployment, with its labels and mutations applied
func (s *cloneStep) Build(ctx context.Context, original *appsv1.Deployment) (*appsv1.Deployment, error) {
	if original.Spec.Selector == nil {
		return nil, fmt.Errorf("deployment %s has no selector", original.Name)
	}

	if len(original.Spec.Selector.MatchExpressions) > 0 {
		return nil, fmt.Errorf("deployment %s selects its pods with match expressions, which is not supported", original.Name)
	}

	replicas := s.spec.ReplicaCount()
	clone := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      original.Name + cloneSuffix,
			Namespace: original.Namespace,
			Annotations: map[string]string{
				types.OriginalDeploymentAnnotation: original.Name,
				types.ChaosScenarioAnnotation:      s.scenario,
			},
			Labels: map[string]string{types.ChaosLabel: "true"},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: original.Spec.Selector.DeepCopy(),
			Template: *original.Spec.Template.DeepCopy(),
		},
	}

	if clone.Spec.Selector.MatchLabels == nil {
		clone.Spec.Selector.MatchLabels = map[string]string{}
	}

	if clone.Spec.Template.Labels == nil {
		clone.Spec.Template.Labels = map[string]string{}
	}

	for _, label := range s.spec.Labels {
		switch {
		case label.Service != nil:
			namespace := namespaceOrDefault(label.Service.Namespace)

			service, err := s.deps.Client.CoreV1().Services(namespace).Get(ctx, label.Service.Name, metav1.GetOptions{})
			if err != nil {
				return nil, fmt.Errorf("error getting service %s/%s: %w", namespace, label.Service.Name, err)
			}

			// the service selector replaces every label
			clone.Spec.Selector.MatchLabels = map[string]string{}
			clone.Spec.Template.Labels = map[string]string{}

			setLabels(clone, service.Spec.Selector)
		case label.Label != nil:
			setLabels(clone, map[string]string{label.Label.Key: label.Label.Value})
		}
	}

	for _, mutation := range s.spec.Mutations {
		if env := mutation.Environment; env != nil {
			for i := range clone.Spec.Template.Spec.Containers {
				c := &clone.Spec.Template.Spec.Containers[i]
				c.Env = append(c.Env, corev1.EnvVar{Name: env.Name, Value: env.Value})
			}
		}

		if mutation.TC != nil {
			mutateTrafficControl(&clone.Spec.Template.Spec, *mutation.TC)
		}

		if mutation.Toxiproxy != nil {
			mutateToxiproxy(&clone.Spec.Template.Spec, *mutation.Toxiproxy)
		}
	}

	setLabels(clone, map[string]string{types.ChaosLabel: "true"})

	return clone, nil
}

// retarget makes the service select the clone pods and returns the action reverting it
func (s *cloneStep) retarget(ctx context.Context, ref *policy.ServiceRef) (Action, error) {
	namespace := namespaceOrDefault(ref.Namespace)

	if _, err := s.deps.Client.CoreV1().Services(namespace).Get(ctx, ref.Name, metav1.GetOptions{}); err != nil {
		return nil, fmt.Errorf("error getting service %s/%s: %w", namespace, ref.Name, err)
	}

	add := &patchServiceSelector{op: "add", name: ref.Name, namespace: namespace, deps: s.deps}
	if _, err := add.Execute(ctx); err != nil {
		return nil, err
	}

	return &patchServiceSelector{op: "remove", name: ref.Name, namespace: namespace, deps: s.deps}, nil
}

func setLabels(d *appsv1.Deployment, labels map[string]string) {
	for k, v := range labels {
		d.Spec.Selector.MatchLabels[k] = v
		d.Spec.Template.Labels[k] = v
	}
}

func namespaceOrDefault(namespace string) string {
	if namespace == "" {
		return inventory.DefaultNamespace
	}

	return namespace
}

func netAdmin(user *int64) *corev1.SecurityContext {
	return &corev1.SecurityContext{
		RunAsUser:    user,
		Capabilities: &corev1.Capabilities{Add: []corev1.Capability{"NET_ADMIN"}},
	}
}

// mutateTrafficControl adds the tc container, as an init container without delay and as a sidecar otherwise
func mutateTrafficControl(pod *corev1.PodSpec, tc policy.TrafficControl) {
	if len(tc.Command) == 0 {
		return
	}

	container := corev1.Container{
		Command:         tc.Command,
		Args:            tc.Args,
		Image:           tc.Image,
		SecurityContext: netAdmin(tc.User),
	}

	if tc.Delay <= 0 {
		container.Name = fmt.Sprintf("chaos-setup-%d", len(pod.InitContainers)+1)
		pod.InitContainers = append(pod.InitContainers, container)

		return
	}

	container.Name = fmt.Sprintf("chaos-tc-%d", len(pod.Containers)+1)
	pod.Containers = append(pod.Containers, container)
}

type proxyRoute struct {
	policy.ToxiProxy
	ingressPort int32
}

// mutateToxiproxy puts a toxiproxy sidecar in front of every container port.
// Ports are redirected by an iptables init container to proxies listening from port 10000.
func mutateToxiproxy(pod *corev1.PodSpec, spec policy.Toxiproxy) {
	ports := []int32{}

	for _, c := range pod.Containers {
		for _, p := range c.Ports {
			ports = append(ports, p.ContainerPort)
		}
	}

	used := map[int32]bool{}
	for _, p := range ports {
		used[p] = true
	}

	routes := []proxyRoute{}
	for _, p := range spec.Proxies {
		routes = append(routes, proxyRoute{ToxiProxy: p})
	}

	counter := int32(firstProxyPort)

	for _, port := range ports {
		for used[counter] {
			counter++
		}

		used[counter] = true
		routes = append(routes, proxyRoute{
			ToxiProxy: policy.ToxiProxy{
				Name:     fmt.Sprintf("auto%d", port),
				Listen:   fmt.Sprintf("0.0.0.0:%d", counter),
				Upstream: fmt.Sprintf("127.0.0.1:%d", port),
			},
			ingressPort: port,
		})
	}

	cli := spec.ToxiproxyCli
	if cli == "" {
		cli = DefaultToxiproxyCli
	}

	populate := []string{"true"}
	for _, r := range routes {
		populate = append(populate, fmt.Sprintf("%s create %s -l %s -u %s", cli, r.Name, r.Listen, r.Upstream))
	}

	for _, toxic := range spec.Toxics {
		name := toxic.TargetProxy.String()
		if toxic.TargetProxy.Type == intstr.Int {
			name = "auto" + name
		} else if _, err := strconv.Atoi(name); err == nil {
			name = "auto" + name
		}

		parts := []string{cli, "toxic add", name, "-t", toxic.ToxicType}
		for _, attr := range toxic.ToxicAttributes {
			parts = append(parts, fmt.Sprintf("-a %s=%s", attr.Name, attr.Value.String()))
		}

		populate = append(populate, strings.Join(parts, " "))
	}

	image := spec.ImageToxiproxy
	if image == "" {
		image = DefaultToxiproxyImage
	}

	pod.Containers = append(pod.Containers, corev1.Container{
		Name:  "chaos-toxiproxy",
		Image: image,
		StartupProbe: &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				Exec: &corev1.ExecAction{Command: []string{"/bin/sh", "-c", strings.Join(populate, " && ")}},
			},
		},
	})

	rules := []string{"iptables -t filter -A INPUT -s 127.0.0.1 -j ACCEPT"}
	names := []string{}

	for _, r := range routes {
		if r.ingressPort == 0 {
			continue
		}

		egress := listenPort(r.Listen)
		rules = append(rules, fmt.Sprintf(`iptables -t nat -A PREROUTING -i eth0 -p tcp --dport %d -j REDIRECT --to-port %s -m comment --comment "%s"`, r.ingressPort, egress, r.Name))
		names = append(names, fmt.Sprintf("%d->%s", r.ingressPort, egress))
	}

	rules = append(rules, fmt.Sprintf(`echo "iptables rules setup successfully: %s"`, strings.Join(names, ", ")))

	image = spec.ImageIptables
	if image == "" {
		image = DefaultIptablesImage
	}

	pod.InitContainers = append(pod.InitContainers, corev1.Container{
		Name:            "iptables-setup",
		Command:         []string{"/bin/sh", "-c", strings.Join(rules, " && ")},
		Args:            []string{},
		Image:           image,
		SecurityContext: netAdmin(spec.User),
	})
}

// listenPort returns the port of a host:port address, 80 when there is none
func listenPort(listen string) string {
	parts := strings.Split(listen, ":")
	if len(parts) == 2 {
		return parts[1]
	}

	return "80"
}

// patchServiceSelector adds or removes the chaos label from a service selector
type patchServiceSelector struct {
	op        string
	name      string
	namespace string
	deps      Deps
}

func (p *patchServiceSelector) Name() string {
	return "patchService"
}

func (p *patchServiceSelector) Execute(ctx context.Context) (Result, error) {
	operation := map[string]string{"op": p.op, "path": "/spec/selector/" + types.ChaosLabel}
	if p.op == "add" {
		operation["value"] = "true"
	}

	patch, err := json.Marshal([]map[string]string{operation})
	if err != nil {
		return Failed(), err
	}

	if _, err := p.deps.Client.CoreV1().Services(p.namespace).Patch(ctx, p.name, k8stypes.JSONPatchType, patch, metav1.PatchOptions{}); err != nil {
		return Failed(), fmt.Errorf("error patching service %s/%s: %w", p.namespace, p.name, err)
	}

	p.deps.Log.Infow("service selector patched", tags.NameKey, p.name, tags.NamespaceKey, p.namespace, "op", p.op)

	return Succeeded(), nil
}

// deleteDeployment removes a clone
type deleteDeployment struct {
	name      string
	namespace string
	deps      Deps
}

func (d *deleteDeployment) Name() string {
	return "deleteDeployment"
}

func (d *deleteDeployment) Execute(ctx context.Context) (Result, error) {
	if err := d.deps.Client.AppsV1().Deployments(d.namespace).Delete(ctx, d.name, metav1.DeleteOptions{}); err != nil {
		return Failed(), fmt.Errorf("error deleting clone %s/%s: %w", d.namespace, d.name, err)
	}

	d.deps.Log.Infow("clone deleted", tags.NameKey, d.name, tags.NamespaceKey, d.namespace)

	return Succeeded(), nil
}
