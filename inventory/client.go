// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package inventory

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// BuildKubeConfig returns the in-cluster configuration when asked to,
// the given kubeconfig file or the default loading rules otherwise
func BuildKubeConfig(kubeconfig string, inCluster bool) (*rest.Config, error) {
	if inCluster {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("unable to build in-cluster configuration: %w", err)
		}

		return restConfig, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("unable to build out-of-cluster configuration: %w", err)
	}

	return restConfig, nil
}

// NewClient returns a clientset for the cluster, see BuildKubeConfig
func NewClient(kubeconfig string, inCluster bool) (kubernetes.Interface, error) {
	restConfig, err := BuildKubeConfig(kubeconfig, inCluster)
	if err != nil {
		return nil, err
	}

	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating the cluster client: %w", err)
	}

	return client, nil
}
