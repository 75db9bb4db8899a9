// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/ssh"

	etypes "github.com/DataDog/chaos-seal/executor/types"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/types"
)

func writePrivateKey() string {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	Expect(err).ToNot(HaveOccurred())

	block, err := ssh.MarshalPrivateKey(priv, "")
	Expect(err).ToNot(HaveOccurred())

	path := filepath.Join(GinkgoT().TempDir(), "id_ed25519")
	Expect(os.WriteFile(path, pem.EncodeToMemory(block), 0o600)).To(Succeed())

	return path
}

type call struct {
	host string
	cmd  string
}

var _ = Describe("SSH executor", func() {
	var (
		e     *Executor
		calls []call
		ret   types.ExecResult
		nodes *inventory.NodesMock
		node  types.Node
	)

	BeforeEach(func() {
		var err error

		e, err = New(etypes.SSHConfig{
			PrivateKeyPath:       writePrivateKey(),
			AllowMissingHostKeys: true,
		}, types.NewRand(1), zaptest.NewLogger(GinkgoT()).Sugar())
		Expect(err).ToNot(HaveOccurred())

		calls = nil
		ret = types.ExecResult{Stdout: "ok"}
		e.run = func(_ context.Context, host, cmd string) types.ExecResult {
			calls = append(calls, call{host, cmd})
			return ret
		}

		node = types.Node{ID: "i-1", Name: "n1", IP: "10.0.0.1", ExtIP: "1.1.1.1"}
		nodes = &inventory.NodesMock{}
	})

	It("applies defaults", func() {
		Expect(e.cfg.User).To(Equal("cloud-user"))
		Expect(e.cfg.Port).To(Equal(22))
		Expect(e.cfg.KillCommand).To(Equal(etypes.DefaultKillCommand))
	})

	It("reaches nodes on their external ip by default", func() {
		results := e.Execute(context.Background(), "hostname", []types.Node{node})

		Expect(results).To(HaveKeyWithValue("1.1.1.1", HaveField("Stdout", "ok")))
		Expect(calls).To(Equal([]call{{"1.1.1.1", "hostname"}}))
	})

	It("honors private ip and override host", func() {
		e.cfg.UsePrivateIP = true
		Expect(e.Execute(context.Background(), "hostname", []types.Node{node})).To(HaveKey("10.0.0.1"))

		e.cfg.OverrideHost = "bastion"
		Expect(e.Execute(context.Background(), "hostname", []types.Node{node})).To(HaveKey("bastion"))
	})

	It("renders the kill command", func() {
		Expect(e.KillCommand("docker://abc", types.SignalTerm)).To(Equal("sudo docker kill -s SIGTERM abc"))
		Expect(e.KillCommand("abc", types.SignalKill)).To(Equal("sudo docker kill -s SIGKILL abc"))
	})

	It("quotes commands for sh -c", func() {
		Expect(ShellCommand("echo 'hi'")).To(Equal(`sh -c 'echo '\''hi'\'''`))
	})

	Describe("KillPod", func() {
		pod := types.Pod{Name: "nginx", Namespace: "default", HostIP: "10.0.0.1", ContainerIDs: []string{"docker://abc"}}

		It("kills a container on the pod's node", func() {
			nodes.On("GetNodeByIP", "10.0.0.1").Return(node, true)

			Expect(e.KillPod(context.Background(), pod, nodes, types.SignalKill)).To(Succeed())
			Expect(calls).To(Equal([]call{{"1.1.1.1", "sudo docker kill -s SIGKILL abc"}}))
		})

		It("fails when the node is unknown", func() {
			nodes.On("GetNodeByIP", "10.0.0.1").Return(types.Node{}, false)

			Expect(e.KillPod(context.Background(), pod, nodes, types.SignalKill)).ToNot(Succeed())
			Expect(calls).To(BeEmpty())
		})

		It("fails on a non zero return code", func() {
			nodes.On("GetNodeByIP", "10.0.0.1").Return(node, true)
			ret = types.ExecResult{RetCode: 1, Stderr: "no such container"}

			Expect(e.KillPod(context.Background(), pod, nodes, types.SignalKill)).To(MatchError(ContainSubstring("no such container")))
		})
	})

	It("fails to build without a readable key", func() {
		_, err := New(etypes.SSHConfig{PrivateKeyPath: "/does/not/exist", AllowMissingHostKeys: true}, types.NewRand(1), zaptest.NewLogger(GinkgoT()).Sugar())
		Expect(err).To(HaveOccurred())
	})
})
