// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package cli_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("Run Command", func() {
	Describe("command lines as arguments", func() {
		It("hot-loads a module and reports its results", func() {
			var stdout bytes.Buffer
			cmd := env.command("run", "relay -load Foo", "relay -doIt bar", "relay -unload")
			cmd.Stdout = &stdout

			Expect(cmd.Run()).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("// Result: Foo //"))
			Expect(stdout.String()).To(ContainSubstring("// Result: 1.0 //"))
		})

		It("exits non-zero when a line fails", func() {
			cmd := env.command("run", "relay -unload", "relay -doIt bar")

			output, err := cmd.CombinedOutput()
			Expect(err).To(HaveOccurred())
			Expect(string(output)).To(ContainSubstring("// Info: the plugin is already unloaded"))
			Expect(string(output)).To(ContainSubstring("// Error: the plugin contains bar is already unloaded"))
		})
	})

	Describe("command lines on stdin", func() {
		It("runs an interactive session with undo", func() {
			var stdout bytes.Buffer
			cmd := env.command("run")
			cmd.Stdin = strings.NewReader(strings.Join([]string{
				"relay -load Counter",
				"relay -doIt add 3",
				"undo",
				"history",
			}, "\n"))
			cmd.Stdout = &stdout

			Expect(cmd.Run()).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("// Info: Undo: relay -doIt add 3\n// Result: 0.0 //"))
			Expect(stdout.String()).To(ContainSubstring("// Info: 2: relay -doIt add 3"))
		})
	})

	Describe("logging", func() {
		It("writes structured JSON logs to stderr", func() {
			var stderr bytes.Buffer
			cmd := env.command("run", "--log-format", "json", "relay -load Foo")
			cmd.Stderr = &stderr

			Expect(cmd.Run()).To(Succeed())
			Expect(stderr.String()).To(ContainSubstring(`"msg":"loading module"`))
			Expect(stderr.String()).To(ContainSubstring(`"service":"cmdrelay"`))
		})
	})
})
