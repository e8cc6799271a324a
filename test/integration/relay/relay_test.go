// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package relay_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"go.uber.org/goleak"
)

var _ = Describe("Relay", func() {
	var (
		env      *testEnv
		existing goleak.Option
	)

	BeforeEach(func() {
		existing = goleak.IgnoreCurrent()
		env = newTestEnv()
	})

	AfterEach(func() {
		env.cleanup()
		Expect(goleak.Find(existing)).To(Succeed())
	})

	Describe("hot loading", func() {
		It("loads, invokes and unloads a module", func() {
			out, err := env.exec("relay -load Foo")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("// Info: initialize_plugin\n// Result: Foo //\n"))
			Expect(env.relay.Loaded()).To(BeTrue())

			out, err = env.exec("relay -doIt bar")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveSuffix("// Result: 1.0 //\n"))

			out, err = env.exec("relay -unload")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("// Info: uninitialize_plugin\n// Result: Foo //\n"))
			Expect(env.relay.Loaded()).To(BeFalse())
		})

		It("uses a fresh boundary for every load", func() {
			Expect(env.exec("relay -load Foo")).Error().NotTo(HaveOccurred())
			first := env.relay.Boundary().Name()
			Expect(env.exec("relay -unload")).Error().NotTo(HaveOccurred())

			Expect(env.exec("relay -load Foo")).Error().NotTo(HaveOccurred())
			Expect(env.relay.Boundary().Name()).NotTo(Equal(first))
		})

		It("reports a second load without replacing the module", func() {
			Expect(env.exec("relay -load Foo")).Error().NotTo(HaveOccurred())
			boundaryName := env.relay.Boundary().Name()

			out, err := env.exec("relay -load Foo")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("// Info: Foo is already loaded\n"))
			Expect(env.relay.Boundary().Name()).To(Equal(boundaryName))
		})

		It("leaves the relay unloaded when the module cannot be found", func() {
			out, err := env.exec("relay -load Missing")
			Expect(err).To(HaveOccurred())
			Expect(out).To(ContainSubstring("// Error: Missing is not found in $CMDRELAY_PLUG_IN_PATH"))
			Expect(env.relay.Loaded()).To(BeFalse())
		})
	})

	Describe("undo and redo", func() {
		BeforeEach(func() {
			Expect(env.exec("relay -load Counter")).Error().NotTo(HaveOccurred())
		})

		It("undoes and redoes forwarded invocations", func() {
			Expect(env.exec("relay -doIt add 5")).To(HaveSuffix("// Result: 5.0 //\n"))
			Expect(env.exec("relay -doIt add 2")).To(HaveSuffix("// Result: 7.0 //\n"))

			Expect(env.exec("undo")).To(HaveSuffix("// Result: 5.0 //\n"))
			Expect(env.exec("redo")).To(HaveSuffix("// Result: 7.0 //\n"))
		})

		It("warns when the undo stack is empty", func() {
			Expect(env.exec("undo")).Error().NotTo(HaveOccurred())
			out, err := env.exec("undo")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("// Warning: There are no more commands to undo.\n"))
		})

		It("reports invocation errors inside the boundary", func() {
			out, err := env.exec("relay -doIt add nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("// Error: "))
			Expect(out).To(ContainSubstring("usage: relay -doIt add <number>"))
		})
	})

	Describe("info", func() {
		It("describes the loaded module", func() {
			Expect(env.exec("relay -load Foo")).Error().NotTo(HaveOccurred())

			out, err := env.exec("relay -info")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("// Info: api_version: 1.0.0\n"))
			Expect(out).To(ContainSubstring("// Info: plugin: FooPlugin (active)\n"))
			Expect(out).To(HaveSuffix("// Result: Foo //\n"))
		})
	})
})
